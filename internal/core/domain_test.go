package core

import (
	"fmt"
	"testing"
	"time"
)

func TestDateParseAndString(t *testing.T) {
	d, err := ParseDate("2025-03-09")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if d.String() != "2025-03-09" {
		t.Fatalf("round trip mismatch: %s", d.String())
	}
	if _, err := ParseDate("09/03/2025"); err == nil {
		t.Fatalf("expected error for foreign layout")
	}
	if (Date{}).String() != "" {
		t.Fatalf("zero date should render empty")
	}
	if got := DateOf(time.Date(2025, 3, 9, 23, 59, 0, 0, time.UTC)); !got.Equal(NewDate(2025, 3, 9).Time) {
		t.Fatalf("DateOf did not truncate: %v", got)
	}
}

func TestFineValidate(t *testing.T) {
	good := Fine{ID: "x", Member: "Alice", FineType: "Afbud", Amount: 20, Date: NewDate(2025, 1, 1)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Fine{
		{Member: "", FineType: "Afbud", Amount: 20, Date: NewDate(2025, 1, 1)},
		{Member: "Alice", FineType: "", Amount: 20, Date: NewDate(2025, 1, 1)},
		{Member: "Alice", FineType: "Afbud", Amount: 0, Date: NewDate(2025, 1, 1)},
		{Member: "Alice", FineType: "Afbud", Amount: 20},
	}
	for i, f := range bads {
		if err := f.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestMemberValidate(t *testing.T) {
	if err := (Member{Name: "Bob"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	for _, name := range []string{"", "   "} {
		if err := (Member{Name: name}).Validate(); err != ErrEmptyName {
			t.Fatalf("%q: expected ErrEmptyName, got %v", name, err)
		}
	}
}

func TestIsInputError(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{ErrEmptyName, true},
		{ErrDuplicateMember, true},
		{fmt.Errorf("add member: %w", ErrDuplicateMember), true},
		{ErrUnknownMember, true},
		{ErrUnknownFineType, true},
		{ErrNotAuthorized, false},
		{fmt.Errorf("disk full"), false},
		{nil, false},
	}
	for i, tc := range cases {
		if got := IsInputError(tc.err); got != tc.want {
			t.Fatalf("case %d (%v): got %v want %v", i, tc.err, got, tc.want)
		}
	}
}

func TestHasMember(t *testing.T) {
	roster := []Member{{Name: "Alice"}, {Name: "Bob"}}
	if !HasMember(roster, "Alice") {
		t.Fatalf("expected Alice")
	}
	if HasMember(roster, "alice") {
		t.Fatalf("match must be case-sensitive")
	}
	if got := MemberNames(roster); len(got) != 2 || got[1] != "Bob" {
		t.Fatalf("unexpected names: %v", got)
	}
}
