package core

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the on-disk and on-screen format of fine dates.
const DateLayout = "2006-01-02"

type (
	Date struct {
		time.Time
	}

	Member struct {
		Name string
	}

	Fine struct {
		ID       string
		Member   string
		FineType string
		Amount   int64 // whole currency units, copied from the catalog
		Date     Date
	}

	// MemberTotal is the derived amount owed by one member.
	MemberTotal struct {
		Member string
		Total  int64
	}
)

var (
	ErrEmptyName       = errors.New("member name is empty")
	ErrDuplicateMember = errors.New("member already exists")
	ErrUnknownMember   = errors.New("unknown member")
	ErrUnknownFineType = errors.New("unknown fine type")
	ErrNotAuthorized   = errors.New("admin token required")
	ErrInvalidAmount   = errors.New("invalid amount")
)

// IsInputError reports whether err is a rejected admin input that should be
// shown to the actor as a warning rather than treated as a failure.
func IsInputError(err error) bool {
	return errors.Is(err, ErrEmptyName) ||
		errors.Is(err, ErrDuplicateMember) ||
		errors.Is(err, ErrUnknownMember) ||
		errors.Is(err, ErrUnknownFineType)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (m Member) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (f Fine) Validate() error {
	if strings.TrimSpace(f.Member) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(f.FineType) == "" {
		return ErrUnknownFineType
	}
	if f.Amount <= 0 {
		return ErrInvalidAmount
	}
	if f.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// MemberNames returns the names of members in their current order.
func MemberNames(members []Member) []string {
	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.Name)
	}
	return names
}

// HasMember reports whether name matches a roster entry exactly.
func HasMember(members []Member, name string) bool {
	for _, m := range members {
		if m.Name == name {
			return true
		}
	}
	return false
}
