// Package store defines the Record Store port: full-set load and save of
// the member roster and the fine ledger.
package store

import (
	"context"
	"sort"

	"bodekasse/internal/core"
)

// Tabular layout shared by every backend.
var (
	MemberColumns = []string{"name"}
	FineColumns   = []string{"id", "member", "fine", "amount", "date"}
)

// Ports for outbound adapters.
type (
	MemberLoader interface {
		// LoadMembers returns the roster sorted by name. Absent storage yields
		// an empty roster.
		LoadMembers(ctx context.Context) ([]core.Member, error)
	}

	MemberSaver interface {
		// SaveMembers replaces the stored roster.
		SaveMembers(ctx context.Context, members []core.Member) error
	}

	FineLoader interface {
		// LoadFines returns fines in insertion order. Absent storage yields
		// an empty ledger.
		LoadFines(ctx context.Context) ([]core.Fine, error)
	}

	FineSaver interface {
		// SaveFines replaces the stored ledger.
		SaveFines(ctx context.Context, fines []core.Fine) error
	}

	Store interface {
		MemberLoader
		MemberSaver
		FineLoader
		FineSaver
	}
)

// SortMembers orders members by name ascending, in place.
func SortMembers(members []core.Member) {
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].Name < members[j].Name
	})
}
