package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// CatalogEntry is one fine type and its fixed amount.
type CatalogEntry struct {
	Name   string
	Amount int64
}

// Catalog maps fine type names to fixed amounts. It is built once at startup
// and never mutated afterwards.
type Catalog struct {
	amounts map[string]int64
}

// DefaultCatalog is used when no catalog is configured.
var DefaultCatalog = map[string]int64{
	"Afbud":   20,
	"No-show": 1000,
}

// NewCatalog copies entries into a catalog, rejecting blank names and
// non-positive amounts.
func NewCatalog(entries map[string]int64) (Catalog, error) {
	amounts := make(map[string]int64, len(entries))
	for name, amount := range entries {
		name = strings.TrimSpace(name)
		if name == "" {
			return Catalog{}, fmt.Errorf("catalog entry with empty name")
		}
		if amount <= 0 {
			return Catalog{}, fmt.Errorf("catalog entry %q: %w", name, ErrInvalidAmount)
		}
		if _, dup := amounts[name]; dup {
			return Catalog{}, fmt.Errorf("catalog entry %q listed twice", name)
		}
		amounts[name] = amount
	}
	return Catalog{amounts: amounts}, nil
}

// ParseCatalog parses "Name=Amount" pairs separated by commas, e.g.
// "Afbud=20,No-show=1000".
func ParseCatalog(s string) (Catalog, error) {
	entries := map[string]int64{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			return Catalog{}, fmt.Errorf("catalog entry %q: expected Name=Amount", part)
		}
		name = strings.TrimSpace(name)
		amount, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return Catalog{}, fmt.Errorf("catalog entry %q: %w", part, ErrInvalidAmount)
		}
		if _, dup := entries[name]; dup {
			return Catalog{}, fmt.Errorf("catalog entry %q listed twice", name)
		}
		entries[name] = amount
	}
	if len(entries) == 0 {
		return Catalog{}, fmt.Errorf("catalog is empty")
	}
	return NewCatalog(entries)
}

// Amount returns the fixed amount for a fine type.
func (c Catalog) Amount(name string) (int64, bool) {
	amount, ok := c.amounts[name]
	return amount, ok
}

// Len returns the number of fine types.
func (c Catalog) Len() int {
	return len(c.amounts)
}

// Entries returns the catalog for display, most expensive first.
func (c Catalog) Entries() []CatalogEntry {
	out := make([]CatalogEntry, 0, len(c.amounts))
	for name, amount := range c.amounts {
		out = append(out, CatalogEntry{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Names returns fine type names in display order.
func (c Catalog) Names() []string {
	entries := c.Entries()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}
