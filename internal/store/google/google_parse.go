package google

import (
	"fmt"
	"strconv"
	"strings"

	"bodekasse/internal/core"
	"bodekasse/internal/store"
)

// header maps lower-cased header cells to their column index and checks
// that every wanted column is present.
func header(row []interface{}, want []string) (map[string]int, error) {
	cols := toStrings(row)
	index := make(map[string]int, len(cols))
	for i, h := range cols {
		index[strings.ToLower(h)] = i
	}
	for _, col := range want {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing column %q in header %v", col, cols)
		}
	}
	return index, nil
}

func parseMembers(values [][]interface{}) ([]core.Member, error) {
	if len(values) == 0 {
		return []core.Member{}, nil
	}
	idx, err := header(values[0], store.MemberColumns)
	if err != nil {
		return nil, err
	}
	members := make([]core.Member, 0, len(values)-1)
	for _, raw := range values[1:] {
		name := safeGet(toStrings(raw), idx["name"])
		if name == "" {
			continue
		}
		members = append(members, core.Member{Name: name})
	}
	return members, nil
}

func parseFines(values [][]interface{}) ([]core.Fine, error) {
	if len(values) == 0 {
		return []core.Fine{}, nil
	}
	idx, err := header(values[0], store.FineColumns)
	if err != nil {
		return nil, err
	}
	fines := make([]core.Fine, 0, len(values)-1)
	for i, raw := range values[1:] {
		row := toStrings(raw)
		if isBlank(row) {
			continue
		}
		line := i + 2
		amount, err := core.ParseAmount(safeGet(row, idx["amount"]))
		if err != nil {
			return nil, fmt.Errorf("row %d: amount %q: %w", line, safeGet(row, idx["amount"]), err)
		}
		date, err := core.ParseDate(safeGet(row, idx["date"]))
		if err != nil {
			return nil, fmt.Errorf("row %d: date %q: %w", line, safeGet(row, idx["date"]), err)
		}
		fines = append(fines, core.Fine{
			ID:       safeGet(row, idx["id"]),
			Member:   safeGet(row, idx["member"]),
			FineType: safeGet(row, idx["fine"]),
			Amount:   amount,
			Date:     date,
		})
	}
	return fines, nil
}

func encodeMembers(members []core.Member) [][]interface{} {
	out := make([][]interface{}, 0, len(members)+1)
	out = append(out, toCells(store.MemberColumns))
	for _, m := range members {
		out = append(out, []interface{}{m.Name})
	}
	return out
}

func encodeFines(fines []core.Fine) [][]interface{} {
	out := make([][]interface{}, 0, len(fines)+1)
	out = append(out, toCells(store.FineColumns))
	for _, f := range fines {
		out = append(out, []interface{}{f.ID, f.Member, f.FineType, f.Amount, f.Date.String()})
	}
	return out
}

func toCells(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch n := v.(type) {
		case float64:
			// Unformatted numbers arrive as JSON floats.
			out[i] = strconv.FormatFloat(n, 'f', -1, 64)
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return out
}

func safeGet(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
