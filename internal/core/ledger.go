package core

import "sort"

// Totals groups fines by member and sums their amounts. Members without
// fines do not appear. The result is ordered by total descending, then by
// member name so equal input always yields equal output.
func Totals(fines []Fine) []MemberTotal {
	sums := map[string]int64{}
	for _, f := range fines {
		sums[f.Member] += f.Amount
	}
	out := make([]MemberTotal, 0, len(sums))
	for member, total := range sums {
		out = append(out, MemberTotal{Member: member, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Member < out[j].Member
	})
	return out
}

// History returns the fines of one member in storage order.
func History(fines []Fine, member string) []Fine {
	var out []Fine
	for _, f := range fines {
		if f.Member == member {
			out = append(out, f)
		}
	}
	return out
}

// Unlisted returns, sorted, the names that still have fines but are not on
// the roster.
func Unlisted(members []Member, fines []Fine) []string {
	seen := map[string]bool{}
	var out []string
	for _, f := range fines {
		if seen[f.Member] || HasMember(members, f.Member) {
			continue
		}
		seen[f.Member] = true
		out = append(out, f.Member)
	}
	sort.Strings(out)
	return out
}

// GrandTotal sums every fine.
func GrandTotal(fines []Fine) int64 {
	var total int64
	for _, f := range fines {
		total += f.Amount
	}
	return total
}
