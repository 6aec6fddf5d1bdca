package catalog

import "sort"

// Rank keeps the patterns whose credit meets required and orders them
// rectangular first, then by ascending credit. Ties keep their input order,
// so ranking an already ranked list is a no-op.
func Rank(patterns []Pattern, required float64) []Pattern {
	out := make([]Pattern, 0, len(patterns))
	for _, p := range patterns {
		if p.Metadata.CreditSqft >= required {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Metadata, out[j].Metadata
		if a.IsRectangular != b.IsRectangular {
			return a.IsRectangular
		}
		return a.CreditSqft < b.CreditSqft
	})
	return out
}
