// Package table holds the handful of table operations the sampling core
// needs: grouping with sum/count, stable ordering, running sums, keyed joins
// and rounding.
package table

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Key composite join/group key
type Key string

// keySep never appears in identifiers read from CSV or xlsx cells.
const keySep = "\x1f"

// KeyOf joins key parts into a Key.
func KeyOf(parts ...string) Key {
	return Key(strings.Join(parts, keySep))
}

// Parts splits a Key back into its parts.
func (k Key) Parts() []string {
	return strings.Split(string(k), keySep)
}

// Group one group of a GroupBy
type Group struct {
	Key   Key
	Parts []string
	Sum   float64
	Count int
	// Rows are the input positions of the group's members, in input order.
	Rows []int
}

// GroupBy groups rows by the parts returned from keyFn, summing value and
// counting members. Groups come back ordered by key, comparing parts
// numerically when both sides parse as numbers.
func GroupBy[T any](rows []T, keyFn func(T) []string, value func(T) float64) []Group {
	index := make(map[Key]int)
	groups := make([]Group, 0)

	for i, row := range rows {
		parts := keyFn(row)
		k := KeyOf(parts...)
		gi, ok := index[k]
		if !ok {
			gi = len(groups)
			index[k] = gi
			groups = append(groups, Group{Key: k, Parts: append([]string(nil), parts...)})
		}
		g := &groups[gi]
		if value != nil {
			g.Sum += value(row)
		}
		g.Count++
		g.Rows = append(g.Rows, i)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return LessParts(groups[i].Parts, groups[j].Parts)
	})
	return groups
}

// LessParts orders two key tuples part by part.
func LessParts(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareCell(a[i], b[i]); c != 0 {
			return c < 0
		}
	}
	return len(a) < len(b)
}

func compareCell(a, b string) int {
	if a == b {
		return 0
	}
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
	}
	return strings.Compare(a, b)
}

// SortDesc orders rows by descending value, keeping input order among ties.
func SortDesc[T any](rows []T, by func(T) float64) {
	sort.SliceStable(rows, func(i, j int) bool {
		return by(rows[i]) > by(rows[j])
	})
}

// TopN returns the n rows with the highest value, highest first. Ties keep
// input order. rows is not modified.
func TopN[T any](rows []T, n int, by func(T) float64) []T {
	if n <= 0 {
		return []T{}
	}
	sorted := make([]T, len(rows))
	copy(sorted, rows)
	SortDesc(sorted, by)
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// CumSum returns the running sum of values.
func CumSum(values []float64) []float64 {
	out := make([]float64, len(values))
	var acc float64
	for i, v := range values {
		acc += v
		out[i] = acc
	}
	return out
}

// IndexBy maps each key to the position of its first row.
func IndexBy[T any](rows []T, key func(T) Key) map[Key]int {
	index := make(map[Key]int, len(rows))
	for i, row := range rows {
		k := key(row)
		if _, ok := index[k]; !ok {
			index[k] = i
		}
	}
	return index
}

// Pair a joined left/right row
type Pair[L, R any] struct {
	Left  L
	Right R
}

// Join inner-joins left and right on their keys. Output follows left order;
// when right repeats a key the first right row wins.
func Join[L, R any](left []L, right []R, lkey func(L) Key, rkey func(R) Key) []Pair[L, R] {
	index := IndexBy(right, rkey)
	out := make([]Pair[L, R], 0, len(left))
	for _, l := range left {
		ri, ok := index[lkey(l)]
		if !ok {
			continue
		}
		out = append(out, Pair[L, R]{Left: l, Right: right[ri]})
	}
	return out
}

// Filter returns the rows that satisfy keep, in order.
func Filter[T any](rows []T, keep func(T) bool) []T {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if keep(row) {
			out = append(out, row)
		}
	}
	return out
}

// Round rounds half to even at the given number of decimal places.
func Round(v float64, places int) float64 {
	if places == 0 {
		return math.RoundToEven(v)
	}
	pow := math.Pow(10, float64(places))
	return math.RoundToEven(v*pow) / pow
}

// Percent returns part/whole*100, or 0 when whole is 0.
func Percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}
