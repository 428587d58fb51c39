package sector

import (
	"fmt"
	"sort"
	"strings"
)

// Range is an inclusive range of sectors [First, Last].
type Range struct {
	First int `json:"first" yaml:"first"`
	Last  int `json:"last" yaml:"last"`
}

// NewRange returns the range [first, last].
func NewRange(first, last int) Range {
	return Range{First: first, Last: last}
}

// IsEmpty reports whether the range contains no sector.
func (r Range) IsEmpty() bool {
	return r.Last < r.First
}

// Count returns the number of sectors in the range.
func (r Range) Count() int {
	if r.IsEmpty() {
		return 0
	}
	return r.Last - r.First + 1
}

// Contains reports whether sector s is in the range.
func (r Range) Contains(s int) bool {
	return s >= r.First && s <= r.Last
}

func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.First, r.Last)
}

// List is a list of sector ranges. Lists built with Add or Coalesce are sorted, and no two
// elements overlap or touch.
type List []Range

// Coalesce returns a sorted copy of l where overlapping and adjacent ranges are merged and
// empty ranges are dropped. Coalesce is idempotent.
func (l List) Coalesce() List {
	sorted := make(List, 0, len(l))
	for _, r := range l {
		if !r.IsEmpty() {
			sorted = append(sorted, r)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].First != sorted[j].First {
			return sorted[i].First < sorted[j].First
		}
		return sorted[i].Last < sorted[j].Last
	})

	result := make(List, 0, len(sorted))
	for _, r := range sorted {
		if n := len(result); n > 0 && result[n-1].Last+1 >= r.First {
			if r.Last > result[n-1].Last {
				result[n-1].Last = r.Last
			}
			continue
		}
		result = append(result, r)
	}
	return result
}

// IsCoalesced reports whether l is in coalesced form.
func (l List) IsCoalesced() bool {
	for i, r := range l {
		if r.IsEmpty() {
			return false
		}
		if i > 0 && l[i-1].Last+1 >= r.First {
			return false
		}
	}
	return true
}

// Add returns l with r added, keeping the list coalesced.
func (l List) Add(r ...Range) List {
	return append(append(List{}, l...), r...).Coalesce()
}

// TotalCount returns the total number of sectors in the list.
func (l List) TotalCount() int {
	total := 0
	for _, r := range l {
		total += r.Count()
	}
	return total
}

// Contains reports whether sector s is in one of the ranges.
func (l List) Contains(s int) bool {
	for _, r := range l {
		if r.Contains(s) {
			return true
		}
	}
	return false
}

// Scale multiplies all ranges by factor, each sector becoming factor units.
// Scaling by the sector size turns a list of sectors into a list of byte ranges.
func (l List) Scale(factor int) List {
	result := make(List, 0, len(l))
	for _, r := range l {
		result = append(result, Range{First: r.First * factor, Last: (r.Last+1)*factor - 1})
	}
	return result
}

// Clip removes everything beyond max (exclusive) from the list.
func (l List) Clip(max int) List {
	result := make(List, 0, len(l))
	for _, r := range l {
		if r.First >= max {
			continue
		}
		if r.Last >= max {
			r.Last = max - 1
		}
		result = append(result, r)
	}
	return result
}

func (l List) String() string {
	parts := make([]string, 0, len(l))
	for _, r := range l {
		parts = append(parts, r.String())
	}
	return strings.Join(parts, ", ")
}
