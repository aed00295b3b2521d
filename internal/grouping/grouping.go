// Package grouping partitions rows into groups that share an identical,
// non-empty canonical address.
package grouping

import "sort"

// Group is a set of at least two rows with the same canonical address.
type Group struct {
	Key   string
	Rows  []int
	Color Color
}

// Result is the outcome of a grouping pass.
type Result struct {
	Groups []Group
	// ValidRows counts rows with a non-empty canonical address.
	ValidRows int
	colors    map[int]Color
}

// Find groups row indices by their canonical address. keys[i] is the
// canonical address of row i; empty keys never take part in a group.
// Groups are ordered by ascending key, rows inside a group by ascending
// index, and the group at rank i is colored ColorForRank(i).
func Find(keys []string) *Result {
	members := make(map[string][]int)
	valid := 0
	for i, key := range keys {
		if key == "" {
			continue
		}
		valid++
		members[key] = append(members[key], i)
	}

	dupKeys := make([]string, 0)
	for key, rows := range members {
		if len(rows) > 1 {
			dupKeys = append(dupKeys, key)
		}
	}
	sort.Strings(dupKeys)

	res := &Result{
		Groups:    make([]Group, 0, len(dupKeys)),
		ValidRows: valid,
		colors:    make(map[int]Color),
	}
	for _, key := range dupKeys {
		rows := members[key]
		if len(rows) < 2 {
			continue
		}
		color := ColorForRank(len(res.Groups))
		res.Groups = append(res.Groups, Group{Key: key, Rows: rows, Color: color})
		for _, idx := range rows {
			res.colors[idx] = color
		}
	}
	return res
}

// ColorOf returns the color of the group containing row, if any.
func (r *Result) ColorOf(row int) (Color, bool) {
	c, ok := r.colors[row]
	return c, ok
}

// GroupedItems returns the number of rows that belong to some group.
func (r *Result) GroupedItems() int {
	return len(r.colors)
}

// Ordered returns grouped row indices group by group.
func (r *Result) Ordered() []int {
	out := make([]int, 0, len(r.colors))
	for _, g := range r.Groups {
		out = append(out, g.Rows...)
	}
	return out
}

// ColorsPresent returns the distinct colors in use, in first-seen order.
func (r *Result) ColorsPresent() []Color {
	seen := make(map[Color]bool, len(Palette))
	out := make([]Color, 0, len(Palette))
	for _, g := range r.Groups {
		if !seen[g.Color] {
			seen[g.Color] = true
			out = append(out, g.Color)
		}
	}
	return out
}
