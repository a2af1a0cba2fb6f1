package valueobjects

import "sort"

// Floor labels one level of a multi-story map.
// The zero value means the record carries no floor and reads as floor 1.
type Floor int

// DefaultFloor is used whenever no floor is known
const DefaultFloor Floor = 1

// IsSet reports whether a floor was recorded
func (f Floor) IsSet() bool { return f != 0 }

// OrDefault returns the floor, or DefaultFloor when unset
func (f Floor) OrDefault() Floor {
	if f == 0 {
		return DefaultFloor
	}
	return f
}

// Int returns the label as an int
func (f Floor) Int() int { return int(f) }

// SortFloors returns the distinct floors in ascending order
func SortFloors(floors []Floor) []Floor {
	seen := make(map[Floor]struct{}, len(floors))
	out := make([]Floor, 0, len(floors))
	for _, f := range floors {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// InsertFloor adds f to an ascending list if absent and keeps it sorted.
// The input slice is not modified.
func InsertFloor(floors []Floor, f Floor) []Floor {
	i := sort.Search(len(floors), func(i int) bool { return floors[i] >= f })
	if i < len(floors) && floors[i] == f {
		return append([]Floor(nil), floors...)
	}
	out := make([]Floor, 0, len(floors)+1)
	out = append(out, floors[:i]...)
	out = append(out, f)
	out = append(out, floors[i:]...)
	return out
}

// ContainsFloor reports whether f is in the list
func ContainsFloor(floors []Floor, f Floor) bool {
	for _, x := range floors {
		if x == f {
			return true
		}
	}
	return false
}

// PreferredFloor picks DefaultFloor when present, otherwise the lowest floor
func PreferredFloor(floors []Floor) Floor {
	if len(floors) == 0 || ContainsFloor(floors, DefaultFloor) {
		return DefaultFloor
	}
	lowest := floors[0]
	for _, f := range floors[1:] {
		if f < lowest {
			lowest = f
		}
	}
	return lowest
}
