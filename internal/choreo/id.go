package choreo

import "strconv"

// ID is the identity of a stored row.
//
// The zero value is Unassigned, which asks the store to allocate a fresh
// identity on insert. Assigned(0) is a real identity and is distinct from
// Unassigned.
type ID struct {
	value    int64
	assigned bool
}

// Unassigned returns the identity that requests allocation on insert.
func Unassigned() ID {
	return ID{}
}

// Assigned returns an identity holding v.
func Assigned(v int64) ID {
	return ID{value: v, assigned: true}
}

// Value returns the identity value and whether one is assigned.
func (id ID) Value() (int64, bool) {
	return id.value, id.assigned
}

// IsAssigned reports whether the identity holds a value.
func (id ID) IsAssigned() bool {
	return id.assigned
}

// Int64 returns the identity value, or 0 when unassigned.
// Only use it for display; use Value to tell the cases apart.
func (id ID) Int64() int64 {
	return id.value
}

func (id ID) String() string {
	if !id.assigned {
		return "unassigned"
	}
	return strconv.FormatInt(id.value, 10)
}
