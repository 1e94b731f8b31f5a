package workspace

import "fmt"

// CapacityError is returned when a row or column is assigned children that
// cannot fit the 12-unit grid. Limit identifies which constraint tripped.
type CapacityError struct {
	Container string // "row" or "column"
	Limit     string // "count" or "width"
	Count     int    // number of children in the rejected list
	Width     int    // total width units in the rejected list
}

func (e *CapacityError) Error() string {
	if e.Limit == "count" {
		return fmt.Sprintf("%s capacity exceeded: %d children, maximum is %d", e.Container, e.Count, maxGridUnits)
	}
	return fmt.Sprintf("%s capacity exceeded: children total %d width units, maximum is %d", e.Container, e.Width, maxGridUnits)
}

// DecodeError is returned when a persisted layout cannot be reconstructed:
// unbalanced parentheses, junk tokens, component references out of range, or
// an unrecognized component type discriminator.
type DecodeError struct {
	Pos    int    // byte offset into the layout string, -1 when not positional
	Reason string
}

func (e *DecodeError) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("invalid layout at offset %d: %s", e.Pos, e.Reason)
	}
	return fmt.Sprintf("invalid layout: %s", e.Reason)
}

func decodeErrf(pos int, format string, args ...interface{}) *DecodeError {
	return &DecodeError{Pos: pos, Reason: fmt.Sprintf(format, args...)}
}
