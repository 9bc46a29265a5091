package types

import "strings"

// Modifiers is the free-text option list attached to an order line item
// (e.g. "no onions", "extra sauce"). Stored as a JSON array column.
type Modifiers []string

// Normalize trims whitespace and drops empty entries, preserving order.
func (m Modifiers) Normalize() Modifiers {
	if len(m) == 0 {
		return nil
	}
	out := make(Modifiers, 0, len(m))
	for _, v := range m {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
