package pipeline

import (
	"fmt"
	"strings"
)

// Comparison is the operator used to decide whether a value exceeds a
// threshold.
type Comparison int

const (
	// Greater counts values strictly above the threshold.
	Greater Comparison = iota
	// GreaterOrEqual counts values at or above the threshold.
	GreaterOrEqual
)

// Exceeds reports whether v exceeds threshold under c.
func (c Comparison) Exceeds(v, threshold float64) bool {
	if c == GreaterOrEqual {
		return v >= threshold
	}
	return v > threshold
}

// String returns the string representation of the comparison.
func (c Comparison) String() string {
	switch c {
	case Greater:
		return "gt"
	case GreaterOrEqual:
		return "gte"
	default:
		return "unknown"
	}
}

// ParseComparison parses "gt", ">", "gte" or ">=".
func ParseComparison(s string) (Comparison, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "", "gt", ">":
		return Greater, nil
	case "gte", ">=", "ge":
		return GreaterOrEqual, nil
	default:
		return Greater, fmt.Errorf("%w: unknown comparison %q", ErrInvalidConfig, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Comparison) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Comparison) UnmarshalText(text []byte) error {
	v, err := ParseComparison(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
