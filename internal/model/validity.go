package model

import "bytes"

// Validity is the tri-state outcome of a single validation dimension.
// NotEvaluated means the corresponding expectation was never configured for
// the scan, which is distinct from a failed check.
type Validity int

const (
	NotEvaluated Validity = iota
	Valid
	Invalid
)

func (v Validity) String() string {
	switch v {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return "not_evaluated"
	}
}

// Bool reports the validity as (value, evaluated).
func (v Validity) Bool() (bool, bool) {
	switch v {
	case Valid:
		return true, true
	case Invalid:
		return false, true
	default:
		return false, false
	}
}

// ValidityOf converts a boolean check result into a Validity.
func ValidityOf(ok bool) Validity {
	if ok {
		return Valid
	}
	return Invalid
}

// JSON encoding is null/true/false so API consumers see the same shape as a
// nullable boolean.
func (v Validity) MarshalJSON() ([]byte, error) {
	switch v {
	case Valid:
		return []byte("true"), nil
	case Invalid:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

func (v *Validity) UnmarshalJSON(data []byte) error {
	switch {
	case bytes.Equal(data, []byte("true")):
		*v = Valid
	case bytes.Equal(data, []byte("false")):
		*v = Invalid
	default:
		*v = NotEvaluated
	}
	return nil
}
