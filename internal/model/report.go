package model

// Outcome is the verdict of a round-trip comparison
type Outcome string

const (
	OutcomeMatch          Outcome = "match"
	OutcomeLengthMismatch Outcome = "length_mismatch"
	OutcomeByteMismatch   Outcome = "byte_mismatch"
	OutcomeDecodeFailure  Outcome = "decode_failure"
)

// Mismatch is a single differing byte
type Mismatch struct {
	Offset   int  `json:"offset"`
	Expected byte `json:"expected"`
	Actual   byte `json:"actual"`
}

// Report is the result of comparing scanned text with the original payload.
// It is derived per scan result and never persisted.
type Report struct {
	Outcome        Outcome    `json:"outcome"`
	ExpectedLength int        `json:"expectedLength"`
	ActualLength   int        `json:"actualLength"`
	Mismatches     []Mismatch `json:"mismatches,omitempty"`
	DecodeError    string     `json:"decodeError,omitempty"`
}

// OK reports whether the scanned data reproduced the payload exactly
func (r *Report) OK() bool {
	return r.Outcome == OutcomeMatch
}
