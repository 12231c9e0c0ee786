package caersparser

import (
	"fmt"
	"strings"
)

// MissingFieldError is returned when required columns are absent from the
// header row. It aborts the run.
type MissingFieldError struct {
	Columns []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required column(s): %s", strings.Join(e.Columns, ", "))
}

// UnparseableAgeError reports a PATIENT_AGE value that is neither numeric nor
// a recognized missing marker. The age is treated as missing.
type UnparseableAgeError struct {
	Value string
}

func (e *UnparseableAgeError) Error() string {
	return fmt.Sprintf("unparseable patient age %q", e.Value)
}

// UnknownUnitError reports an AGE_UNITS value outside the recognized tags.
// The age is kept as if it were already in years.
type UnknownUnitError struct {
	Unit string
}

func (e *UnknownUnitError) Error() string {
	return fmt.Sprintf("unknown age unit %q", e.Unit)
}
