package shamir

import (
	"errors"
	"fmt"
)

// ErrConfiguration matches every *ConfigurationError via errors.Is.
var ErrConfiguration = errors.New("invalid sharing configuration")

// ErrRandomSource is returned when the random source keeps producing zero
// coefficients or fails outright.
var ErrRandomSource = errors.New("random source did not yield a nonzero coefficient")

// ConfigurationError reports a sharing parameter outside its allowed range.
type ConfigurationError struct {
	// Param names the offending parameter: "total", "threshold" or "padLength".
	Param string
	Value int
	Msg   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %d: %s", e.Param, e.Value, e.Msg)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}
