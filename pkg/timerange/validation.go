package timerange

import (
	"fmt"
	"math"
)

// ValidationError represents validation errors for TimeRange operations
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("time range validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// Validate checks that both bounds are finite and ordered.
func (r TimeRange) Validate() error {
	if math.IsNaN(r.Min) || math.IsInf(r.Min, 0) {
		return ValidationError{
			Field:   "Min",
			Value:   r.Min,
			Message: "range start must be a finite number",
		}
	}

	if math.IsNaN(r.Max) || math.IsInf(r.Max, 0) {
		return ValidationError{
			Field:   "Max",
			Value:   r.Max,
			Message: "range end must be a finite number",
		}
	}

	if r.Min > r.Max {
		return ValidationError{
			Field:   "Min/Max",
			Value:   fmt.Sprintf("Min=%v, Max=%v", r.Min, r.Max),
			Message: "range start must not be after range end",
		}
	}

	return nil
}

// ValidateWidth checks that a window width is usable for scrolling and following.
func ValidateWidth(width float64) error {
	if math.IsNaN(width) || math.IsInf(width, 0) {
		return ValidationError{
			Field:   "Width",
			Value:   width,
			Message: "width must be a finite number",
		}
	}

	if width <= 0 {
		return ValidationError{
			Field:   "Width",
			Value:   width,
			Message: "width must be positive",
		}
	}

	return nil
}
