package timerange

import "math"

// TimeRange is a window over the trace timeline, in trace-relative seconds.
type TimeRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// New builds a validated range.
func New(min, max float64) (TimeRange, error) {
	r := TimeRange{Min: min, Max: max}
	if err := r.Validate(); err != nil {
		return TimeRange{}, err
	}
	return r, nil
}

func (r TimeRange) Width() float64 {
	return r.Max - r.Min
}

// Remap normalizes t into [0,1] relative to the range. The range must not be
// degenerate (Max > Min); a zero width yields Inf or NaN.
func (r TimeRange) Remap(t float64) float64 {
	return (t - r.Min) / (r.Max - r.Min)
}

// ScrollTo returns a range of the same width starting at t.
func (r TimeRange) ScrollTo(t float64) TimeRange {
	return TimeRange{Min: t, Max: t + r.Width()}
}

func (r TimeRange) Contains(t float64) bool {
	return t >= r.Min && t < r.Max
}

// Covers reports whether [start, end] spans the whole range.
func (r TimeRange) Covers(start, end float64) bool {
	return start <= r.Min && end >= r.Max
}

func (r TimeRange) Equal(o TimeRange) bool {
	return r.Min == o.Min && r.Max == o.Max
}

// Clamp shifts and, if needed, shrinks the range so it lies within [lo, hi].
func (r TimeRange) Clamp(lo, hi float64) TimeRange {
	if hi < lo {
		hi = lo
	}
	w := math.Min(r.Width(), hi-lo)
	min := r.Min
	if min < lo {
		min = lo
	}
	if min+w > hi {
		min = hi - w
	}
	return TimeRange{Min: min, Max: min + w}
}

// Follow returns the range of the given width that ends at end. When the
// trace is shorter than width the range starts at zero instead.
func Follow(end, width float64) TimeRange {
	if end < width {
		return TimeRange{Min: 0, Max: width}
	}
	return TimeRange{Min: end - width, Max: end}
}
