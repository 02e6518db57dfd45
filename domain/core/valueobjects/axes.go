package valueobjects

import "math"

// Axis is one of the four irreversibility dimensions
type Axis string

const (
	AxisFinancial      Axis = "F"
	AxisTime           Axis = "T"
	AxisOrganizational Axis = "O"
	AxisStrategic      Axis = "S"
)

// Axes lists every axis in canonical order
var Axes = []Axis{AxisFinancial, AxisTime, AxisOrganizational, AxisStrategic}

// AxisWeights is a F/T/O/S vector
type AxisWeights struct {
	F int `json:"F"`
	T int `json:"T"`
	O int `json:"O"`
	S int `json:"S"`
}

// Add returns the component-wise sum
func (w AxisWeights) Add(other AxisWeights) AxisWeights {
	return AxisWeights{F: w.F + other.F, T: w.T + other.T, O: w.O + other.O, S: w.S + other.S}
}

// Get returns the component for axis
func (w AxisWeights) Get(axis Axis) int {
	switch axis {
	case AxisFinancial:
		return w.F
	case AxisTime:
		return w.T
	case AxisOrganizational:
		return w.O
	case AxisStrategic:
		return w.S
	}
	return 0
}

// Set returns a copy with axis replaced
func (w AxisWeights) Set(axis Axis, v int) AxisWeights {
	switch axis {
	case AxisFinancial:
		w.F = v
	case AxisTime:
		w.T = v
	case AxisOrganizational:
		w.O = v
	case AxisStrategic:
		w.S = v
	}
	return w
}

// Sum is F+T+O+S
func (w AxisWeights) Sum() int {
	return w.F + w.T + w.O + w.S
}

// Clamp bounds every component to [0,100]
func (w AxisWeights) Clamp() AxisWeights {
	return AxisWeights{F: ClampPct(w.F), T: ClampPct(w.T), O: ClampPct(w.O), S: ClampPct(w.S)}
}

// Composite is the weighted irreversibility score, strategic weighs most
func (w AxisWeights) Composite() int {
	c := 0.2*float64(w.F) + 0.2*float64(w.T) + 0.25*float64(w.O) + 0.35*float64(w.S)
	return ClampPct(RoundHalfUp(c))
}

// AxesAtLeast returns the axes whose component is >= threshold
func (w AxisWeights) AxesAtLeast(threshold int) []Axis {
	out := make([]Axis, 0, 4)
	for _, a := range Axes {
		if w.Get(a) >= threshold {
			out = append(out, a)
		}
	}
	return out
}

// ClampPct bounds v to [0,100]
func ClampPct(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// RoundHalfUp rounds .5 toward +Inf like a browser's Math.round
func RoundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
