package live2d

// Well-known parameter ids on the cat models. A model that lacks one simply
// reports a zero range for it and writers skip it.
const (
	ParamLeftHandDown  = "ParamLeftHandDown"
	ParamRightHandDown = "ParamRightHandDown"

	ParamLeftJoyHand  = "ParamLeftJoyHand"
	ParamRightJoyHand = "ParamRightJoyHand"

	ParamLeftJoyX  = "ParamLeftJoyX"
	ParamLeftJoyY  = "ParamLeftJoyY"
	ParamRightJoyX = "ParamRightJoyX"
	ParamRightJoyY = "ParamRightJoyY"

	ParamMouseX = "ParamMouseX"
	ParamMouseY = "ParamMouseY"

	ParamLightning = "ParamLightning"
)

// ParameterRange is the declared [min,max] of a model parameter. The zero
// value is the sentinel for "parameter not present on this model"; writers
// treat it as a skip, never as an error.
type ParameterRange struct {
	Min float64
	Max float64
}

// IsZero reports whether the range is the missing-parameter sentinel.
func (r ParameterRange) IsZero() bool {
	return r.Min == 0 && r.Max == 0
}

// Clamp bounds v to the range.
func (r ParameterRange) Clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// FromUnit maps a logical [-1,1] value into the declared range.
func (r ParameterRange) FromUnit(v float64) float64 {
	if v < -1 {
		v = -1
	}
	if v > 1 {
		v = 1
	}
	return r.Min + (v+1)/2*(r.Max-r.Min)
}

// FromRatio maps a logical [0,1] value into the declared range.
func (r ParameterRange) FromRatio(v float64) float64 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return r.Min + v*(r.Max-r.Min)
}
