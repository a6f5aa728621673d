package param

// RampFunc maps normalized ramp progress t in [0, 1] to an interpolation
// weight. The automation engine evaluates it once per sample frame while
// an event is active, so implementations should be cheap and allocation
// free.
type RampFunc func(t float64) float64

// Linear interpolates at constant speed. This is the default ramp.
func Linear(t float64) float64 { return t }

// EaseInQuad starts slowly and accelerates.
func EaseInQuad(t float64) float64 { return t * t }

// EaseOutQuad starts quickly and decelerates. Useful for gain fades
// where the audible change should happen early.
func EaseOutQuad(t float64) float64 { return t * (2 - t) }

// EaseInOutQuad accelerates through the first half and decelerates
// through the second.
func EaseInOutQuad(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return -1 + (4-2*t)*t
}
