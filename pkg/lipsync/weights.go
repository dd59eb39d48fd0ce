package lipsync

// WeightSet maps facial-control names to activation weights in [0,1]. It is
// sparse: controls at zero are simply absent.
type WeightSet map[string]float64

// Get returns the weight for the named control, or 0 when absent.
func (w WeightSet) Get(name string) float64 {
	return w[name]
}

// Clone returns an independent copy.
func (w WeightSet) Clone() WeightSet {
	out := make(WeightSet, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// Clamp restricts every weight to [0,1] in place and returns w.
func (w WeightSet) Clamp() WeightSet {
	for k, v := range w {
		w[k] = clamp01(v)
	}
	return w
}

// Scale multiplies every weight by factor in place and returns w. The result
// is clamped to [0,1].
func (w WeightSet) Scale(factor float64) WeightSet {
	for k, v := range w {
		w[k] = clamp01(v * factor)
	}
	return w
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
