package lipsync

import "math"

// Processor defaults. Tunable through the functional options below.
const (
	defaultMinVolume      = 0.01
	defaultResponsiveness = 0.7
	defaultMaxJawOpen     = 0.8

	// dropThreshold is the sparse-cleanup floor: a decaying control below it
	// is removed from the working set instead of lingering forever.
	dropThreshold = 0.01
)

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithMinVolume sets the RMS volume below which a window is treated as
// silence.
func WithMinVolume(v float64) ProcessorOption {
	return func(p *Processor) { p.minVolume = v }
}

// WithResponsiveness sets the per-frame smoothing factor in (0,1]. Higher
// values track the target faster; lower values glide.
func WithResponsiveness(r float64) ProcessorOption {
	return func(p *Processor) { p.responsiveness = r }
}

// WithMaxJawOpen caps the jaw-opening control after volume scaling.
func WithMaxJawOpen(m float64) ProcessorOption {
	return func(p *Processor) { p.maxJawOpen = m }
}

// Processor derives facial-control weights from raw PCM audio, one analysis
// window at a time. Samples must be float values in [-1,1] and arrive in time
// order; the processor carries smoothing state between calls.
//
// Viseme selection is a volume and zero-crossing-rate heuristic, not phoneme
// recognition. It trades accuracy for zero dependencies and real-time
// operation; when precomputed timing data exists, prefer [Track].
//
// Not safe for concurrent use. One Processor per audio stream.
type Processor struct {
	minVolume      float64
	responsiveness float64
	maxJawOpen     float64

	current       WeightSet
	currentViseme Viseme
	lastVolume    float64
	lastFrequency float64
}

// NewProcessor creates a Processor in the pure-silence state.
func NewProcessor(opts ...ProcessorOption) *Processor {
	p := &Processor{
		minVolume:      defaultMinVolume,
		responsiveness: defaultResponsiveness,
		maxJawOpen:     defaultMaxJawOpen,
		current:        make(WeightSet),
		currentViseme:  VisemeSil,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ProcessFrame analyses one window of samples at the given sample rate and
// returns the smoothed WeightSet for that frame. Every returned value lies in
// [0,1]. The returned set is a copy; callers may retain or mutate it.
func (p *Processor) ProcessFrame(samples []float64, sampleRate int) WeightSet {
	volume := rms(samples)
	frequency := 0.0
	if volume >= p.minVolume && len(samples) > 1 && sampleRate > 0 {
		frequency = dominantFrequency(samples, sampleRate)
	}

	viseme := p.classify(volume, frequency)
	target := TargetWeights(viseme)
	if jaw, ok := target[CtrlJawOpen]; ok {
		target[CtrlJawOpen] = math.Min(jaw*volume*3, p.maxJawOpen)
	}

	// Smooth tracked controls toward their targets, decay the rest.
	for name, want := range target {
		have := p.current[name]
		p.current[name] = have + (want-have)*p.responsiveness
	}
	for name, have := range p.current {
		if _, tracked := target[name]; tracked {
			continue
		}
		next := have * (1 - p.responsiveness)
		if next < dropThreshold {
			delete(p.current, name)
		} else {
			p.current[name] = next
		}
	}
	p.current.Clamp()

	p.currentViseme = viseme
	p.lastVolume = volume
	p.lastFrequency = frequency
	return p.current.Clone()
}

// classify maps a (volume, frequency) pair to a viseme. The cascade is a
// coarse approximation of articulation classes by spectral rough position.
func (p *Processor) classify(volume, frequency float64) Viseme {
	if volume < p.minVolume {
		return VisemeSil
	}
	switch {
	case frequency >= 3000 && volume < 0.1:
		return VisemeSS
	case frequency >= 3000:
		return VisemeFF
	case frequency >= 2000:
		return VisemeIH
	case frequency >= 1200:
		return VisemeE
	case frequency >= 700:
		return VisemeAA
	case frequency >= 400:
		return VisemeOH
	case frequency >= 200:
		return VisemeOU
	case frequency > 0:
		return VisemeNN
	}
	// Audible but no measurable crossings (e.g., DC offset): open vowel.
	return VisemeAA
}

// Reset returns the processor to pure silence, discarding all smoothing
// state.
func (p *Processor) Reset() {
	p.current = make(WeightSet)
	p.currentViseme = VisemeSil
	p.lastVolume = 0
	p.lastFrequency = 0
}

// CurrentViseme returns the viseme selected by the most recent frame.
func (p *Processor) CurrentViseme() Viseme { return p.currentViseme }

// LastVolume returns the RMS volume of the most recent frame.
func (p *Processor) LastVolume() float64 { return p.lastVolume }

// LastFrequency returns the zero-crossing frequency estimate of the most
// recent frame, or 0 for silent frames.
func (p *Processor) LastFrequency() float64 { return p.lastFrequency }

// rms computes root-mean-square amplitude over the window.
func rms(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// dominantFrequency estimates pitch from the zero-crossing rate:
// crossings * sampleRate / (2 * windowLength).
func dominantFrequency(samples []float64, sampleRate int) float64 {
	crossings := 0
	for i := 1; i < len(samples); i++ {
		if (samples[i-1] >= 0) != (samples[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) * float64(sampleRate) / (2 * float64(len(samples)))
}
