package audio

import "math"

// Samples decodes little-endian int16 PCM bytes into float samples in [-1,1].
// A trailing odd byte is ignored.
func Samples(pcm []byte) []float64 {
	n := len(pcm) / 2
	out := make([]float64, n)
	for i := range n {
		s := int16(pcm[i*2]) | int16(pcm[i*2+1])<<8
		out[i] = float64(s) / 32768
	}
	return out
}

// PCM16 encodes float samples into little-endian int16 PCM bytes, clamping
// anything outside [-1,1]. The scale factor matches Samples (32768) and
// values are rounded, so a round trip stays within half a quantisation step;
// full scale positive saturates at 32767.
func PCM16(samples []float64) []byte {
	out := make([]byte, len(samples)*2)
	for i, f := range samples {
		if f > 1 {
			f = 1
		} else if f < -1 {
			f = -1
		}
		v := math.Round(f * 32768)
		if v > 32767 {
			v = 32767
		}
		s := int16(v)
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out
}

// DownmixStereo averages interleaved L/R sample pairs into mono. A trailing
// unpaired sample is ignored.
func DownmixStereo(samples []float64) []float64 {
	frames := len(samples) / 2
	out := make([]float64, frames)
	for i := range frames {
		out[i] = (samples[i*2] + samples[i*2+1]) / 2
	}
	return out
}

// Resample converts mono float samples from srcRate to dstRate using linear
// interpolation. The input is returned unchanged when the rates already match
// or either rate is invalid.
func Resample(samples []float64, srcRate, dstRate int) []float64 {
	if srcRate <= 0 || dstRate <= 0 || srcRate == dstRate || len(samples) < 2 {
		return samples
	}
	dstLen := int(int64(len(samples)) * int64(dstRate) / int64(srcRate))
	if dstLen == 0 {
		return nil
	}

	out := make([]float64, dstLen)
	ratio := float64(srcRate) / float64(dstRate)
	for i := range dstLen {
		pos := float64(i) * ratio
		idx := int(pos)
		frac := pos - float64(idx)

		s0 := samples[idx]
		s1 := s0
		if idx+1 < len(samples) {
			s1 = samples[idx+1]
		}
		out[i] = s0*(1-frac) + s1*frac
	}
	return out
}

// Windows splits samples into consecutive analysis windows of the given size.
// The returned slices alias the input. A shorter final window is included so
// no samples are dropped.
func Windows(samples []float64, size int) [][]float64 {
	if size <= 0 || len(samples) == 0 {
		return nil
	}
	out := make([][]float64, 0, (len(samples)+size-1)/size)
	for start := 0; start < len(samples); start += size {
		end := min(start+size, len(samples))
		out = append(out, samples[start:end])
	}
	return out
}
