package audio

import (
	"fmt"

	"layeh.com/gopus"
)

// maxOpusFrameMs is the largest frame duration an Opus packet may carry.
const maxOpusFrameMs = 120

// OpusDecoder decodes an Opus packet stream into mono float samples. One
// decoder per stream; gopus keeps prediction state across consecutive
// packets, so packets must be fed in order.
type OpusDecoder struct {
	dec      *gopus.Decoder
	rate     int
	channels int
}

// NewOpusDecoder creates a decoder for the given stream format.
func NewOpusDecoder(f Format) (*OpusDecoder, error) {
	if f.Encoding != EncodingOpus {
		return nil, fmt.Errorf("audio: opus decoder requires opus format, got %s", f.Encoding)
	}
	channels := f.Channels
	if channels == 0 {
		channels = 1
	}
	dec, err := gopus.NewDecoder(f.SampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("audio: create opus decoder: %w", err)
	}
	return &OpusDecoder{dec: dec, rate: f.SampleRate, channels: channels}, nil
}

// Decode decodes one Opus packet into mono float samples in [-1,1]. Stereo
// streams are downmixed after decoding.
func (d *OpusDecoder) Decode(packet []byte) ([]float64, error) {
	frameSize := d.rate * maxOpusFrameMs / 1000
	pcm, err := d.dec.Decode(packet, frameSize, false)
	if err != nil {
		return nil, fmt.Errorf("audio: opus decode: %w", err)
	}
	samples := make([]float64, len(pcm))
	for i, s := range pcm {
		samples[i] = float64(s) / 32768
	}
	if d.channels == 2 {
		samples = DownmixStereo(samples)
	}
	return samples, nil
}

// SampleRate returns the decoder's output sample rate.
func (d *OpusDecoder) SampleRate() int { return d.rate }
