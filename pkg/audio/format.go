// Package audio decodes synthesis output into the float sample form the
// lip-sync layer consumes, and carries the small PCM utilities (resampling,
// downmix, windowing) that sit between the two.
package audio

import (
	"fmt"
	"strconv"
	"strings"
)

// Encoding identifies how audio bytes are packed.
type Encoding int

const (
	EncodingPCM16 Encoding = iota // little-endian signed 16-bit PCM
	EncodingOpus                  // Opus packets
)

// String returns the lowercase encoding name.
func (e Encoding) String() string {
	switch e {
	case EncodingPCM16:
		return "pcm"
	case EncodingOpus:
		return "opus"
	default:
		return "unknown"
	}
}

// Format describes the decoded shape of one audio stream.
type Format struct {
	Encoding   Encoding
	SampleRate int
	Channels   int
}

// ParseFormat resolves a synthesis output-format name such as "pcm_16000" or
// "opus_48000" into a Format. Synthesis streams are mono. Compressed formats
// other than Opus (e.g., mp3) are not decodable here and return an error.
func ParseFormat(name string) (Format, error) {
	base, rateStr, ok := strings.Cut(name, "_")
	if !ok {
		return Format{}, fmt.Errorf("audio: malformed format name %q", name)
	}
	rate, err := strconv.Atoi(rateStr)
	if err != nil || rate <= 0 {
		return Format{}, fmt.Errorf("audio: bad sample rate in format name %q", name)
	}
	switch base {
	case "pcm":
		return Format{Encoding: EncodingPCM16, SampleRate: rate, Channels: 1}, nil
	case "opus":
		return Format{Encoding: EncodingOpus, SampleRate: rate, Channels: 1}, nil
	default:
		return Format{}, fmt.Errorf("audio: unsupported format %q", name)
	}
}
