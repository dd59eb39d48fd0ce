package lipsync

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
)

// DefaultSmoothingFraction is the share of each interval's tail used for
// crossfading into the next viseme.
const DefaultSmoothingFraction = 0.3

// TimedViseme is one element of a precomputed animation track: a viseme held
// for a time span at a given intensity.
type TimedViseme struct {
	Viseme     Viseme
	StartMs    float64
	DurationMs float64
	Intensity  float64
}

// end returns the exclusive end of the interval.
func (tv TimedViseme) end() float64 { return tv.StartMs + tv.DurationMs }

// Track is an ordered, immutable sequence of TimedVisemes. Construct with
// [NewTrack] or one of the builders; read with [Track.WeightsAtTime]. Safe
// for concurrent reads.
type Track struct {
	entries []TimedViseme
}

// NewTrack validates and wraps a viseme sequence. Entries must be sorted by
// start time and have non-negative durations; intensities outside [0,1] are
// clamped.
func NewTrack(entries []TimedViseme) (Track, error) {
	for i, e := range entries {
		if e.DurationMs < 0 {
			return Track{}, fmt.Errorf("lipsync: entry %d has negative duration %v", i, e.DurationMs)
		}
		if i > 0 && e.StartMs < entries[i-1].StartMs {
			return Track{}, fmt.Errorf("lipsync: entry %d starts at %v, before previous start %v", i, e.StartMs, entries[i-1].StartMs)
		}
	}
	owned := make([]TimedViseme, len(entries))
	copy(owned, entries)
	for i := range owned {
		owned[i].Intensity = clamp01(owned[i].Intensity)
	}
	return Track{entries: owned}, nil
}

// Len returns the number of entries in the track.
func (tr Track) Len() int { return len(tr.entries) }

// DurationMs returns the end time of the last interval, or 0 for an empty
// track.
func (tr Track) DurationMs() float64 {
	if len(tr.entries) == 0 {
		return 0
	}
	return tr.entries[len(tr.entries)-1].end()
}

// WeightsAtTime returns the facial-control weights for playback time tMs.
// Within an interval the viseme's target weights are scaled by its intensity;
// inside the trailing smoothingFraction of the interval they blend linearly
// toward the next entry so boundaries crossfade instead of popping. Before
// the first interval or after the last, the result is pure silence.
func (tr Track) WeightsAtTime(tMs, smoothingFraction float64) WeightSet {
	i := tr.indexAt(tMs)
	if i < 0 {
		return Silence()
	}
	cur := tr.entries[i]
	weights := TargetWeights(cur.Viseme).Scale(cur.Intensity)

	if smoothingFraction <= 0 || i+1 >= len(tr.entries) || cur.DurationMs == 0 {
		return weights
	}
	tailStart := cur.end() - cur.DurationMs*smoothingFraction
	if tMs < tailStart {
		return weights
	}
	progress := (tMs - tailStart) / (cur.DurationMs * smoothingFraction)
	progress = clamp01(progress)

	next := tr.entries[i+1]
	target := TargetWeights(next.Viseme).Scale(next.Intensity)
	for name, v := range target {
		weights[name] = weights[name]*(1-progress) + v*progress
	}
	for name, v := range weights {
		if _, ok := target[name]; !ok {
			weights[name] = v * (1 - progress)
		}
	}
	return weights.Clamp()
}

// indexAt returns the index of the entry whose interval contains tMs, or -1.
// Binary search over start times; ties between overlapping entries resolve to
// the latest-starting one, matching original ordering.
func (tr Track) indexAt(tMs float64) int {
	n := len(tr.entries)
	i := sort.Search(n, func(j int) bool { return tr.entries[j].StartMs > tMs }) - 1
	if i < 0 {
		return -1
	}
	if tMs >= tr.entries[i].end() {
		return -1
	}
	return i
}

// TrackFromAlignment builds a Track from per-character timing data as
// returned by the synthesis service: parallel slices of characters, start
// times, and durations in milliseconds. Characters map to visemes through a
// coarse letter table; whitespace and punctuation become silence. Adjacent
// characters sharing a viseme merge into one interval.
func TrackFromAlignment(chars []string, startTimesMs, durationsMs []int) (Track, error) {
	if len(chars) != len(startTimesMs) || len(chars) != len(durationsMs) {
		return Track{}, fmt.Errorf("lipsync: alignment slice lengths differ: %d chars, %d starts, %d durations",
			len(chars), len(startTimesMs), len(durationsMs))
	}
	var entries []TimedViseme
	for i, ch := range chars {
		v := charToViseme(ch)
		start := float64(startTimesMs[i])
		dur := float64(durationsMs[i])
		if n := len(entries); n > 0 && entries[n-1].Viseme == v {
			entries[n-1].DurationMs = start + dur - entries[n-1].StartMs
			continue
		}
		entries = append(entries, TimedViseme{Viseme: v, StartMs: start, DurationMs: dur, Intensity: 1})
	}
	return NewTrack(entries)
}

// TrackFromText builds an estimated Track by distributing total evenly over
// the letters of text. A rough stand-in for when no alignment data exists;
// digraphs like "th" and "ch" are recognised before single letters.
func TrackFromText(text string, total time.Duration) (Track, error) {
	visemes := textToVisemes(text)
	if len(visemes) == 0 {
		return Track{}, nil
	}
	step := float64(total.Milliseconds()) / float64(len(visemes))
	entries := make([]TimedViseme, 0, len(visemes))
	for i, v := range visemes {
		if n := len(entries); n > 0 && entries[n-1].Viseme == v {
			entries[n-1].DurationMs += step
			continue
		}
		entries = append(entries, TimedViseme{
			Viseme:     v,
			StartMs:    float64(i) * step,
			DurationMs: step,
			Intensity:  1,
		})
	}
	return NewTrack(entries)
}

// textToVisemes maps text to a viseme per letter, digraphs first.
func textToVisemes(text string) []Viseme {
	lower := strings.ToLower(text)
	var out []Viseme
	for i := 0; i < len(lower); i++ {
		if i+1 < len(lower) {
			if v, ok := charVisemes[lower[i:i+2]]; ok {
				out = append(out, v)
				i++
				continue
			}
		}
		out = append(out, charToViseme(lower[i:i+1]))
	}
	return out
}

// charToViseme maps one character to its viseme; anything unmapped (spaces,
// punctuation, digits) is silence.
func charToViseme(ch string) Viseme {
	lower := strings.ToLower(ch)
	if v, ok := charVisemes[lower]; ok {
		return v
	}
	for _, r := range lower {
		if unicode.IsLetter(r) {
			return VisemeAA
		}
	}
	return VisemeSil
}
