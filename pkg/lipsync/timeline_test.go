package lipsync

import (
	"math"
	"testing"
	"time"
)

func mustTrack(t *testing.T, entries []TimedViseme) Track {
	t.Helper()
	tr, err := NewTrack(entries)
	if err != nil {
		t.Fatalf("NewTrack: %v", err)
	}
	return tr
}

func TestNewTrack_Validation(t *testing.T) {
	if _, err := NewTrack([]TimedViseme{{Viseme: VisemeAA, StartMs: 0, DurationMs: -5}}); err == nil {
		t.Error("expected error for negative duration")
	}
	if _, err := NewTrack([]TimedViseme{
		{Viseme: VisemeAA, StartMs: 100, DurationMs: 50},
		{Viseme: VisemeE, StartMs: 0, DurationMs: 50},
	}); err == nil {
		t.Error("expected error for unsorted entries")
	}
	tr := mustTrack(t, []TimedViseme{{Viseme: VisemeAA, StartMs: 0, DurationMs: 100, Intensity: 5}})
	w := tr.WeightsAtTime(10, 0)
	if got := w.Get(CtrlJawOpen); got != visemeTargets[VisemeAA][CtrlJawOpen] {
		t.Errorf("jawOpen = %v, want intensity clamped to 1", got)
	}
}

func TestWeightsAtTime_OutsideTrackIsSilence(t *testing.T) {
	tr := mustTrack(t, []TimedViseme{
		{Viseme: VisemeAA, StartMs: 100, DurationMs: 200, Intensity: 1},
	})
	for _, tMs := range []float64{-50, 0, 99.9, 300, 1000} {
		w := tr.WeightsAtTime(tMs, DefaultSmoothingFraction)
		if w.Get("viseme_sil") != 1 || len(w) != 1 {
			t.Errorf("t=%v: weights = %v, want pure silence", tMs, w)
		}
	}
}

func TestWeightsAtTime_EmptyTrackIsSilence(t *testing.T) {
	var tr Track
	if w := tr.WeightsAtTime(0, DefaultSmoothingFraction); w.Get("viseme_sil") != 1 {
		t.Errorf("weights = %v, want pure silence", w)
	}
}

func TestWeightsAtTime_ScalesByIntensity(t *testing.T) {
	tr := mustTrack(t, []TimedViseme{
		{Viseme: VisemeAA, StartMs: 0, DurationMs: 100, Intensity: 0.5},
	})
	w := tr.WeightsAtTime(10, 0)
	want := visemeTargets[VisemeAA][CtrlJawOpen] * 0.5
	if got := w.Get(CtrlJawOpen); got != want {
		t.Errorf("jawOpen = %v, want %v", got, want)
	}
	if got := w.Get("viseme_aa"); got != 0.5 {
		t.Errorf("indicator = %v, want 0.5", got)
	}
}

func TestWeightsAtTime_GapBetweenIntervalsIsSilence(t *testing.T) {
	tr := mustTrack(t, []TimedViseme{
		{Viseme: VisemeAA, StartMs: 0, DurationMs: 100, Intensity: 1},
		{Viseme: VisemeE, StartMs: 500, DurationMs: 100, Intensity: 1},
	})
	if w := tr.WeightsAtTime(300, 0); w.Get("viseme_sil") != 1 {
		t.Errorf("weights in gap = %v, want silence", w)
	}
}

func TestWeightsAtTime_CrossfadeMidpoint(t *testing.T) {
	tr := mustTrack(t, []TimedViseme{
		{Viseme: VisemeAA, StartMs: 0, DurationMs: 200, Intensity: 1},
		{Viseme: VisemeOU, StartMs: 200, DurationMs: 200, Intensity: 1},
	})

	// smoothing 0.5 puts the tail window at [100,200); its midpoint is 150.
	w := tr.WeightsAtTime(150, 0.5)

	// jawOpen exists in both shapes with different targets; the blend must
	// land strictly between them.
	a := visemeTargets[VisemeAA][CtrlJawOpen]
	b := visemeTargets[VisemeOU][CtrlJawOpen]
	lo, hi := min(a, b), max(a, b)
	if got := w.Get(CtrlJawOpen); got <= lo || got >= hi {
		t.Errorf("jawOpen = %v, want strictly between %v and %v", got, lo, hi)
	}

	// Both indicators are half-active at the midpoint.
	if got := w.Get("viseme_aa"); got != 0.5 {
		t.Errorf("viseme_aa = %v, want 0.5", got)
	}
	if got := w.Get("viseme_ou"); got != 0.5 {
		t.Errorf("viseme_ou = %v, want 0.5", got)
	}
}

func TestWeightsAtTime_NoBlendBeforeTailWindow(t *testing.T) {
	tr := mustTrack(t, []TimedViseme{
		{Viseme: VisemeAA, StartMs: 0, DurationMs: 200, Intensity: 1},
		{Viseme: VisemeOU, StartMs: 200, DurationMs: 200, Intensity: 1},
	})
	w := tr.WeightsAtTime(50, 0.5)
	if got := w.Get("viseme_ou"); got != 0 {
		t.Errorf("viseme_ou before tail window = %v, want 0", got)
	}
	if got := w.Get("viseme_aa"); got != 1 {
		t.Errorf("viseme_aa = %v, want 1", got)
	}
}

func TestWeightsAtTime_LastIntervalDoesNotBlend(t *testing.T) {
	tr := mustTrack(t, []TimedViseme{
		{Viseme: VisemeAA, StartMs: 0, DurationMs: 100, Intensity: 1},
	})
	w := tr.WeightsAtTime(95, 0.5)
	if got := w.Get("viseme_aa"); got != 1 {
		t.Errorf("viseme_aa near end of final interval = %v, want 1", got)
	}
}

func TestTrackFromAlignment(t *testing.T) {
	// "ma " with per-character timing; trailing space becomes silence.
	tr, err := TrackFromAlignment(
		[]string{"m", "a", " "},
		[]int{0, 80, 200},
		[]int{80, 120, 50},
	)
	if err != nil {
		t.Fatalf("TrackFromAlignment: %v", err)
	}
	if tr.Len() != 3 {
		t.Fatalf("len = %d, want 3", tr.Len())
	}
	if w := tr.WeightsAtTime(40, 0); w.Get("viseme_PP") != 1 {
		t.Errorf("t=40: weights = %v, want PP", w)
	}
	if w := tr.WeightsAtTime(150, 0); w.Get("viseme_aa") != 1 {
		t.Errorf("t=150: weights = %v, want aa", w)
	}
	if w := tr.WeightsAtTime(220, 0); w.Get("viseme_sil") != 1 {
		t.Errorf("t=220: weights = %v, want sil", w)
	}
}

func TestTrackFromAlignment_MergesRepeatedVisemes(t *testing.T) {
	tr, err := TrackFromAlignment(
		[]string{"m", "m", "a"},
		[]int{0, 50, 100},
		[]int{50, 50, 100},
	)
	if err != nil {
		t.Fatalf("TrackFromAlignment: %v", err)
	}
	if tr.Len() != 2 {
		t.Errorf("len = %d, want 2 (repeated PP merged)", tr.Len())
	}
	if tr.DurationMs() != 200 {
		t.Errorf("duration = %v, want 200", tr.DurationMs())
	}
}

func TestTrackFromAlignment_LengthMismatch(t *testing.T) {
	if _, err := TrackFromAlignment([]string{"a"}, []int{0, 1}, []int{10}); err == nil {
		t.Error("expected error for mismatched slice lengths")
	}
}

func TestTrackFromText(t *testing.T) {
	tr, err := TrackFromText("this", time.Second)
	if err != nil {
		t.Fatalf("TrackFromText: %v", err)
	}
	// "th" digraph + i + s: three intervals across 1000ms.
	if tr.Len() != 3 {
		t.Fatalf("len = %d, want 3", tr.Len())
	}
	if w := tr.WeightsAtTime(10, 0); w.Get("viseme_TH") != 1 {
		t.Errorf("t=10: weights = %v, want TH", w)
	}
	if d := tr.DurationMs(); math.Abs(d-1000) > 1e-6 {
		t.Errorf("duration = %v, want 1000", d)
	}
}

func TestTrackFromText_Empty(t *testing.T) {
	tr, err := TrackFromText("", time.Second)
	if err != nil {
		t.Fatalf("TrackFromText: %v", err)
	}
	if tr.Len() != 0 {
		t.Errorf("len = %d, want 0", tr.Len())
	}
}
