package audio

import (
	"math"
	"testing"
)

func TestSamples_RoundTrip(t *testing.T) {
	in := []float64{0, 0.5, -0.5, 0.999, -1, 1}
	got := Samples(PCM16(in))
	if len(got) != len(in) {
		t.Fatalf("len = %d, want %d", len(got), len(in))
	}
	for i := range in {
		if math.Abs(got[i]-in[i]) > 1.0/32767 {
			t.Errorf("sample %d = %v, want ~%v", i, got[i], in[i])
		}
	}
}

func TestPCM16_ClampsOutOfRange(t *testing.T) {
	pcm := PCM16([]float64{2, -2})
	got := Samples(pcm)
	if got[0] < 0.99 || got[0] > 1 {
		t.Errorf("clamped positive = %v", got[0])
	}
	if got[1] > -0.99 || got[1] < -1 {
		t.Errorf("clamped negative = %v", got[1])
	}
}

func TestSamples_IgnoresTrailingOddByte(t *testing.T) {
	if got := Samples([]byte{0x00, 0x40, 0x7f}); len(got) != 1 {
		t.Errorf("len = %d, want 1", len(got))
	}
}

func TestDownmixStereo(t *testing.T) {
	got := DownmixStereo([]float64{1, 0, -0.5, 0.5, 0.2, 0.4})
	want := []float64{0.5, 0, 0.3}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("frame %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestResample_Identity(t *testing.T) {
	in := []float64{0.1, 0.2, 0.3}
	if got := Resample(in, 16000, 16000); len(got) != 3 {
		t.Errorf("same-rate resample changed length: %d", len(got))
	}
}

func TestResample_Downsample(t *testing.T) {
	// Constant signal survives any rate change exactly.
	in := make([]float64, 480)
	for i := range in {
		in[i] = 0.25
	}
	got := Resample(in, 48000, 16000)
	if len(got) != 160 {
		t.Fatalf("len = %d, want 160", len(got))
	}
	for i, s := range got {
		if math.Abs(s-0.25) > 1e-12 {
			t.Fatalf("sample %d = %v, want 0.25", i, s)
		}
	}
}

func TestResample_UpsampleInterpolates(t *testing.T) {
	got := Resample([]float64{0, 1}, 8000, 16000)
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}
	if got[1] != 0.5 {
		t.Errorf("interpolated sample = %v, want 0.5", got[1])
	}
}

func TestWindows(t *testing.T) {
	samples := make([]float64, 600)
	wins := Windows(samples, 256)
	if len(wins) != 3 {
		t.Fatalf("windows = %d, want 3", len(wins))
	}
	if len(wins[0]) != 256 || len(wins[1]) != 256 || len(wins[2]) != 88 {
		t.Errorf("window sizes = %d/%d/%d, want 256/256/88", len(wins[0]), len(wins[1]), len(wins[2]))
	}
	if Windows(nil, 256) != nil {
		t.Error("expected nil for empty input")
	}
	if Windows(samples, 0) != nil {
		t.Error("expected nil for zero window size")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"pcm_16000", Format{Encoding: EncodingPCM16, SampleRate: 16000, Channels: 1}, false},
		{"pcm_44100", Format{Encoding: EncodingPCM16, SampleRate: 44100, Channels: 1}, false},
		{"opus_48000", Format{Encoding: EncodingOpus, SampleRate: 48000, Channels: 1}, false},
		{"mp3_44100", Format{}, true},
		{"pcm", Format{}, true},
		{"pcm_abc", Format{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("format = %+v, want %+v", got, tt.want)
			}
		})
	}
}
