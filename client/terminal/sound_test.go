package terminal

import (
	"math"
	"testing"
)

func TestToneStreamer(t *testing.T) {
	for _, tone := range []Tone{ToneSuccess, ToneFailure, ToneLevelUp} {
		streamer, err := toneStreamer(sampleRate, tone)
		if err != nil {
			t.Fatalf("tone %d: %v", tone, err)
		}

		want := 0
		for _, n := range tones[tone] {
			want += sampleRate.N(n.duration)
		}

		buf := make([][2]float64, 512)
		total := 0
		for i := 0; i < 10000; i++ {
			n, ok := streamer.Stream(buf)
			for j := 0; j < n; j++ {
				for _, v := range buf[j] {
					// quarter volume
					if math.Abs(v) > 0.25+1e-9 {
						t.Fatalf("tone %d: sample %d out of range: %f", tone, total+j, v)
					}
				}
			}
			total += n
			if !ok {
				break
			}
		}

		if total != want {
			t.Errorf("tone %d: expected %d samples, got %d", tone, want, total)
		}
	}
}

func TestSilentSpeaker(t *testing.T) {
	s := &Speaker{rate: sampleRate}
	if s.Enabled() {
		t.Error("Expected a speaker without a device to be disabled")
	}

	// No device: both are no-ops
	s.Play(ToneSuccess)
	s.Close()
}
