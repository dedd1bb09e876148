package terminal

import (
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"github.com/wricardo/mcp-training/coincraze/pkg/logger"
)

// Tone is a short feedback sound
type Tone int

const (
	ToneSuccess Tone = iota
	ToneFailure
	ToneLevelUp
)

const sampleRate = beep.SampleRate(44100)

// Player plays feedback tones
type Player interface {
	Play(tone Tone)
}

type note struct {
	freq     float64
	duration time.Duration
}

var tones = map[Tone][]note{
	ToneSuccess: {{660, 70 * time.Millisecond}, {880, 90 * time.Millisecond}},
	ToneFailure: {{220, 160 * time.Millisecond}},
	ToneLevelUp: {{523.25, 90 * time.Millisecond}, {659.25, 90 * time.Millisecond}, {783.99, 90 * time.Millisecond}, {1046.5, 180 * time.Millisecond}},
}

// toneStreamer builds the sine sequence for a tone at a quarter volume
func toneStreamer(rate beep.SampleRate, tone Tone) (beep.Streamer, error) {
	notes := tones[tone]
	parts := make([]beep.Streamer, 0, len(notes))
	for _, n := range notes {
		sine, err := generators.SineTone(rate, n.freq)
		if err != nil {
			return nil, err
		}
		parts = append(parts, beep.Take(rate.N(n.duration), sine))
	}

	return &effects.Volume{
		Streamer: beep.Seq(parts...),
		Base:     2,
		Volume:   -2,
	}, nil
}

// Speaker plays tones on the default audio device. Without a device it
// stays silent.
type Speaker struct {
	rate    beep.SampleRate
	enabled bool
}

// NewSpeaker initializes the audio device. Failure is not fatal.
func NewSpeaker() *Speaker {
	s := &Speaker{rate: sampleRate}
	if err := speaker.Init(s.rate, s.rate.N(time.Second/10)); err != nil {
		logger.Log.WithError(err).Warn("Audio initialization failed, playing without sound")
		return s
	}
	s.enabled = true
	return s
}

// Enabled reports whether an audio device is available
func (s *Speaker) Enabled() bool {
	return s.enabled
}

// Play queues a tone without blocking
func (s *Speaker) Play(tone Tone) {
	if !s.enabled {
		return
	}
	streamer, err := toneStreamer(s.rate, tone)
	if err != nil {
		logger.Log.WithError(err).Debug("Failed to build tone")
		return
	}
	speaker.Play(streamer)
}

// Close releases the audio device
func (s *Speaker) Close() {
	if s.enabled {
		speaker.Close()
	}
}
