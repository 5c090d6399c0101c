package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/generators"

	"github.com/jmylchreest/keyfx/internal/feedback"
)

// clickTone describes a synthesized key click.
type clickTone struct {
	freq     float64
	duration time.Duration
}

// Built-in clicks, lower and longer for the larger keys.
var clickTones = map[feedback.SoundVariant]clickTone{
	feedback.SoundStandard: {freq: 2000, duration: 18 * time.Millisecond},
	feedback.SoundDelete:   {freq: 1400, duration: 22 * time.Millisecond},
	feedback.SoundSpacebar: {freq: 1100, duration: 26 * time.Millisecond},
	feedback.SoundReturn:   {freq: 800, duration: 32 * time.Millisecond},
}

// clickKey is the cache key for a synthesized click.
func clickKey(variant feedback.SoundVariant) string {
	return "builtin:" + variant.String()
}

// synthesizeClick renders the built-in click for variant into a buffer.
func synthesizeClick(variant feedback.SoundVariant, sr beep.SampleRate) (*beep.Buffer, error) {
	tone, ok := clickTones[variant]
	if !ok {
		tone = clickTones[feedback.SoundStandard]
	}

	sine, err := generators.SineTone(sr, tone.freq)
	if err != nil {
		return nil, err
	}

	n := sr.N(tone.duration)
	buffer := beep.NewBuffer(beep.Format{SampleRate: sr, NumChannels: 2, Precision: 2})
	buffer.Append(&decay{Streamer: beep.Take(n, sine), total: n})
	return buffer, nil
}

// decay applies an exponential fade so the click has no audible tail.
type decay struct {
	beep.Streamer
	total int
	pos   int
}

func (d *decay) Stream(samples [][2]float64) (int, bool) {
	n, ok := d.Streamer.Stream(samples)
	for i := range samples[:n] {
		g := math.Exp(-5 * float64(d.pos) / float64(d.total))
		samples[i][0] *= g
		samples[i][1] *= g
		d.pos++
	}
	return n, ok
}
