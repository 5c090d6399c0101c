package audio

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// DefaultSampleRate is used for synthesized clicks and speaker setup
// when no sound file has been decoded yet.
const DefaultSampleRate = beep.SampleRate(44100)

// Player decodes, caches and plays short sound buffers.
type Player struct {
	mu     sync.Mutex
	logger *slog.Logger

	// Whether speaker has been initialized
	initialized bool
	sampleRate  beep.SampleRate

	// Sound cache keyed by file path or synthetic click name
	cache      map[string]*beep.Buffer
	cacheMutex sync.RWMutex

	// Output hooks, replaced in tests
	initSpeaker func(sr beep.SampleRate, bufferSize int) error
	output      func(s beep.Streamer)
	closeOutput func()
}

// NewPlayer creates a new audio player backed by the system speaker.
func NewPlayer(logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}

	return &Player{
		logger:      logger,
		sampleRate:  DefaultSampleRate,
		cache:       make(map[string]*beep.Buffer),
		initSpeaker: speaker.Init,
		output:      func(s beep.Streamer) { speaker.Play(s) },
		closeOutput: speaker.Close,
	}
}

// Load returns the decoded buffer for path, loading and caching it on first use.
// Supports WAV, OGG, and MP3 formats.
func (p *Player) Load(path string) (*beep.Buffer, error) {
	p.cacheMutex.RLock()
	buffer, ok := p.cache[path]
	p.cacheMutex.RUnlock()
	if ok {
		return buffer, nil
	}

	buffer, err := p.decodeFile(path)
	if err != nil {
		return nil, err
	}

	p.store(path, buffer)
	p.logger.Debug("loaded sound", "path", path)
	return buffer, nil
}

// store caches a prepared buffer under key.
func (p *Player) store(key string, buffer *beep.Buffer) {
	p.cacheMutex.Lock()
	p.cache[key] = buffer
	p.cacheMutex.Unlock()
}

// cached returns the buffer cached under key.
func (p *Player) cached(key string) (*beep.Buffer, bool) {
	p.cacheMutex.RLock()
	defer p.cacheMutex.RUnlock()
	buffer, ok := p.cache[key]
	return buffer, ok
}

// decodeFile loads and decodes a sound file into a buffer.
func (p *Player) decodeFile(path string) (*beep.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sound file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var streamer beep.StreamSeekCloser
	var format beep.Format

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".ogg", ".oga":
		streamer, format, err = vorbis.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode sound: %w", err)
	}
	defer func() { _ = streamer.Close() }()

	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)
	return buffer, nil
}

// ensureInitialized initializes the speaker if not already done.
func (p *Player) ensureInitialized(sampleRate beep.SampleRate) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}

	// Key clicks need low latency more than glitch resistance
	bufferSize := sampleRate.N(30 * time.Millisecond)

	if err := p.initSpeaker(sampleRate, bufferSize); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}

	p.sampleRate = sampleRate
	p.initialized = true
	p.logger.Debug("speaker initialized", "sample_rate", sampleRate)
	return nil
}

// PlayBuffer plays a buffered sound at volume (0.0 to 1.0).
func (p *Player) PlayBuffer(buffer *beep.Buffer, volume float64) error {
	if buffer == nil || volume <= 0 {
		return nil
	}

	if err := p.ensureInitialized(buffer.Format().SampleRate); err != nil {
		return err
	}

	p.mu.Lock()
	sampleRate := p.sampleRate
	p.mu.Unlock()

	var streamer beep.Streamer = buffer.Streamer(0, buffer.Len())

	if buffer.Format().SampleRate != sampleRate {
		streamer = beep.Resample(4, buffer.Format().SampleRate, sampleRate, streamer)
	}

	if volume < 1.0 {
		streamer = &effects.Volume{
			Streamer: streamer,
			Base:     10,
			Volume:   volumeToDecibels(volume) / 20,
		}
	}

	p.output(streamer)
	return nil
}

// Invalidate removes a specific key from the cache.
func (p *Player) Invalidate(key string) {
	p.cacheMutex.Lock()
	defer p.cacheMutex.Unlock()
	delete(p.cache, key)
}

// ClearCache clears the sound cache.
func (p *Player) ClearCache() {
	p.cacheMutex.Lock()
	defer p.cacheMutex.Unlock()
	p.cache = make(map[string]*beep.Buffer)
	p.logger.Debug("sound cache cleared")
}

// Close stops all playback and releases resources.
func (p *Player) Close() {
	p.mu.Lock()
	if p.initialized {
		p.closeOutput()
		p.initialized = false
	}
	p.mu.Unlock()

	p.ClearCache()
	p.logger.Debug("audio player closed")
}

// volumeToDecibels converts a linear volume (0-1) to decibels.
// 0.5 is about -6dB, 0.25 about -12dB.
func volumeToDecibels(volume float64) float64 {
	if volume <= 0 {
		return -100
	}
	return 20 * math.Log10(volume)
}
