package terminal

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/vorbis"
)

const chimeSampleRate = beep.SampleRate(44100)

// Chime plays a short sound when a round is won: a loaded OGG Vorbis clip,
// or two generated notes. A Chime whose speaker failed to open is silent.
type Chime struct {
	mu      sync.Mutex
	enabled bool
	clip    *beep.Buffer // decoded winner sound, nil = generated notes
}

// NewChime opens the speaker. The error is informational: the returned Chime
// is always usable.
func NewChime() (*Chime, error) {
	c := &Chime{}
	if err := speaker.Init(chimeSampleRate, chimeSampleRate.N(time.Second/10)); err != nil {
		return c, err
	}
	c.enabled = true
	return c, nil
}

// LoadSound decodes an OGG Vorbis file into memory and uses it instead of
// the generated notes. Clips are resampled to the speaker rate.
func (c *Chime) LoadSound(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open sound: %w", err)
	}

	streamer, format, err := vorbis.Decode(file)
	if err != nil {
		file.Close()
		return fmt.Errorf("decode sound: %w", err)
	}
	defer streamer.Close()

	var src beep.Streamer = streamer
	if format.SampleRate != chimeSampleRate {
		src = beep.Resample(4, format.SampleRate, chimeSampleRate, streamer)
	}

	clip := beep.NewBuffer(beep.Format{SampleRate: chimeSampleRate, NumChannels: 2, Precision: 2})
	clip.Append(src)
	if err := streamer.Err(); err != nil {
		return fmt.Errorf("decode sound: %w", err)
	}

	c.mu.Lock()
	c.clip = clip
	c.mu.Unlock()

	log.Printf("🔔 Winner sound loaded: %s (%d Hz source)", path, format.SampleRate)
	return nil
}

// Play queues the chime without blocking
func (c *Chime) Play() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}

	if c.clip != nil {
		speaker.Play(c.clip.Streamer(0, c.clip.Len()))
		return
	}

	low, err := generators.SineTone(chimeSampleRate, 660)
	if err != nil {
		return
	}
	high, err := generators.SineTone(chimeSampleRate, 880)
	if err != nil {
		return
	}

	note := chimeSampleRate.N(120 * time.Millisecond)
	seq := beep.Seq(beep.Take(note, low), beep.Take(note, high))
	speaker.Play(&effects.Gain{Streamer: seq, Gain: -0.7})
}

// Close releases the speaker
func (c *Chime) Close() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enabled {
		speaker.Close()
		c.enabled = false
	}
}
