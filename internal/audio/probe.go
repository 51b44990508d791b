package audio

import (
	"bytes"
	"fmt"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

// go-mp3 always decodes to 16-bit stereo.
const bytesPerSample = 4

// Probe returns the playing time of an MP3 payload.
func Probe(data []byte) (time.Duration, error) {
	d, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("decode mp3: %w", err)
	}
	n := d.Length()
	if n <= 0 || d.SampleRate() <= 0 {
		return 0, fmt.Errorf("decode mp3: unknown length")
	}
	samples := n / bytesPerSample
	return time.Duration(samples) * time.Second / time.Duration(d.SampleRate()), nil
}
