package speech

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// pcmWave is a parsed 16-bit PCM RIFF file. raw holds the full file;
// samples aliases the data chunk so edits write through.
type pcmWave struct {
	raw        []byte
	sampleRate int
	channels   int
	samples    []byte
}

func parseWave(data []byte) (*pcmWave, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF wave file")
	}

	w := &pcmWave{raw: data}
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if body+size > len(data) {
			return nil, fmt.Errorf("truncated %q chunk", id)
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("fmt chunk too small")
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			bits := binary.LittleEndian.Uint16(data[body+14 : body+16])
			if format != 1 || bits != 16 {
				return nil, fmt.Errorf("unsupported encoding: format %d, %d bits", format, bits)
			}
			w.channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			w.sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
		case "data":
			w.samples = data[body : body+size]
		}

		offset = body + size
		if size%2 == 1 {
			offset++ // chunks are word aligned
		}
	}

	if w.sampleRate == 0 || w.channels == 0 {
		return nil, fmt.Errorf("missing fmt chunk")
	}
	if len(w.samples) == 0 {
		return nil, fmt.Errorf("missing data chunk")
	}
	return w, nil
}

func (w *pcmWave) sample(i int) int16 {
	return int16(binary.LittleEndian.Uint16(w.samples[i*2 : i*2+2]))
}

func (w *pcmWave) setSample(i int, v int16) {
	binary.LittleEndian.PutUint16(w.samples[i*2:i*2+2], uint16(v))
}

func (w *pcmWave) sampleCount() int {
	return len(w.samples) / 2
}

// dBFS returns the RMS loudness relative to full scale. Silence maps
// to a very low floor rather than -Inf.
func (w *pcmWave) dBFS() float64 {
	n := w.sampleCount()
	if n == 0 {
		return -96
	}
	var sum float64
	for i := 0; i < n; i++ {
		s := float64(w.sample(i))
		sum += s * s
	}
	rms := math.Sqrt(sum / float64(n))
	if rms < 1 {
		return -96
	}
	return 20 * math.Log10(rms/32768)
}

func (w *pcmWave) applyGain(db float64) {
	factor := math.Pow(10, db/20)
	n := w.sampleCount()
	for i := 0; i < n; i++ {
		scaled := float64(w.sample(i)) * factor
		w.setSample(i, clampSample(scaled))
	}
}

// fade applies a linear ramp over the first (in=true) or last frames.
func (w *pcmWave) fade(d time.Duration, in bool) {
	frames := int(float64(w.sampleRate) * d.Seconds())
	total := w.sampleCount() / w.channels
	if frames > total {
		frames = total
	}
	if frames <= 0 {
		return
	}

	for f := 0; f < frames; f++ {
		ratio := float64(f+1) / float64(frames+1)
		frame := f
		if !in {
			ratio = 1 - ratio
			frame = total - frames + f
		}
		for ch := 0; ch < w.channels; ch++ {
			idx := frame*w.channels + ch
			w.setSample(idx, clampSample(float64(w.sample(idx))*ratio))
		}
	}
}

func clampSample(v float64) int16 {
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	default:
		return int16(v)
	}
}

// PrepareForPlayback normalizes a 16-bit PCM wave to the target
// loudness and applies short fades so playback starts and ends without
// clicks. The input slice is returned with samples rewritten in place.
func PrepareForPlayback(wav []byte, targetDBFS float64, fadeIn, fadeOut time.Duration) ([]byte, error) {
	w, err := parseWave(wav)
	if err != nil {
		return nil, err
	}
	w.applyGain(targetDBFS - w.dBFS())
	w.fade(fadeIn, true)
	w.fade(fadeOut, false)
	return w.raw, nil
}
