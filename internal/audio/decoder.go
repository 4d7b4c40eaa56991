package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Decoder runs FFmpeg to turn any supported audio file into raw PCM.
type Decoder struct {
	ffmpeg     string
	sampleRate int
	channels   int
}

// NewDecoder creates a decoder that outputs interleaved stereo at 48kHz.
func NewDecoder(ffmpegPath string) *Decoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Decoder{ffmpeg: ffmpegPath, sampleRate: SampleRate, channels: Channels}
}

// Load decodes path into a Buffer at the decoder's sample rate and channel count.
func (d *Decoder) Load(ctx context.Context, path string) (*Buffer, error) {
	out, err := d.run(ctx, path, "s16le", d.sampleRate, d.channels, 0)
	if err != nil {
		return nil, err
	}

	// Ensure even byte count for int16 alignment
	if len(out)%2 != 0 {
		out = out[:len(out)-1]
	}

	samples := make([]int16, len(out)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(out[i*2 : i*2+2]))
	}
	return NewBuffer(samples, d.sampleRate, d.channels), nil
}

// LoadMono decodes path to mono float64 samples in [-1,1] at sampleRate for
// analysis. A positive limit stops decoding after that much audio.
func (d *Decoder) LoadMono(ctx context.Context, path string, sampleRate int, limit time.Duration) ([]float64, error) {
	out, err := d.run(ctx, path, "f64le", sampleRate, 1, limit)
	if err != nil {
		return nil, err
	}

	samples := make([]float64, len(out)/8)
	for i := range samples {
		samples[i] = math.Float64frombits(binary.LittleEndian.Uint64(out[i*8 : i*8+8]))
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("decode %s: no audio samples", path)
	}
	return samples, nil
}

func (d *Decoder) run(ctx context.Context, path, format string, sampleRate, channels int, limit time.Duration) ([]byte, error) {
	args := []string{"-hide_banner", "-i", path}
	if limit > 0 {
		args = append(args, "-t", strconv.FormatFloat(limit.Seconds(), 'f', 3, 64))
	}
	args = append(args,
		"-vn",
		"-f", format,
		"-ar", strconv.Itoa(sampleRate),
		"-ac", strconv.Itoa(channels),
		"-loglevel", "error",
		"pipe:1",
	)

	out, err := exec.CommandContext(ctx, d.ffmpeg, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("ffmpeg decode %s: %w: %s", path, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("ffmpeg decode %s: %w", path, err)
	}
	return out, nil
}

// SamplesToBytes converts int16 samples to little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}
