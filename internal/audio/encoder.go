package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4/pkg/media/oggwriter"
	"gopkg.in/hraban/opus.v2"
)

// Formats lists the export formats Encoder understands.
var Formats = []string{"mp3", "flac", "wav", "opus"}

var ffmpegCodecs = map[string]string{
	"mp3":  "libmp3lame",
	"flac": "flac",
	"wav":  "pcm_s16le",
}

// Encoder writes a Buffer to a compressed file.
type Encoder struct {
	ffmpeg  string
	format  string
	bitrate string
}

// NewEncoder creates an encoder for format at bitrate (e.g. "320k").
func NewEncoder(ffmpegPath, format, bitrate string) (*Encoder, error) {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if _, ok := ffmpegCodecs[format]; !ok && format != "opus" {
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
	return &Encoder{ffmpeg: ffmpegPath, format: format, bitrate: bitrate}, nil
}

// Export encodes b into path.
func (e *Encoder) Export(ctx context.Context, b *Buffer, path string) error {
	if b.Len() == 0 {
		return fmt.Errorf("export %s: empty buffer", path)
	}
	if e.format == "opus" {
		return e.exportOpus(b, path)
	}

	// PCM stdin -> encoded file
	args := []string{
		"-y",
		"-f", "s16le",
		"-ar", strconv.Itoa(b.SampleRate),
		"-ac", strconv.Itoa(b.Channels),
		"-i", "pipe:0",
		"-codec:a", ffmpegCodecs[e.format],
	}
	if e.format == "mp3" && e.bitrate != "" {
		args = append(args, "-b:a", e.bitrate)
	}
	args = append(args, "-f", e.format, "-loglevel", "error", path)

	cmd := exec.CommandContext(ctx, e.ffmpeg, args...)
	cmd.Stdin = bytes.NewReader(SamplesToBytes(b.Samples))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("ffmpeg encode %s: %w: %s", path, err, msg)
		}
		return fmt.Errorf("ffmpeg encode %s: %w", path, err)
	}
	return nil
}

// exportOpus encodes 20ms Opus packets and writes them into an Ogg container.
func (e *Encoder) exportOpus(b *Buffer, path string) error {
	if b.SampleRate != SampleRate {
		return fmt.Errorf("opus export needs %dHz audio, got %dHz", SampleRate, b.SampleRate)
	}
	bitrate, err := ParseBitrate(e.bitrate)
	if err != nil {
		return err
	}

	enc, err := opus.NewEncoder(b.SampleRate, b.Channels, opus.AppAudio)
	if err != nil {
		return fmt.Errorf("opus encoder: %w", err)
	}
	if bitrate > 0 {
		if err := enc.SetBitrate(min(bitrate, 510000)); err != nil {
			return fmt.Errorf("opus bitrate: %w", err)
		}
	}

	w, err := oggwriter.New(path, uint32(b.SampleRate), uint16(b.Channels))
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	frameSamples := FrameSize * b.Channels
	frame := make([]int16, frameSamples)
	opusBuf := make([]byte, 4000)
	var seq uint16
	var ts uint32

	for pos := 0; pos < len(b.Samples); pos += frameSamples {
		n := copy(frame, b.Samples[pos:min(pos+frameSamples, len(b.Samples))])
		clear(frame[n:]) // pad the final partial frame

		size, err := enc.Encode(frame, opusBuf)
		if err != nil {
			w.Close()
			return fmt.Errorf("opus encode: %w", err)
		}
		pkt := &rtp.Packet{
			Header:  rtp.Header{Version: 2, SequenceNumber: seq, Timestamp: ts},
			Payload: opusBuf[:size],
		}
		if err := w.WriteRTP(pkt); err != nil {
			w.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
		seq++
		ts += FrameSize
	}
	return w.Close()
}

// ParseBitrate turns "320k", "128000" or "" into bits per second (0 = encoder default).
func ParseBitrate(s string) (int, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, nil
	}
	mult := 1
	if strings.HasSuffix(s, "k") {
		mult = 1000
		s = strings.TrimSuffix(s, "k")
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid bitrate %q", s)
	}
	return n * mult, nil
}
