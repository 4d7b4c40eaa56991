package stream

import (
	"context"
	"io"
	"net/http"
	"os/exec"
	"strconv"

	"github.com/pion/logging"

	"github.com/satindergrewal/smoothdj/internal/audio"
)

// HTTPHandler serves the playing mix as a chunked MP3 stream.
// Each connection spawns an FFmpeg process to encode PCM -> MP3 in real-time.
type HTTPHandler struct {
	broadcaster *Broadcaster
	ffmpeg      string
	bitrate     string
	log         logging.LeveledLogger
}

// NewHTTPHandler creates an HTTP stream handler encoding at bitrate (e.g. "192k").
func NewHTTPHandler(b *Broadcaster, ffmpegPath, bitrate string, lf logging.LoggerFactory) *HTTPHandler {
	if lf == nil {
		lf = logging.NewDefaultLoggerFactory()
	}
	return &HTTPHandler{broadcaster: b, ffmpeg: ffmpegPath, bitrate: bitrate, log: lf.NewLogger("stream")}
}

func (h *HTTPHandler) command(ctx context.Context) *exec.Cmd {
	return exec.CommandContext(ctx, h.ffmpeg,
		"-f", "s16le",
		"-ar", strconv.Itoa(audio.SampleRate),
		"-ac", strconv.Itoa(audio.Channels),
		"-i", "pipe:0",
		"-codec:a", "libmp3lame",
		"-b:a", h.bitrate,
		"-f", "mp3",
		"-fflags", "nobuffer",
		"-flush_packets", "1",
		"-loglevel", "error",
		"pipe:1",
	)
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	select {
	case <-h.broadcaster.Ended():
		http.Error(w, "mix has finished playing", http.StatusGone)
		return
	default:
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "no-cache, no-store")
	w.Header().Set("Connection", "close")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("ICY-Name", "smoothdj preview")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	cmd := h.command(ctx)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		h.log.Errorf("HTTP stream: stdin pipe error: %v", err)
		return
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		h.log.Errorf("HTTP stream: stdout pipe error: %v", err)
		return
	}

	if err := cmd.Start(); err != nil {
		h.log.Errorf("HTTP stream: ffmpeg start error: %v", err)
		return
	}

	listener := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(listener)

	h.log.Infof("HTTP listener connected (total: %d)", h.broadcaster.ListenerCount())
	defer h.log.Info("HTTP listener disconnected")

	// Feed PCM frames to FFmpeg until the mix ends.
	go func() {
		defer stdin.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case <-listener.done:
				return
			case frame := <-listener.C:
				if _, err := stdin.Write(audio.SamplesToBytes(frame)); err != nil {
					return
				}
			case <-h.broadcaster.Ended():
				for {
					select {
					case frame := <-listener.C:
						if _, err := stdin.Write(audio.SamplesToBytes(frame)); err != nil {
							return
						}
					default:
						return
					}
				}
			}
		}
	}()

	buf := make([]byte, 4096)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				break
			}
			flusher.Flush()
		}
		if err != nil {
			if err != io.EOF {
				h.log.Warnf("HTTP stream: ffmpeg read error: %v", err)
			}
			break
		}
	}

	cmd.Wait()
}
