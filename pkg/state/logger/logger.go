package logger

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

var Log *slog.Logger

type asyncWriter struct {
	ch chan []byte
}

func (a *asyncWriter) Write(p []byte) (n int, err error) {
	cp := make([]byte, len(p))
	copy(cp, p)
	select {
	case a.ch <- cp:
		return len(p), nil
	default:
		// drop if queue full to avoid blocking
		return len(p), nil
	}
}

var (
	logCh     chan []byte
	logStopCh chan struct{}
	logWG     sync.WaitGroup
)

// ParseLevel maps a config level string to a slog level; unknown values mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init installs the global logger. format is "text" or "json"; sink is
// "stdout", "stderr" or "file:<path>". File sinks are written asynchronously.
func Init(level, format, sink string) {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var w io.Writer = os.Stdout
	switch {
	case sink == "stderr":
		w = os.Stderr
	case strings.HasPrefix(sink, "file:"):
		path := strings.TrimPrefix(sink, "file:")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file %s: %v\n", path, err)
			break
		}
		w = startAsync(f)
	}

	if strings.EqualFold(strings.TrimSpace(format), "json") {
		Log = slog.New(slog.NewJSONHandler(w, opts))
	} else {
		Log = slog.New(slog.NewTextHandler(w, opts))
	}
}

func startAsync(f *os.File) io.Writer {
	logCh = make(chan []byte, 10000)
	logStopCh = make(chan struct{})
	logWG.Add(1)
	go func() {
		defer logWG.Done()
		buf := bufio.NewWriterSize(f, 8192)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case b := <-logCh:
				buf.Write(b)
			case <-ticker.C:
				buf.Flush()
			case <-logStopCh:
				for {
					select {
					case b := <-logCh:
						buf.Write(b)
						continue
					default:
					}
					break
				}
				buf.Flush()
				f.Close()
				return
			}
		}
	}()
	return &asyncWriter{ch: logCh}
}

// Sync flushes any buffered logs.
func Sync() {
	if logStopCh != nil {
		close(logStopCh)
		logWG.Wait()
		logStopCh = nil
	}
}

func Debug(msg string, args ...any) {
	if Log == nil {
		return
	}
	Log.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	if Log == nil {
		return
	}
	Log.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	if Log == nil {
		return
	}
	Log.Warn(msg, args...)
}

func Error(msg string, args ...any) {
	if Log == nil {
		return
	}
	Log.Error(msg, args...)
}
