package pulumi

import (
	"bytes"
	"sync"

	"github.com/rs/zerolog"
)

// progressWriter turns the engine's progress stream into debug log lines.
// Partial lines are held until their newline arrives.
type progressWriter struct {
	log zerolog.Logger

	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadBytes('\n')
		if err != nil {
			// incomplete line, keep it for the next write
			rest := append([]byte(nil), line...)
			w.buf.Reset()
			w.buf.Write(rest)
			break
		}
		if text := bytes.TrimSpace(line); len(text) > 0 {
			w.log.Debug().Msg(string(text))
		}
	}
	return len(p), nil
}
