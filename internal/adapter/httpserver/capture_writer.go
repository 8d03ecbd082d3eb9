package httpserver

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"sync"
)

// errSinkReleased is returned to writers that outlive the capture scope.
var errSinkReleased = errors.New("httpserver: response sink released")

// teeWriter stands in for the client-facing ResponseWriter while a handler runs.
// Headers, status and body are held in memory and transmitted to dst by a single
// commit call. After release, further writes are rejected so nothing can reach
// dst except through commit.
type teeWriter struct {
	mu          sync.Mutex
	dst         http.ResponseWriter
	header      http.Header
	entryHeader http.Header
	status      int
	wroteHeader bool
	buf         bytes.Buffer
	released    bool
	committed   bool
}

func newTeeWriter(dst http.ResponseWriter) *teeWriter {
	h := dst.Header().Clone()
	if h == nil {
		h = http.Header{}
	}
	return &teeWriter{dst: dst, header: h, entryHeader: h.Clone()}
}

// Header returns the buffered header map. Once released, a detached map is returned.
func (t *teeWriter) Header() http.Header {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return http.Header{}
	}
	return t.header
}

// WriteHeader records the status code; only the first call takes effect.
func (t *teeWriter) WriteHeader(code int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released || t.wroteHeader {
		return
	}
	t.status = code
	t.wroteHeader = true
}

func (t *teeWriter) Write(b []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return 0, errSinkReleased
	}
	if !t.wroteHeader {
		t.status = http.StatusOK
		t.wroteHeader = true
	}
	return t.buf.Write(b)
}

// Flush is accepted and ignored; bytes stay buffered until commit.
func (t *teeWriter) Flush() {}

// Status returns the recorded status, defaulting to 200.
func (t *teeWriter) Status() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.wroteHeader {
		return http.StatusOK
	}
	return t.status
}

// snapshot returns the status and a copy of the buffered body. The buffer is not consumed.
func (t *teeWriter) snapshot() (int, []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	status := http.StatusOK
	if t.wroteHeader {
		status = t.status
	}
	return status, bytes.Clone(t.buf.Bytes())
}

// fail discards everything the handler produced and stages a plain-text response.
// Headers present on dst at entry are kept.
func (t *teeWriter) fail(status int, body string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.header = t.entryHeader.Clone()
	t.header.Del("Content-Length")
	t.header.Del("Content-Encoding")
	t.header.Set("Content-Type", "text/plain; charset=utf-8")
	t.header.Set("X-Content-Type-Options", "nosniff")
	t.status = status
	t.wroteHeader = true
	t.buf.Reset()
	t.buf.WriteString(body)
}

func (t *teeWriter) release() {
	t.mu.Lock()
	t.released = true
	t.mu.Unlock()
}

// commit transmits the buffered response to dst. Subsequent calls are no-ops.
func (t *teeWriter) commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.committed {
		return nil
	}
	t.committed = true

	dh := t.dst.Header()
	for k := range dh {
		if _, ok := t.header[k]; !ok {
			delete(dh, k)
		}
	}
	for k, v := range t.header {
		dh[k] = v
	}
	status := http.StatusOK
	if t.wroteHeader {
		status = t.status
	}
	t.dst.WriteHeader(status)
	if t.buf.Len() == 0 {
		return nil
	}
	want := t.buf.Len()
	n, err := t.dst.Write(t.buf.Bytes())
	if err != nil {
		return err
	}
	if n != want {
		return io.ErrShortWrite
	}
	return nil
}
