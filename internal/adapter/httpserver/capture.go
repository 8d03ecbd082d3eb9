package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/fairyhunter13/api-telemetry/internal/domain"
	"github.com/fairyhunter13/api-telemetry/pkg/textx"
)

// DefaultMaxRequestBytes bounds how much of a request body CaptureMiddleware buffers.
const DefaultMaxRequestBytes = 1 << 20

// FaultBody is the only body a client sees when a request fails inside CaptureMiddleware.
const FaultBody = "An error occurred while processing the request."

// SpanFunc resolves the span a request should be annotated on. It may return nil.
type SpanFunc func(*http.Request) trace.Span

// CaptureOption customizes CaptureMiddleware.
type CaptureOption func(*captureConfig)

type captureConfig struct {
	span          SpanFunc
	maxBodyBytes  int
	maxReqBytes   int64
	normalizeJSON bool
	redact        map[string]struct{}
	onFault       func(*http.Request, error)
}

// WithSpanFunc overrides how the active span is found. Default: trace.SpanFromContext.
func WithSpanFunc(fn SpanFunc) CaptureOption {
	return func(c *captureConfig) {
		if fn != nil {
			c.span = fn
		}
	}
}

// WithMaxBodyBytes caps body tags and log fields. n <= 0 disables the cap.
func WithMaxBodyBytes(n int) CaptureOption {
	return func(c *captureConfig) { c.maxBodyBytes = n }
}

// WithMaxRequestBytes limits the request body CaptureMiddleware will buffer.
// Larger bodies take the fault path without reaching the handler. n <= 0 removes the limit.
func WithMaxRequestBytes(n int64) CaptureOption {
	return func(c *captureConfig) { c.maxReqBytes = n }
}

// WithJSONNormalization compacts JSON request bodies before they are tagged and logged.
func WithJSONNormalization(enabled bool) CaptureOption {
	return func(c *captureConfig) { c.normalizeJSON = enabled }
}

// WithRedactedHeaders masks the values of the named headers in tags and logs.
func WithRedactedHeaders(names ...string) CaptureOption {
	return func(c *captureConfig) {
		for _, n := range names {
			if n == "" {
				continue
			}
			c.redact[http.CanonicalHeaderKey(n)] = struct{}{}
		}
	}
}

// WithFaultHook registers a callback invoked once per faulted request.
func WithFaultHook(fn func(*http.Request, error)) CaptureOption {
	return func(c *captureConfig) { c.onFault = fn }
}

// outcome is the result of running the downstream stage: err is nil on success.
type outcome struct {
	err   error
	stack []byte
}

type faultKey struct{}

// faultSlot collects the first error a handler reports. Once sealed, reports are dropped.
type faultSlot struct {
	mu     sync.Mutex
	err    error
	stack  []byte
	sealed bool
}

func (s *faultSlot) report(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed || s.err != nil {
		return
	}
	s.err = err
	s.stack = debug.Stack()
}

func (s *faultSlot) seal() outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sealed = true
	return outcome{err: s.err, stack: s.stack}
}

// reportFault hands err to the enclosing CaptureMiddleware. It returns false
// when the request is not being captured.
func reportFault(r *http.Request, err error) bool {
	s, ok := r.Context().Value(faultKey{}).(*faultSlot)
	if !ok {
		return false
	}
	s.report(err)
	return true
}

// ErrorHandler is an http.Handler that may fail. Client errors are answered
// directly; anything else is treated as an unhandled failure.
type ErrorHandler func(http.ResponseWriter, *http.Request) error

func (h ErrorHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := h(w, r)
	if err == nil {
		return
	}
	if isClientError(err) {
		writeError(w, r, err, nil)
		return
	}
	if reportFault(r, err) {
		return
	}
	LoggerFrom(r).Error("unhandled handler error", slog.Any("error", err))
	writeError(w, r, err, nil)
}

func isClientError(err error) bool {
	return errors.Is(err, domain.ErrInvalidArgument) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrRateLimited)
}

func panicError(rec any) error {
	switch v := rec.(type) {
	case error:
		return v
	case string:
		return errors.New(v)
	default:
		return fmt.Errorf("%v", v)
	}
}

// invoke runs next and converts a panic into an outcome.
func invoke(next http.Handler, w http.ResponseWriter, r *http.Request) (out outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			out = outcome{err: panicError(rec), stack: debug.Stack()}
		}
	}()
	next.ServeHTTP(w, r)
	return outcome{}
}

// execTimer measures the downstream call only. stop is idempotent.
type execTimer struct {
	start   time.Time
	elapsed time.Duration
	stopped bool
}

func startTimer() *execTimer { return &execTimer{start: time.Now()} }

func (t *execTimer) stop() time.Duration {
	if !t.stopped {
		t.elapsed = time.Since(t.start)
		t.stopped = true
	}
	if t.elapsed < 0 {
		return 0
	}
	return t.elapsed
}

// CaptureMiddleware records the request and response of every call on the active
// span, logs a summary, and acts as the last line of defense: any panic or
// reported failure downstream becomes a plain-text 500 with FaultBody. The
// response is buffered and copied to the real writer exactly once when the
// request finishes.
func CaptureMiddleware(opts ...CaptureOption) func(http.Handler) http.Handler {
	cfg := &captureConfig{
		span:        func(r *http.Request) trace.Span { return trace.SpanFromContext(r.Context()) },
		redact:      map[string]struct{}{},
		maxReqBytes: DefaultMaxRequestBytes,
	}
	for _, o := range opts {
		o(cfg)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lg := LoggerFrom(r)
			rec := spanRecorder{span: cfg.span(r), maxBody: cfg.maxBodyBytes}

			req := requestSnapshot{
				Method:  r.Method,
				Path:    r.URL.Path,
				Headers: serializeHeaders(r, cfg.redact),
			}
			body, readErr := captureRequestBody(w, r, cfg.maxReqBytes)
			if cfg.normalizeJSON {
				body = normalizeJSONBody(body)
			}
			req.Body = body
			rec.request(req)

			tee := newTeeWriter(w)
			defer func() {
				tee.release()
				if err := tee.commit(); err != nil {
					lg.Error("response copy failed",
						slog.String("method", req.Method),
						slog.String("path", req.Path),
						slog.Any("error", err))
				}
			}()

			var (
				out     outcome
				elapsed time.Duration
			)
			if readErr != nil {
				out = outcome{err: fmt.Errorf("op=capture.readBody: %w", readErr)}
			} else {
				slot := &faultSlot{}
				ctx := context.WithValue(r.Context(), faultKey{}, slot)
				timer := startTimer()
				out = invoke(next, tee, r.WithContext(ctx))
				elapsed = timer.stop()
				if reported := slot.seal(); out.err == nil {
					out = reported
				}
			}
			ms := elapsed.Milliseconds()

			if out.err != nil {
				rec.failure(ms, out)
				lg.LogAttrs(r.Context(), slog.LevelError, "api_error",
					slog.String("method", req.Method),
					slog.String("path", req.Path),
					slog.Int64("execution_time_ms", ms),
					slog.String("headers", req.Headers),
					slog.String("request_body", textx.Truncate(req.Body, cfg.maxBodyBytes)),
					slog.Any("error", out.err),
				)
				tee.fail(http.StatusInternalServerError, FaultBody)
				if cfg.onFault != nil {
					cfg.onFault(r, out.err)
				}
				return
			}

			status, raw := tee.snapshot()
			res := responseSnapshot{Status: status, Body: textx.DecodeUTF8(raw), MIME: detectMIME(raw)}
			rec.success(ms, res)
			lg.LogAttrs(r.Context(), slog.LevelInfo, "api_execution",
				slog.String("method", req.Method),
				slog.String("path", req.Path),
				slog.Int64("execution_time_ms", ms),
				slog.Int("status_code", res.Status),
				slog.String("headers", req.Headers),
				slog.String("request_body", textx.Truncate(req.Body, cfg.maxBodyBytes)),
			)
		})
	}
}
