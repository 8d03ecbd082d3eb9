package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fairyhunter13/api-telemetry/pkg/textx"
)

// Span tag keys written by CaptureMiddleware.
const (
	TagMethod           = "api.method"
	TagPath             = "api.path"
	TagRequestHeaders   = "api.request.headers"
	TagRequestBody      = "api.request.body"
	TagExecutionTimeMS  = "api.execution_time_ms"
	TagResponseStatus   = "api.response.status_code"
	TagResponseBody     = "api.response.body"
	TagResponseMIME     = "api.response.mime"
	TagError            = "error"
	TagExceptionMessage = "exception.message"
	TagExceptionStack   = "exception.stacktrace"
)

const redactedValue = "[REDACTED]"

// requestSnapshot is built once before the handler runs and never mutated afterwards.
type requestSnapshot struct {
	Method  string
	Path    string
	Headers string
	Body    string
}

type responseSnapshot struct {
	Status int
	Body   string
	MIME   string
}

// replayBody serves already-read bytes while closing the original body.
type replayBody struct {
	io.Reader
	orig io.Closer
}

func (b *replayBody) Close() error { return b.orig.Close() }

// captureRequestBody reads the body to EOF and replaces r.Body so downstream
// readers see the same bytes from the start. Requests without a positive
// Content-Length are left untouched. Bodies larger than limit fail with
// *http.MaxBytesError; limit <= 0 reads without a bound.
func captureRequestBody(w http.ResponseWriter, r *http.Request, limit int64) (string, error) {
	if r.ContentLength <= 0 || r.Body == nil || r.Body == http.NoBody {
		return "", nil
	}
	src := r.Body
	if limit > 0 {
		if r.ContentLength > limit {
			return "", &http.MaxBytesError{Limit: limit}
		}
		src = http.MaxBytesReader(w, r.Body, limit)
	}
	raw, err := io.ReadAll(src)
	r.Body = &replayBody{Reader: bytes.NewReader(raw), orig: src}
	if err != nil {
		return "", err
	}
	return textx.DecodeUTF8(raw), nil
}

// serializeHeaders flattens multi-valued headers with "," and encodes them as a
// JSON object. encoding/json sorts map keys, so the output is deterministic.
func serializeHeaders(r *http.Request, redact map[string]struct{}) string {
	flat := make(map[string]string, len(r.Header)+1)
	if r.Host != "" {
		flat["Host"] = r.Host
	}
	for k, v := range r.Header {
		if _, ok := redact[http.CanonicalHeaderKey(k)]; ok {
			flat[k] = redactedValue
			continue
		}
		flat[k] = strings.Join(v, ",")
	}
	b, err := json.Marshal(flat)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// normalizeJSONBody re-encodes a JSON body compactly and unwraps JSON string
// literals. Anything that is not valid JSON is returned unchanged.
func normalizeJSONBody(body string) string {
	if strings.TrimSpace(body) == "" {
		return body
	}
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return body
	}
	if dec.More() {
		return body
	}
	if s, ok := v.(string); ok {
		return s
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return body
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func detectMIME(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	return mimetype.Detect(body).String()
}

// spanRecorder writes capture tags onto a span it does not own.
// A nil or non-recording span turns every method into a no-op.
type spanRecorder struct {
	span    trace.Span
	maxBody int
}

func (s spanRecorder) active() bool { return s.span != nil && s.span.IsRecording() }

func (s spanRecorder) request(req requestSnapshot) {
	if !s.active() {
		return
	}
	s.span.SetAttributes(
		attribute.String(TagMethod, req.Method),
		attribute.String(TagPath, req.Path),
		attribute.String(TagRequestHeaders, req.Headers),
		attribute.String(TagRequestBody, textx.Truncate(req.Body, s.maxBody)),
	)
}

func (s spanRecorder) success(elapsedMS int64, res responseSnapshot) {
	if !s.active() {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.Int64(TagExecutionTimeMS, elapsedMS),
		attribute.Int(TagResponseStatus, res.Status),
		attribute.String(TagResponseBody, textx.Truncate(res.Body, s.maxBody)),
	}
	if res.MIME != "" {
		attrs = append(attrs, attribute.String(TagResponseMIME, res.MIME))
	}
	s.span.SetAttributes(attrs...)
}

func (s spanRecorder) failure(elapsedMS int64, out outcome) {
	if !s.active() {
		return
	}
	msg := out.err.Error()
	s.span.SetAttributes(
		attribute.Int64(TagExecutionTimeMS, elapsedMS),
		attribute.Bool(TagError, true),
		attribute.String(TagExceptionMessage, msg),
		attribute.String(TagExceptionStack, string(out.stack)),
	)
	s.span.RecordError(out.err)
	s.span.SetStatus(codes.Error, msg)
}
