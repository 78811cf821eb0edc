// Package middleware holds the handler wrappers every API request passes
// through: request IDs, panic recovery, access logging and route metrics.
package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/pauljones0/dealboard/internal/httpserver/respond"
)

const (
	RequestIDHeader = "X-Request-Id"

	maxRequestIDLen = 128
)

// recorder remembers the status and size of a response. Handlers reach the
// underlying writer through Unwrap, so http.ResponseController still works.
type recorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func record(w http.ResponseWriter) *recorder {
	if rec, ok := w.(*recorder); ok {
		return rec
	}
	return &recorder{ResponseWriter: w}
}

func (w *recorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *recorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

func (w *recorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *recorder) written() bool { return w.status != 0 }

// Status is 200 for handlers that returned without writing.
func (w *recorder) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// WithRequestID keeps a sane incoming X-Request-Id and otherwise assigns a
// UUID. The ID is set on both the request and the response.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get(RequestIDHeader)
		if !validRequestID(rid) {
			rid = uuid.NewString()
		}
		r.Header.Set(RequestIDHeader, rid)
		w.Header().Set(RequestIDHeader, rid)
		next.ServeHTTP(w, r)
	})
}

func validRequestID(rid string) bool {
	if rid == "" || len(rid) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(rid); i++ {
		if c := rid[i]; c < 0x21 || c > 0x7e {
			return false
		}
	}
	return true
}

// AccessLog writes one line per request. Server errors are logged at warn.
func AccessLog(log *slog.Logger, next http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := record(w)

		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		if rec.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		log.Log(r.Context(), level, "Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"route", r.Pattern,
			"status", rec.Status(),
			"bytes", rec.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote", r.RemoteAddr,
			"rid", r.Header.Get(RequestIDHeader),
		)
	})
}

// RecoverPanic turns a handler panic into a 500. If the handler had already
// started its response the body is left as is.
func RecoverPanic(log *slog.Logger, next http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := record(w)
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			log.Error("Recovered from handler panic",
				"panic", v,
				"method", r.Method,
				"path", r.URL.Path,
				"rid", r.Header.Get(RequestIDHeader),
				"stack", string(debug.Stack()),
			)
			if !rec.written() {
				respond.InternalError(rec)
			}
		}()
		next.ServeHTTP(rec, r)
	})
}

// RequestObserver receives one call per finished request.
type RequestObserver interface {
	ObserveRequest(route string, code int, elapsed time.Duration)
}

// Observe reports every request to obs, labelled by the mux pattern that
// served it so path parameters do not explode label cardinality.
func Observe(obs RequestObserver, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := record(w)

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		obs.ObserveRequest(route, rec.Status(), time.Since(start))
	})
}
