package middleware

import (
	"compress/gzip"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrInvalidCompressionLevel is returned by Compression for a level outside
// [gzip.HuffmanOnly, gzip.BestCompression].
var ErrInvalidCompressionLevel = errors.New("invalid compression level")

// Func wraps a handler.
type Func func(http.Handler) http.Handler

// Chain wraps h with mws; the first middleware is the outermost.
func Chain(h http.Handler, mws ...Func) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Recovery turns a panic in next into a 500 response and logs it.
func Recovery(logger *zap.Logger) Func {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("handler panicked",
						zap.Any("panic", err),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
					)
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// AccessLog logs every request at debug level.
func AccessLog(logger *zap.Logger) Func {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.Debug("request served",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// Compression gzips response bodies for clients accepting gzip. A zero level
// selects gzip.DefaultCompression.
func Compression(level int) (Func, error) {
	if level == 0 {
		level = gzip.DefaultCompression
	}
	if level < gzip.HuffmanOnly || level > gzip.BestCompression {
		return nil, ErrInvalidCompressionLevel
	}

	pool := &sync.Pool{
		New: func() any {
			w, _ := gzip.NewWriterLevel(io.Discard, level)
			return w
		},
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Accept-Encoding")

			if !acceptsGzip(r.Header.Get("Accept-Encoding")) {
				next.ServeHTTP(w, r)
				return
			}

			gw := &gzipResponseWriter{ResponseWriter: w, pool: pool}
			defer gw.close()

			next.ServeHTTP(gw, r)
		})
	}, nil
}

// acceptsGzip reports whether an Accept-Encoding header allows gzip, either
// by name or through "*", with a non-zero quality.
func acceptsGzip(header string) bool {
	gzipQ, wildQ := -1.0, -1.0

	for part := range strings.SplitSeq(header, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		q := 1.0
		if key, val, ok := strings.Cut(strings.TrimSpace(params), "="); ok && strings.TrimSpace(key) == "q" {
			parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
			if err != nil {
				parsed = 0
			}
			q = parsed
		}

		switch strings.TrimSpace(name) {
		case "gzip":
			gzipQ = q
		case "*":
			wildQ = q
		}
	}

	if gzipQ < 0 {
		gzipQ = wildQ
	}
	return gzipQ > 0
}

// gzipResponseWriter compresses the body once the first byte is written.
// Responses without a body, or already encoded by the handler, are passed
// through untouched.
type gzipResponseWriter struct {
	http.ResponseWriter
	pool *sync.Pool

	writer      *gzip.Writer
	status      int
	wroteHeader bool
	decided     bool
}

func (g *gzipResponseWriter) WriteHeader(code int) {
	if g.wroteHeader {
		return
	}
	g.wroteHeader = true
	g.status = code
}

func (g *gzipResponseWriter) Write(p []byte) (int, error) {
	if !g.wroteHeader {
		g.WriteHeader(http.StatusOK)
	}
	if !g.decided {
		g.decide()
	}
	if g.writer != nil {
		return g.writer.Write(p)
	}
	return g.ResponseWriter.Write(p)
}

func (g *gzipResponseWriter) decide() {
	g.decided = true

	h := g.Header()
	if h.Get("Content-Encoding") == "" {
		h.Del("Content-Length")
		h.Set("Content-Encoding", "gzip")

		g.writer = g.pool.Get().(*gzip.Writer)
		g.writer.Reset(g.ResponseWriter)
	}

	g.ResponseWriter.WriteHeader(g.status)
}

func (g *gzipResponseWriter) Unwrap() http.ResponseWriter {
	return g.ResponseWriter
}

func (g *gzipResponseWriter) close() {
	if !g.decided {
		if g.wroteHeader {
			g.ResponseWriter.WriteHeader(g.status)
		}
		return
	}
	if g.writer == nil {
		return
	}

	_ = g.writer.Close()
	g.writer.Reset(io.Discard)
	g.pool.Put(g.writer)
	g.writer = nil
}
