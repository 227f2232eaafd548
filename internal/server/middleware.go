package server

import (
	"compress/gzip"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// gzipResponseWriter wraps an http.ResponseWriter so writes pass through a
// gzip.Writer, grounded on the teacher's export-handler gzip usage
// (compress/gzip directly, no wrapper library).
type gzipResponseWriter struct {
	http.ResponseWriter
	gz io.Writer
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	return w.gz.Write(b)
}

// gzipNegotiation compresses the response body when the client advertises
// gzip support via Accept-Encoding and did not opt out with ?nocompress=true.
func gzipNegotiation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("nocompress") == "true" || !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")
		gz := gzip.NewWriter(w)
		defer gz.Close()

		next.ServeHTTP(&gzipResponseWriter{ResponseWriter: w, gz: gz}, r)
	})
}

// timingResponseWriter stamps X-Response-Time-Ms the moment the response
// is first committed (first Write or explicit WriteHeader), since headers
// can no longer be set once that has happened.
type timingResponseWriter struct {
	http.ResponseWriter
	start   time.Time
	stamped bool
}

func (w *timingResponseWriter) stamp() {
	if !w.stamped {
		w.Header().Set("X-Response-Time-Ms", strconv.FormatInt(time.Since(w.start).Milliseconds(), 10))
		w.stamped = true
	}
}

func (w *timingResponseWriter) WriteHeader(status int) {
	w.stamp()
	w.ResponseWriter.WriteHeader(status)
}

func (w *timingResponseWriter) Write(b []byte) (int, error) {
	w.stamp()
	return w.ResponseWriter.Write(b)
}

// timing wraps the handler chain, stamping X-Response-Time-Ms from a
// time.Now() taken at entry — the same elapsed-time idiom the impact engine
// uses to time an engine call, reused here at the transport layer.
func timing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(&timingResponseWriter{ResponseWriter: w, start: time.Now()}, r)
	})
}
