package middleware

import (
	"log"
	"net/http"
	"time"
)

// responseWriter captures the status code and body size so the access
// log can report what the handler actually sent.
type responseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	userID      int64
	wroteHeader bool
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w}
}

// stampUser records the resolved user id on every wrapper in the chain;
// tracing and logging each wrap the writer, and the access logger reads
// from the outermost one.
func stampUser(w http.ResponseWriter, userID int64) {
	for {
		rw, ok := w.(*responseWriter)
		if !ok {
			return
		}
		rw.userID = userID
		w = rw.ResponseWriter
	}
}

func (rw *responseWriter) Status() int {
	if rw.status == 0 {
		return http.StatusOK
	}
	return rw.status
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}

	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
	rw.wroteHeader = true
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// Logging writes one access-log line per request. Authenticated requests
// carry the resolved user id with the same "User %d:" prefix the
// handlers log under, so one user's activity greps as one stream.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := wrapResponseWriter(w)
		next.ServeHTTP(wrapped, r)

		if wrapped.userID != 0 {
			log.Printf(
				"User %d: %s %s %d %dB %s",
				wrapped.userID,
				r.Method,
				r.URL.Path,
				wrapped.Status(),
				wrapped.bytes,
				time.Since(start),
			)
			return
		}

		log.Printf(
			"%s %s %d %dB %s",
			r.Method,
			r.URL.Path,
			wrapped.Status(),
			wrapped.bytes,
			time.Since(start),
		)
	})
}
