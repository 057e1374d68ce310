package middleware

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cobi-dev0615/Fintech-project-sub001/internal/shared/auth"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(orig) })
	return &buf
}

func TestLoggingAnonymousRequest(t *testing.T) {
	buf := captureLog(t)

	handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("missing"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	line := buf.String()
	if !strings.Contains(line, "GET /health 404 7B") {
		t.Errorf("log line = %q, want method, path, status and size", line)
	}
	if strings.Contains(line, "User ") {
		t.Errorf("anonymous request logged with a user prefix: %q", line)
	}
}

func TestLoggingCarriesAuthenticatedUser(t *testing.T) {
	buf := captureLog(t)

	tokens := auth.NewTokenManager("test-secret")
	token, err := tokens.Generate(42)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	// Full router chain: Logging outermost, Tracing wrapping the writer
	// again, Auth innermost. The access log must still pick up the id
	// Auth resolves further in.
	handler := Logging(Tracing(Auth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	}))))

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	line := buf.String()
	if !strings.Contains(line, "User 42: GET /api/accounts 200") {
		t.Errorf("log line = %q, want the resolved user prefix", line)
	}
}

func TestResponseWriterDefaultsToOK(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := wrapResponseWriter(rec)

	if rw.Status() != http.StatusOK {
		t.Errorf("Status() before write = %d, want 200", rw.Status())
	}

	rw.Write([]byte("ok"))
	rw.WriteHeader(http.StatusTeapot) // late WriteHeader must not override

	if rw.Status() != http.StatusOK {
		t.Errorf("Status() = %d, want 200", rw.Status())
	}
	if rw.bytes != 2 {
		t.Errorf("bytes = %d, want 2", rw.bytes)
	}
}
