package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLoggingPassesThroughStatus(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})

	resp := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/properties", nil)
	Logging(nil)(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusTeapot {
		t.Fatalf("expected status 418 got %d", resp.Code)
	}
	if resp.Body.String() != "short and stout" {
		t.Fatalf("unexpected body %q", resp.Body.String())
	}
}

func TestStatusRecorderDefaultsToOK(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	if _, err := rec.Write([]byte("ok")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if rec.status != http.StatusOK {
		t.Fatalf("expected implicit 200 got %d", rec.status)
	}
}
