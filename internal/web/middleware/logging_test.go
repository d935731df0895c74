package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/ledger/internal/config"
	"github.com/JonMunkholm/ledger/internal/logging"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	orig := slog.Default()
	slog.SetDefault(logging.New(&buf, "info", "json"))
	t.Cleanup(func() { slog.SetDefault(orig) })

	auth := APIKeyAuth(&config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"carol:k"}})
	h := chimw.RequestID(Logger(auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("hello"))
	}))))

	req := httptest.NewRequest(http.MethodPost, "/api/x", nil)
	req.Header.Set("X-API-Key", "k")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line %q: %v", buf.String(), err)
	}

	want := map[string]any{
		"msg":    "request",
		"method": "POST",
		"path":   "/api/x",
		"status": float64(http.StatusTeapot),
		"bytes":  float64(5),
		"member": "carol",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v, want %v", k, entry[k], v)
		}
	}
	if id, _ := entry["request_id"].(string); id == "" {
		t.Error("request_id missing")
	}
}
