package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

var testAuthKey = []byte("12345678901234567890123456789012")

func TestDefaultCSRFConfig_Development(t *testing.T) {
	cfg := DefaultCSRFConfig(testAuthKey, true, "0.0.0.0:9090")

	if len(cfg.AuthKey) != 32 {
		t.Errorf("expected 32-byte AuthKey, got %d bytes", len(cfg.AuthKey))
	}

	want := map[string]bool{"localhost:8080": true, "127.0.0.1:8080": true, "0.0.0.0:9090": true}
	if len(cfg.TrustedOrigins) != len(want) {
		t.Fatalf("TrustedOrigins = %v", cfg.TrustedOrigins)
	}
	for _, origin := range cfg.TrustedOrigins {
		if !want[origin] {
			t.Errorf("unexpected TrustedOrigin: %s", origin)
		}
	}
}

func TestDefaultCSRFConfig_DevelopmentDefaultAddr(t *testing.T) {
	cfg := DefaultCSRFConfig(testAuthKey, true, "localhost:8080")
	if len(cfg.TrustedOrigins) != 2 {
		t.Errorf("TrustedOrigins = %v, want the two loopback hosts", cfg.TrustedOrigins)
	}
}

func TestDefaultCSRFConfig_Production(t *testing.T) {
	cfg := DefaultCSRFConfig(testAuthKey, false, "example.com:443")
	if len(cfg.TrustedOrigins) != 0 {
		t.Errorf("expected no TrustedOrigins in production, got %d", len(cfg.TrustedOrigins))
	}
}

func TestCSRF_RejectsCrossSiteWrites(t *testing.T) {
	handler := CSRF(DefaultCSRFConfig(testAuthKey, false, ""))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		method string
		site   string
		want   int
	}{
		{"cross-site post", http.MethodPost, "cross-site", http.StatusForbidden},
		{"same-origin post", http.MethodPost, "same-origin", http.StatusNoContent},
		{"cross-site get", http.MethodGet, "cross-site", http.StatusNoContent},
		{"non-browser client", http.MethodPost, "", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/tasks", nil)
			if tt.site != "" {
				req.Header.Set("Sec-Fetch-Site", tt.site)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("Status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}
