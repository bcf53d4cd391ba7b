package server

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/heartnote/heartnote/pkg/logger"
	"github.com/heartnote/heartnote/pkg/metrics"
)

const (
	signatureHeader = "X-HeartNote-Signature"
	requestIDHeader = "X-Request-ID"
)

// verifySignature checks an HMAC-SHA256 of the request body when a signing
// secret is configured. GET requests sign the raw query string.
func (s *Server) verifySignature(next http.Handler) http.Handler {
	if s.secret == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload []byte
		if r.Method == http.MethodGet {
			payload = []byte(r.URL.RawQuery)
		} else {
			body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
			if err != nil {
				http.Error(w, "Error reading body", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			payload = body
		}

		sigHeader := r.Header.Get(signatureHeader)
		if sigHeader == "" {
			http.Error(w, "Missing signature", http.StatusUnauthorized)
			return
		}
		parts := strings.SplitN(sigHeader, "=", 2)
		if len(parts) != 2 || parts[0] != "sha256" {
			http.Error(w, "Invalid signature format", http.StatusBadRequest)
			return
		}
		if !hmac.Equal([]byte(parts[1]), []byte(Sign(s.secret, payload))) {
			logger.WarnCF("server", "Rejected request with bad signature", map[string]any{
				"request_id": w.Header().Get(requestIDHeader),
				"path":       r.URL.Path,
			})
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Sign returns the hex HMAC-SHA256 of payload, the value expected after
// "sha256=" in the signature header.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Server) rateLimit(route string, next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			metrics.DefaultRecorder().RecordRateLimited(route)
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}
