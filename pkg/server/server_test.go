package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartnote/heartnote/pkg/config"
	"github.com/heartnote/heartnote/pkg/metrics"
	"github.com/heartnote/heartnote/pkg/pipeline"
)

type mockGenerator struct {
	mu      sync.Mutex
	called  bool
	req     pipeline.Request
	channel string
	res     pipeline.Result
	err     error
}

func (m *mockGenerator) Generate(ctx context.Context, req pipeline.Request) (pipeline.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called = true
	m.req = req
	m.channel = metrics.ChannelFromContext(ctx)
	if m.err != nil {
		return pipeline.Result{}, m.err
	}
	return m.res, nil
}

func newTestServer(cfg config.ServerConfig, gen Generator) http.Handler {
	return NewServer(cfg, gen, nil).Handler()
}

func TestGenerateHandler(t *testing.T) {
	delivered := pipeline.Result{Response: "a small poem", State: pipeline.StateDelivered}

	tests := []struct {
		name           string
		method         string
		target         string
		body           string
		expectedStatus int
		expectCalled   bool
		wantReq        pipeline.Request
	}{
		{
			name:           "method not allowed",
			method:         http.MethodDelete,
			target:         "/api/generate",
			expectedStatus: http.StatusMethodNotAllowed,
		},
		{
			name:           "GET with form names",
			method:         http.MethodGet,
			target:         "/api/generate?mode=poem&name=Ana&desc=rain&depth=medium&language=hi",
			expectedStatus: http.StatusOK,
			expectCalled:   true,
			wantReq:        pipeline.Request{Mode: "poem", Name: "Ana", Description: "rain", Tone: "medium", Language: "hi"},
		},
		{
			name:           "GET with text alias",
			method:         http.MethodGet,
			target:         "/api/generate?mode=quote&text=hello&tone=deep",
			expectedStatus: http.StatusOK,
			expectCalled:   true,
			wantReq:        pipeline.Request{Mode: "quote", Description: "hello", Tone: "deep"},
		},
		{
			name:           "GET missing description",
			method:         http.MethodGet,
			target:         "/api/generate?mode=poem",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "GET missing mode",
			method:         http.MethodGet,
			target:         "/api/generate?desc=rain",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "POST JSON",
			method:         http.MethodPost,
			target:         "/api/generate",
			body:           `{"mode":"letter","name":"Sam","description":"thank you","tone":"soft","language":"en"}`,
			expectedStatus: http.StatusOK,
			expectCalled:   true,
			wantReq:        pipeline.Request{Mode: "letter", Name: "Sam", Description: "thank you", Tone: "soft", Language: "en"},
		},
		{
			name:           "POST invalid JSON",
			method:         http.MethodPost,
			target:         "/api/generate",
			body:           `{"mode":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "POST whitespace description",
			method:         http.MethodPost,
			target:         "/api/generate",
			body:           `{"mode":"letter","description":"   "}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &mockGenerator{res: delivered}
			handler := newTestServer(config.ServerConfig{}, gen)

			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, tt.expectCalled, gen.called)
			assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

			if tt.expectCalled {
				assert.Equal(t, tt.wantReq, gen.req)
				assert.Equal(t, "http", gen.channel)

				var got map[string]any
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
				assert.Equal(t, "a small poem", got["response"])
				assert.Equal(t, false, got["blocked"])
				assert.Equal(t, false, got["is_fallback"])
			}
			if tt.expectedStatus == http.StatusBadRequest && tt.body != `{"mode":` {
				var got map[string]string
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
				assert.Equal(t, EmptyInputMessage, got["response"])
			}
		})
	}
}

func TestGenerateHandler_InternalError(t *testing.T) {
	gen := &mockGenerator{err: errors.New("boom")}
	handler := newTestServer(config.ServerConfig{}, gen)

	req := httptest.NewRequest(http.MethodGet, "/api/generate?mode=poem&desc=rain", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "boom")
}

func TestSignature(t *testing.T) {
	const secret = "my_secret"
	body := `{"mode":"poem","description":"rain"}`

	tests := []struct {
		name           string
		header         string
		expectedStatus int
		expectCalled   bool
	}{
		{"missing signature", "", http.StatusUnauthorized, false},
		{"invalid format", "bad:format", http.StatusBadRequest, false},
		{"wrong value", "sha256=abcdef", http.StatusUnauthorized, false},
		{"valid", "sha256=" + Sign(secret, []byte(body)), http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &mockGenerator{res: pipeline.Result{Response: "ok", State: pipeline.StateDelivered}}
			handler := newTestServer(config.ServerConfig{SigningSecret: secret}, gen)

			req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(body))
			if tt.header != "" {
				req.Header.Set("X-HeartNote-Signature", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, tt.expectCalled, gen.called)
			if tt.expectCalled {
				assert.Equal(t, "rain", gen.req.Description)
			}
		})
	}
}

func TestSignature_GETSignsQuery(t *testing.T) {
	const secret = "s3cret"
	q := url.Values{"mode": {"poem"}, "desc": {"fog"}}.Encode()

	gen := &mockGenerator{res: pipeline.Result{Response: "ok"}}
	handler := newTestServer(config.ServerConfig{SigningSecret: secret}, gen)

	req := httptest.NewRequest(http.MethodGet, "/api/generate?"+q, nil)
	req.Header.Set("X-HeartNote-Signature", "sha256="+Sign(secret, []byte(q)))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, gen.called)
}

func TestRateLimit(t *testing.T) {
	gen := &mockGenerator{res: pipeline.Result{Response: "ok"}}
	handler := newTestServer(config.ServerConfig{RateLimitRPS: 0.001, RateLimitBurst: 2}, gen)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/generate?mode=poem&desc=rain", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimit_DoesNotApplyToHealth(t *testing.T) {
	handler := newTestServer(config.ServerConfig{RateLimitRPS: 0.001, RateLimitBurst: 1}, &mockGenerator{})

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	}
}

func TestRequestID_Propagated(t *testing.T) {
	handler := newTestServer(config.ServerConfig{}, &mockGenerator{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, "abc-123", rr.Header().Get("X-Request-ID"))
}

func TestHealthAndReady(t *testing.T) {
	handler := newTestServer(config.ServerConfig{}, &mockGenerator{})

	for path, want := range map[string]string{"/health": "OK", "/ready": "READY"} {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, want, strings.TrimSpace(rr.Body.String()))
	}
}

func TestModes(t *testing.T) {
	handler := newTestServer(config.ServerConfig{}, &mockGenerator{})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/modes", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var got struct {
		Modes []struct {
			Key     string   `json:"key"`
			Aliases []string `json:"aliases"`
		} `json:"modes"`
		Tones     []map[string]any `json:"tones"`
		Languages []map[string]any `json:"languages"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got.Modes, 8)
	assert.Equal(t, "letter", got.Modes[0].Key)
	assert.Equal(t, []string{"letters"}, got.Modes[0].Aliases)
	assert.Len(t, got.Tones, 3)
	assert.Len(t, got.Languages, 12)
}

func TestActivityBuffer(t *testing.T) {
	ab := NewActivityBuffer(3)

	ab.Add(pipeline.Outcome{RequestID: "1"})
	ab.Add(pipeline.Outcome{RequestID: "2"})
	ab.Add(pipeline.Outcome{RequestID: "3"})
	assert.Len(t, ab.GetEvents(), 3)

	ab.Add(pipeline.Outcome{RequestID: "4"})
	events := ab.GetEvents()
	require.Len(t, events, 3)
	assert.Equal(t, "2", events[0].RequestID)
	assert.Equal(t, "4", events[2].RequestID)
}

func TestActivityEndpoint(t *testing.T) {
	ab := NewActivityBuffer(10)
	ab.Add(pipeline.Outcome{RequestID: "r1", Mode: "poem", State: pipeline.StateDegraded, Reason: "transport"})
	handler := NewServer(config.ServerConfig{}, &mockGenerator{}, ab).Handler()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/activity", nil))

	var got []pipeline.Outcome
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "poem", got[0].Mode)
	assert.Equal(t, pipeline.StateDegraded, got[0].State)
}

func TestGenerateSchema(t *testing.T) {
	schema := GenerateSchema()
	require.NotNil(t, schema)
	assert.Equal(t, "object", schema["type"])

	properties := schema["properties"].(map[string]any)
	for _, key := range []string{"server", "generation", "safety", "fallback", "templates", "telegram", "log"} {
		assert.Contains(t, properties, key)
	}

	generation := properties["generation"].(map[string]any)["properties"].(map[string]any)
	disabled := generation["disabled"].(map[string]any)
	assert.Equal(t, "boolean", disabled["type"])
	assert.Equal(t, "Environment variable: HEARTNOTE_GENERATION_DISABLED", disabled["description"])
	assert.Equal(t, "integer", generation["max_tokens"].(map[string]any)["type"])
	assert.Equal(t, 300, generation["max_tokens"].(map[string]any)["default"])
	assert.Equal(t, "ollama", generation["backend"].(map[string]any)["default"])
	assert.NotContains(t, disabled, "default")

	required := properties["generation"].(map[string]any)["required"].([]string)
	assert.Contains(t, required, "backend")
	assert.NotContains(t, required, "schedule")

	backend := generation["backends"].(map[string]any)["additionalProperties"].(map[string]any)
	assert.ElementsMatch(t, []string{"provider", "model"}, backend["required"])
	apiKey := backend["properties"].(map[string]any)["api_key"].(map[string]any)
	assert.Equal(t, true, apiKey["writeOnly"])

	srvProps := properties["server"].(map[string]any)["properties"].(map[string]any)
	secret := srvProps["signing_secret"].(map[string]any)
	assert.Equal(t, true, secret["writeOnly"])
	assert.NotContains(t, secret, "default")
	assert.Equal(t, 18800, srvProps["port"].(map[string]any)["default"])

	safety := properties["safety"].(map[string]any)
	assert.NotContains(t, safety, "required")
	terms := safety["properties"].(map[string]any)["extra_blocked_terms"].(map[string]any)
	assert.Equal(t, "array", terms["type"])
	assert.Equal(t, "Environment variable: HEARTNOTE_SAFETY_EXTRA_BLOCKED (, separated)", terms["description"])

	schedule := generation["schedule"].(map[string]any)
	assert.Equal(t, "object", schedule["type"])
	assert.Contains(t, schedule["required"], "rules")
}

func TestMetricsEndpoint(t *testing.T) {
	handler := newTestServer(config.ServerConfig{}, &mockGenerator{})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
}
