package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/heartnote/heartnote/pkg/compose"
	"github.com/heartnote/heartnote/pkg/logger"
	"github.com/heartnote/heartnote/pkg/metrics"
	"github.com/heartnote/heartnote/pkg/pipeline"
)

// EmptyInputMessage answers a request with no mode or no description.
const EmptyInputMessage = "Please write something."

const maxBodyBytes = 64 << 10

// generateBody accepts both the API field names and the web form's.
type generateBody struct {
	Mode        string `json:"mode"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Desc        string `json:"desc"`
	Text        string `json:"text"`
	Tone        string `json:"tone"`
	Depth       string `json:"depth"`
	Language    string `json:"language"`
}

func (b generateBody) request() pipeline.Request {
	return pipeline.Request{
		Mode:        b.Mode,
		Name:        b.Name,
		Description: firstNonEmpty(b.Description, b.Desc, b.Text),
		Tone:        firstNonEmpty(b.Tone, b.Depth),
		Language:    b.Language,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var body generateBody
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		body = generateBody{
			Mode:        q.Get("mode"),
			Name:        q.Get("name"),
			Description: q.Get("description"),
			Desc:        q.Get("desc"),
			Text:        q.Get("text"),
			Tone:        q.Get("tone"),
			Depth:       q.Get("depth"),
			Language:    q.Get("language"),
		}
	case http.MethodPost:
		data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			http.Error(w, "Error reading body", http.StatusBadRequest)
			return
		}
		if err := json.Unmarshal(data, &body); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req := body.request()
	if strings.TrimSpace(req.Mode) == "" || strings.TrimSpace(req.Description) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"response": EmptyInputMessage})
		return
	}

	ctx := metrics.WithChannel(r.Context(), metrics.ChannelHTTP)
	res, err := s.gen.Generate(ctx, req)
	if err != nil {
		if errors.Is(err, pipeline.ErrDescriptionRequired) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"response": EmptyInputMessage})
			return
		}
		logger.ErrorCF("server", "Generation failed", map[string]any{
			"request_id": w.Header().Get(requestIDHeader),
			"error":      err.Error(),
		})
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

type modeInfo struct {
	Key     string   `json:"key"`
	Aliases []string `json:"aliases,omitempty"`
}

func (s *Server) handleModes(w http.ResponseWriter, r *http.Request) {
	modes := make([]modeInfo, 0, len(compose.AllModes()))
	for _, m := range compose.AllModes() {
		modes = append(modes, modeInfo{Key: string(m), Aliases: compose.ModeAliases(m)})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"modes":     modes,
		"tones":     compose.Tones(),
		"languages": compose.Languages(),
	})
}
