package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/heartnote/heartnote/pkg/compose"
	"github.com/heartnote/heartnote/pkg/logger"
	"github.com/heartnote/heartnote/pkg/metrics"
	"github.com/heartnote/heartnote/pkg/pipeline"
)

// Generator is the pipeline entry point exposed as the write tool.
type Generator interface {
	Generate(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// Server answers MCP requests over newline-delimited JSON.
type Server struct {
	gen     Generator
	name    string
	version string
}

func NewServer(gen Generator, name, version string) *Server {
	return &Server{gen: gen, name: name, version: version}
}

// Serve reads requests from r until EOF or ctx is done and writes one
// response line per request to w. Notifications get no response.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	enc := json.NewEncoder(w)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var resp *JSONRPCResponse
		var req JSONRPCRequest
		if err := json.Unmarshal(line, &req); err != nil {
			logger.WarnCF("mcp", "Failed to unmarshal request", map[string]any{"error": err.Error()})
			resp = errorResponse(nil, CodeParseError, "Parse error")
		} else {
			resp = s.Handle(ctx, req)
		}

		if resp != nil {
			if err := enc.Encode(resp); err != nil {
				return fmt.Errorf("failed to write response: %w", err)
			}
		}
	}
	return scanner.Err()
}

// Handle dispatches a single request. It returns nil for notifications.
func (s *Server) Handle(ctx context.Context, req JSONRPCRequest) *JSONRPCResponse {
	if req.JSONRPC != jsonrpcVersion {
		return errorResponse(req.ID, CodeInvalidRequest, "Invalid Request")
	}

	var resp *JSONRPCResponse
	switch req.Method {
	case "initialize":
		resp = s.handleInitialize(req)
	case "ping":
		resp = &JSONRPCResponse{JSONRPC: jsonrpcVersion, ID: req.ID, Result: map[string]any{}}
	case "tools/list":
		resp = s.handleToolsList(req)
	case "tools/call":
		resp = s.handleToolsCall(ctx, req)
	default:
		if strings.HasPrefix(req.Method, "notifications/") {
			return nil
		}
		resp = errorResponse(req.ID, CodeMethodNotFound, "Method not found")
	}

	if req.IsNotification() {
		return nil
	}
	return resp
}

func (s *Server) handleInitialize(req JSONRPCRequest) *JSONRPCResponse {
	var params InitializeParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			logger.DebugCF("mcp", "Ignoring malformed initialize params", map[string]any{"error": err.Error()})
		}
	}
	logger.InfoCF("mcp", "Client connected", map[string]any{
		"client":  params.ClientInfo.Name,
		"version": params.ClientInfo.Version,
	})

	return &JSONRPCResponse{
		JSONRPC: jsonrpcVersion,
		ID:      req.ID,
		Result: InitializeResult{
			ProtocolVersion: ProtocolVersion,
			Capabilities: map[string]any{
				"tools": map[string]any{},
			},
			ServerInfo: ServerInfo{Name: s.name, Version: s.version},
		},
	}
}

func modeKeys() []string {
	modes := compose.AllModes()
	keys := make([]string, len(modes))
	for i, m := range modes {
		keys[i] = string(m)
	}
	return keys
}

func (s *Server) handleToolsList(req JSONRPCRequest) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: jsonrpcVersion,
		ID:      req.ID,
		Result: ToolsListResult{
			Tools: []ToolDef{
				{
					Name:        "write",
					Description: "Write a short piece (letter, poem, note...) from a description of a feeling or moment.",
					InputSchema: map[string]any{
						"type": "object",
						"properties": map[string]any{
							"mode":        map[string]any{"type": "string", "enum": modeKeys(), "description": "Writing mode"},
							"description": map[string]any{"type": "string", "description": "What the writer wants to express"},
							"name":        map[string]any{"type": "string", "description": "Optional person the piece is about or addressed to"},
							"tone":        map[string]any{"type": "string", "enum": []string{"soft", "balanced", "deep"}, "description": "Emotional depth"},
							"language":    map[string]any{"type": "string", "description": "Language code, e.g. en, fr, hi"},
						},
						"required": []string{"mode", "description"},
					},
				},
				{
					Name:        "list_modes",
					Description: "List the writing modes, tones and languages.",
					InputSchema: map[string]any{
						"type":       "object",
						"properties": map[string]any{},
					},
				},
			},
		},
	}
}

func (s *Server) handleToolsCall(ctx context.Context, req JSONRPCRequest) *JSONRPCResponse {
	var params CallToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
		return errorResponse(req.ID, CodeInvalidParams, "Invalid params")
	}

	var result CallToolResult
	switch params.Name {
	case "write":
		result = s.callWrite(ctx, params.Arguments)
	case "list_modes":
		result = s.callListModes()
	default:
		result = textResult(fmt.Sprintf("Unknown tool %s", params.Name), true)
	}

	return &JSONRPCResponse{JSONRPC: jsonrpcVersion, ID: req.ID, Result: result}
}

func (s *Server) callWrite(ctx context.Context, args map[string]any) CallToolResult {
	str := func(key string) string {
		v, _ := args[key].(string)
		return v
	}
	req := pipeline.Request{
		Mode:        str("mode"),
		Name:        str("name"),
		Description: str("description"),
		Tone:        str("tone"),
		Language:    str("language"),
	}

	ctx = metrics.WithChannel(ctx, metrics.ChannelMCP)
	res, err := s.gen.Generate(ctx, req)
	if err != nil {
		if errors.Is(err, pipeline.ErrDescriptionRequired) {
			return textResult("Please write something.", true)
		}
		logger.ErrorCF("mcp", "Generation failed", map[string]any{"error": err.Error()})
		return textResult("Internal error", true)
	}

	out := textResult(res.Response, res.Blocked || res.State == pipeline.StateModeUnavailable)
	out.StructuredContent = res
	return out
}

func (s *Server) callListModes() CallToolResult {
	data, err := json.Marshal(map[string]any{
		"modes":     modeKeys(),
		"tones":     compose.Tones(),
		"languages": compose.Languages(),
	})
	if err != nil {
		return textResult(err.Error(), true)
	}
	return textResult(string(data), false)
}
