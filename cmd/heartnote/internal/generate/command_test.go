package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartnote/heartnote/pkg/metrics"
	"github.com/heartnote/heartnote/pkg/pipeline"
)

type mockGenerator struct {
	req     pipeline.Request
	channel string
	res     pipeline.Result
}

func (m *mockGenerator) Generate(ctx context.Context, req pipeline.Request) (pipeline.Result, error) {
	m.req = req
	m.channel = metrics.ChannelFromContext(ctx)
	if err := req.Validate(); err != nil {
		return pipeline.Result{}, err
	}
	return m.res, nil
}

func TestRun_PlainText(t *testing.T) {
	gen := &mockGenerator{res: pipeline.Result{Response: "Dear Maya,\n\nthank you.", State: pipeline.StateDelivered}}
	var out bytes.Buffer

	err := run(context.Background(), gen, flags{mode: "letter", name: "Maya", tone: "soft", language: "en"}, "thank you", &out)

	require.NoError(t, err)
	assert.Equal(t, "Dear Maya,\n\nthank you.\n", out.String())
	assert.Equal(t, pipeline.Request{Mode: "letter", Name: "Maya", Description: "thank you", Tone: "soft", Language: "en"}, gen.req)
	assert.Equal(t, "cli", gen.channel)
}

func TestRun_JSON(t *testing.T) {
	gen := &mockGenerator{res: pipeline.Result{Response: "canned", IsFallback: true, State: pipeline.StateDegraded, Reason: "transport"}}
	var out bytes.Buffer

	err := run(context.Background(), gen, flags{mode: "poem", asJSON: true}, "rain", &out)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "canned", got["response"])
	assert.Equal(t, true, got["is_fallback"])
	assert.Equal(t, "DEGRADED", got["state"])
}

func TestRun_EmptyDescription(t *testing.T) {
	err := run(context.Background(), &mockGenerator{}, flags{mode: "poem"}, "  ", &bytes.Buffer{})
	assert.ErrorIs(t, err, pipeline.ErrDescriptionRequired)
}
