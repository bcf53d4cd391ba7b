package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder_NoPanic(t *testing.T) {
	r := &Recorder{startTime: time.Now()}

	t.Run("RecordGeneration", func(t *testing.T) {
		r.RecordGeneration("poem", "delivered", "", "http", 100*time.Millisecond)
	})

	t.Run("RecordLLMCall", func(t *testing.T) {
		r.RecordLLMCall("llama3.2:3b", "ollama", "success", 2*time.Second)
	})

	t.Run("RecordLLMError", func(t *testing.T) {
		r.RecordLLMError("llama3.2:3b", "ollama", "transport")
	})

	t.Run("UpdateUptime", func(t *testing.T) {
		r.UpdateUptime()
	})
}

func TestRecordSafetyBlock_Counts(t *testing.T) {
	r := DefaultRecorder()
	before := testutil.ToFloat64(safetyBlocks.WithLabelValues("self_harm"))

	r.RecordSafetyBlock("self_harm")
	r.RecordSafetyBlock("self_harm")

	after := testutil.ToFloat64(safetyBlocks.WithLabelValues("self_harm"))
	assert.Equal(t, before+2, after)
}

func TestRecordFallback_BySource(t *testing.T) {
	r := DefaultRecorder()
	before := testutil.ToFloat64(fallbackServed.WithLabelValues("quote", "soft", "catalog"))

	r.RecordFallback("quote", "soft", "catalog")

	assert.Equal(t, before+1, testutil.ToFloat64(fallbackServed.WithLabelValues("quote", "soft", "catalog")))
}

func TestWithChannel(t *testing.T) {
	ctx := WithChannel(context.Background(), ChannelTelegram)
	assert.Equal(t, string(ChannelTelegram), ChannelFromContext(ctx))
}

func TestChannelFromContext_Default(t *testing.T) {
	assert.Equal(t, string(ChannelCLI), ChannelFromContext(context.Background()))
}
