package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/praevita/praevita/internal/common"
	"github.com/praevita/praevita/internal/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSynthesizer(client Client) *Synthesizer {
	return NewSynthesizerWithClient(Config{
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	}, client)
}

func testPayload() report.Payload {
	return report.Payload{
		SystemPrompt: "system",
		UserPrompt:   "user",
		Period:       "November 2025",
	}
}

func TestSynthesizer_Synthesize(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the report on first success", func(t *testing.T) {
		mock := &MockClient{}
		s := testSynthesizer(mock)

		result, err := s.Synthesize(ctx, testPayload())
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, 1, mock.Calls())
		assert.NotEmpty(t, result.RegionalData)
	})

	t.Run("retries transient failures", func(t *testing.T) {
		mock := &MockClient{
			Err:       errors.New("rate limited"),
			FailCount: 2,
		}
		s := testSynthesizer(mock)

		result, err := s.Synthesize(ctx, testPayload())
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, 3, mock.Calls(), "two failures then one success")
	})

	t.Run("exhausted retries surface as synthesis failure", func(t *testing.T) {
		mock := &MockClient{Err: errors.New("provider down")}
		s := testSynthesizer(mock)

		result, err := s.Synthesize(ctx, testPayload())
		require.Error(t, err)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, common.ErrSynthesisFailed)
		assert.Contains(t, err.Error(), "provider down", "provider detail must be preserved")
		assert.Equal(t, 3, mock.Calls())
	})

	t.Run("fills the reporting period when the provider omits it", func(t *testing.T) {
		mock := &MockClient{}
		s := testSynthesizer(mock)

		result, err := s.Synthesize(ctx, testPayload())
		require.NoError(t, err)
		assert.Equal(t, "November 2025", result.ReportingPeriod)
	})
}
