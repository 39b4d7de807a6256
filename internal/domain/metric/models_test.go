package metric

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(Totals{})
	assert.Zero(t, s.TotalRequests)
	assert.Zero(t, s.SuccessRate)
	assert.Zero(t, s.AvgResponseTimeMs)
}

func TestSummarize_Rates(t *testing.T) {
	s := Summarize(Totals{
		Total:      3,
		Success:    2,
		Failed:     1,
		Fallback:   1,
		Intent:     1,
		DurationMs: 1000,
	})

	assert.Equal(t, int64(333), s.AvgResponseTimeMs)
	assert.Equal(t, 66.7, s.SuccessRate)
	assert.Equal(t, 33.3, s.ErrorRate)
	assert.Equal(t, 33.3, s.FallbackRate)
	assert.Equal(t, int64(1), s.IntentResponses)
}
