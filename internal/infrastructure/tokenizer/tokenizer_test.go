package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEstimator_Singleton(t *testing.T) {
	assert.Same(t, GetEstimator(), GetEstimator())
}

func TestEstimator_CountTokens(t *testing.T) {
	e := GetEstimator()

	tests := []struct {
		name     string
		text     string
		minCount int
		maxCount int
	}{
		{name: "空字符串", text: "", minCount: 0, maxCount: 0},
		{name: "短句", text: "Halo, siapa kamu?", minCount: 3, maxCount: 10},
		{name: "长文本", text: "Jadwal ujian akhir semester Program Studi Teknologi Informasi diumumkan minggu depan.", minCount: 10, maxCount: 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := e.CountTokens(tt.text)
			assert.GreaterOrEqual(t, n, tt.minCount)
			assert.LessOrEqual(t, n, tt.maxCount)
		})
	}
}

func TestHeuristic(t *testing.T) {
	assert.Equal(t, 1, heuristic("abc"))
	assert.Equal(t, 2, heuristic("abcde"))
}
