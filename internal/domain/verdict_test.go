package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelForScore_Partition(t *testing.T) {
	tests := []struct {
		score float64
		want  RiskLevel
	}{
		{0, LevelLow},
		{39.9, LevelLow},
		{40, LevelModerate},
		{59.9, LevelModerate},
		{60, LevelHigh},
		{79.9, LevelHigh},
		{80, LevelCritical},
		{100, LevelCritical},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelForScore(tt.score), "score %.1f", tt.score)
	}
}
