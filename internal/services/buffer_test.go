package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecommendedBuffer(t *testing.T) {
	tests := []struct {
		km   float64
		want float64
	}{
		{100, 0.40},
		{149.9, 0.40},
		{150, 0.30},
		{249, 0.30},
		{250, 0.25},
		{399, 0.25},
		{400, 0.20},
		{800, 0.20},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, RecommendedBuffer(tc.km), "km=%v", tc.km)
	}
}

func TestEffectiveBuffer(t *testing.T) {
	assert.Equal(t, 0.30, EffectiveBuffer(200, 0))
	assert.Equal(t, MinBufferFraction, EffectiveBuffer(200, 5))
	assert.InDelta(t, 0.35, EffectiveBuffer(200, 35), 1e-12)
}
