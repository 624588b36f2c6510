package models

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectionLabel(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		det      Detection
		expected string
	}{
		{Detection{ClassName: "person", Confidence: 0.95}, "person (95.0%)"},
		{Detection{ClassName: "car", Confidence: 0.2341}, "car (23.4%)"},
		{Detection{ClassName: "dog", Confidence: 1}, "dog (100.0%)"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, tc.det.Label())
		})
	}
}

func TestToDetection(t *testing.T) {
	t.Parallel()

	bounds := image.Rect(0, 0, 640, 480)

	t.Run("scales normalised box", func(t *testing.T) {
		t.Parallel()

		r := DetectionResult{Label: "person", Confidence: 0.5, Box: []float32{0.25, 0.5, 0.75, 1}}
		d, ok := r.ToDetection(bounds)

		assert.True(t, ok)
		assert.Equal(t, "person", d.ClassName)
		assert.InDelta(t, 0.5, d.Confidence, 1e-6)
		assert.Equal(t, Box{X1: 320, Y1: 120, X2: 640, Y2: 360}, d.Box)
	})

	t.Run("clamps out of range coordinates", func(t *testing.T) {
		t.Parallel()

		r := DetectionResult{Label: "cat", Confidence: 0.9, Box: []float32{-0.5, -1, 2, 1.5}}
		d, ok := r.ToDetection(bounds)

		assert.True(t, ok)
		assert.Equal(t, Box{X1: 0, Y1: 0, X2: 640, Y2: 480}, d.Box)
	})

	t.Run("rejects malformed box", func(t *testing.T) {
		t.Parallel()

		_, ok := DetectionResult{Label: "x", Box: []float32{0.1, 0.2}}.ToDetection(bounds)
		assert.False(t, ok)
	})

	t.Run("rejects degenerate box", func(t *testing.T) {
		t.Parallel()

		_, ok := DetectionResult{Label: "x", Box: []float32{0.5, 0.5, 0.5, 0.9}}.ToDetection(bounds)
		assert.False(t, ok)
	})
}
