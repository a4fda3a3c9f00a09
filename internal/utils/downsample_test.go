package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownsampleShortSeriesUntouched(t *testing.T) {
	series := []int{1, 2, 3}
	assert.Equal(t, series, Downsample(series, 50))
	assert.Equal(t, series, Downsample(series, 3))
}

func TestDownsampleKeepsEndpoints(t *testing.T) {
	series := make([]int, 120)
	for i := range series {
		series[i] = i
	}

	out := Downsample(series, 50)
	require.NotEmpty(t, out)
	assert.LessOrEqual(t, len(out), 50)
	assert.Equal(t, 0, out[0])
	assert.Equal(t, 119, out[len(out)-1])

	// order preserved, no duplicates
	for i := 1; i < len(out); i++ {
		assert.Greater(t, out[i], out[i-1])
	}
}

func TestDownsampleAdjacentDuplicatesSkipped(t *testing.T) {
	series := []int{7, 7, 7, 7, 7, 7, 7, 7, 7, 8}

	out := Downsample(series, 4)
	assert.Equal(t, []int{7, 8}, out)
}

func TestDownsampleLargeSeries(t *testing.T) {
	series := make([]int, 1000)
	for i := range series {
		series[i] = i
	}

	out := Downsample(series, 200)
	assert.LessOrEqual(t, len(out), 200)
	assert.Equal(t, 0, out[0])
	assert.Equal(t, 999, out[len(out)-1])
}
