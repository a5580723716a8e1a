package stats

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNearestRank(t *testing.T) {
	sample := []float64{10, 20, 30, 40}

	require.Equal(t, 10.0, NearestRank(sample, 0))
	require.Equal(t, 20.0, NearestRank(sample, 33))
	require.Equal(t, 30.0, NearestRank(sample, 50)) // round(0.5*3) = 2
	require.Equal(t, 40.0, NearestRank(sample, 90))
	require.Equal(t, 40.0, NearestRank(sample, 100))
}

func TestNearestRankSingleElement(t *testing.T) {
	sample := []float64{7}
	require.Equal(t, 7.0, NearestRank(sample, 0))
	require.Equal(t, 7.0, NearestRank(sample, 50))
	require.Equal(t, 7.0, NearestRank(sample, 100))
}
