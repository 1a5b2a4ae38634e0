package clustering

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRenumbersLabels(t *testing.T) {
	c := New("test", nil, []int{7, 7, 3, -1, 3, 9, -5})
	assert.Equal(t, []int{0, 0, 1, Noise, 1, 2, Noise}, c.Labels)
	assert.Equal(t, 3, c.Size())
	assert.Equal(t, 2, c.NoiseCount())
	assert.Equal(t, 7, c.Len())
	assert.NotEmpty(t, c.ID)
}

func TestClustersAndFingerprint(t *testing.T) {
	c := New("test", nil, []int{0, 1, 1, 1, 2, 2, -1})
	assert.Equal(t, [][]int{{0}, {1, 2, 3}, {4, 5}}, c.Clusters())
	assert.Equal(t, []int{1, 3, 2}, c.Sizes())
	assert.Equal(t, "[3,2,1]", c.Fingerprint())
}

func TestAllNoise(t *testing.T) {
	c := New("test", nil, []int{-1, -1})
	assert.Equal(t, 0, c.Size())
	assert.Equal(t, "[]", c.Fingerprint())
	assert.Empty(t, c.Clusters())
}

func TestScoreCache(t *testing.T) {
	c := New("test", nil, []int{0})
	_, ok := c.Score("Silhouette")
	assert.False(t, ok)

	c.SetScore("Silhouette", 0.75)
	v, ok := c.Score("Silhouette")
	assert.True(t, ok)
	assert.Equal(t, 0.75, v)

	scores := c.Scores()
	scores["Silhouette"] = 0
	v, _ = c.Score("Silhouette")
	assert.Equal(t, 0.75, v, "Scores returns a copy")
}

func TestUniqueIDs(t *testing.T) {
	a := New("x", nil, []int{0})
	b := New("x", nil, []int{0})
	assert.NotEqual(t, a.ID, b.ID)
}
