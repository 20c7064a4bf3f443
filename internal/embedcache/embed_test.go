package embedcache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	return []float32{float32(len(text))}, nil
}

func TestCacheDeduplicatesIdenticalText(t *testing.T) {
	emb := &countingEmbedder{}
	c := New(emb)

	v1, err := c.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	v2, err := c.Embed(context.Background(), "hello world")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, emb.calls)
}

func TestCacheEvictsOldestBeyondCapacity(t *testing.T) {
	emb := &countingEmbedder{}
	c := NewWithCapacity(emb, 2)

	_, _ = c.Embed(context.Background(), "a")
	_, _ = c.Embed(context.Background(), "b")
	_, _ = c.Embed(context.Background(), "c") // evicts "a"
	assert.Equal(t, 2, c.Len())

	_, _ = c.Embed(context.Background(), "a")
	assert.Equal(t, 4, emb.calls) // a, b, c, a-again (evicted, re-embedded)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 0}, []float32{1, 0}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, Cosine([]float32{1, 2}, []float32{1}))
	assert.Equal(t, 0.0, Cosine(nil, nil))
}

func TestNilEmbedderDegradesSilently(t *testing.T) {
	c := New(nil)
	v, err := c.Embed(context.Background(), "text")
	require.NoError(t, err)
	assert.Nil(t, v)
}
