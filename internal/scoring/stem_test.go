package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStemEquivalence(t *testing.T) {
	cases := []struct{ a, b string }{
		{"running", "runs"},
		{"turbines", "turbine"},
		{"connection", "connections"},
		{"organizing", "organization"},
	}
	for _, c := range cases {
		assert.Equal(t, Stem(c.a), Stem(c.b), "%q vs %q", c.a, c.b)
	}
}

func TestStemLeavesShortWordsAlone(t *testing.T) {
	assert.Equal(t, "go", Stem("go"))
	assert.Equal(t, "it", Stem("it"))
}
