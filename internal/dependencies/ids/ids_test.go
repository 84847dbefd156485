package ids

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIDIsUnique(t *testing.T) {
	g := New()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := g.NewID()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestNewIDIsTimeOrdered(t *testing.T) {
	g := New()
	generated := make([]string, 50)
	for i := range generated {
		generated[i] = g.NewID()
	}

	sorted := append([]string(nil), generated...)
	sort.Strings(sorted)
	assert.Equal(t, generated, sorted)
}
