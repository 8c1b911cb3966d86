package store

import (
	"fmt"
	"testing"

	"intellidocs/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQAHistoryNewestFirst(t *testing.T) {
	h := NewQAHistory(10)
	h.Add("q1", "a1", nil, types.ValidationReport{})
	h.Add("q2", "a2", nil, types.ValidationReport{})
	h.Add("q3", "a3", nil, types.ValidationReport{})

	items := h.List(2)
	require.Len(t, items, 2)
	assert.Equal(t, "q3", items[0].Question)
	assert.Equal(t, "q2", items[1].Question)
}

func TestQAHistoryCapacity(t *testing.T) {
	h := NewQAHistory(3)
	for i := 0; i < 5; i++ {
		h.Add(fmt.Sprintf("q%d", i), "a", nil, types.ValidationReport{})
	}
	items := h.List(10)
	require.Len(t, items, 3)
	assert.Equal(t, "q4", items[0].Question)
	assert.Equal(t, "q2", items[2].Question)
}

func TestQAHistoryEmpty(t *testing.T) {
	h := NewQAHistory(0)
	assert.Empty(t, h.List(5))
}
