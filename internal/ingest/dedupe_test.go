package ingest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeduper(t *testing.T) {
	dd := NewDeduper(100, 0.01)

	assert.False(t, dd.Seen("laptop"))
	assert.False(t, dd.Seen("mouse"))
	assert.True(t, dd.Seen("laptop"))
	assert.True(t, dd.Seen("mouse"))
	assert.Equal(t, 2, dd.Len())
}

func TestDeduper_Saturated(t *testing.T) {
	// A tiny filter produces many false positives; the exact set must still
	// report only real duplicates.
	dd := NewDeduper(1, 0.5)

	for i := range 500 {
		assert.False(t, dd.Seen(fmt.Sprintf("p-%d", i)))
	}
	for i := range 500 {
		assert.True(t, dd.Seen(fmt.Sprintf("p-%d", i)))
	}
	assert.Equal(t, 500, dd.Len())
}
