package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		page, size int
		from, lim  int
	}{
		{name: "defaults", page: 0, size: 0, from: 0, lim: 10},
		{name: "first page", page: 1, size: 20, from: 0, lim: 20},
		{name: "third page", page: 3, size: 20, from: 40, lim: 20},
		{name: "oversized page", page: 2, size: 500, from: 10, lim: 10},
		{name: "negative page", page: -1, size: 5, from: 0, lim: 5},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			from, lim := Calculate(tt.page, tt.size)
			assert.Equal(t, tt.from, from)
			assert.Equal(t, tt.lim, lim)
		})
	}
}
