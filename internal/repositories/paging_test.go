package repositories

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageOffset(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		page, limit int
		want        int
		wantOK      bool
	}{
		{name: "first page", page: 1, limit: 10, want: 0, wantOK: true},
		{name: "third page", page: 3, limit: 20, want: 40, wantOK: true},
		{name: "non-positive page", page: 0, limit: 10, want: 0, wantOK: true},
		{name: "last representable page", page: math.MaxInt/10 + 1, limit: 10, want: math.MaxInt / 10 * 10, wantOK: true},
		{name: "one page further overflows", page: math.MaxInt/10 + 2, limit: 10, wantOK: false},
		{name: "max page", page: math.MaxInt, limit: 10, wantOK: false},
		{name: "max page at limit one", page: math.MaxInt, limit: 1, want: math.MaxInt - 1, wantOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PageOffset(tt.page, tt.limit)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
