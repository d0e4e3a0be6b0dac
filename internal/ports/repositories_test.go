package ports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		page     int
		limit    int
		expected Pagination
	}{
		{
			name:  "last partial page",
			total: 15, page: 2, limit: 10,
			expected: Pagination{Page: 2, Limit: 10, Total: 15, TotalPages: 2, HasNextPage: false, HasPrevPage: true},
		},
		{
			name:  "first of several",
			total: 25, page: 1, limit: 10,
			expected: Pagination{Page: 1, Limit: 10, Total: 25, TotalPages: 3, HasNextPage: true, HasPrevPage: false},
		},
		{
			name:  "empty result",
			total: 0, page: 1, limit: 10,
			expected: Pagination{Page: 1, Limit: 10, Total: 0, TotalPages: 0, HasNextPage: false, HasPrevPage: false},
		},
		{
			name:  "page past the end",
			total: 5, page: 3, limit: 10,
			expected: Pagination{Page: 3, Limit: 10, Total: 5, TotalPages: 1, HasNextPage: false, HasPrevPage: true},
		},
		{
			name:  "exact fit",
			total: 20, page: 2, limit: 10,
			expected: Pagination{Page: 2, Limit: 10, Total: 20, TotalPages: 2, HasNextPage: false, HasPrevPage: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NewPagination(tt.total, tt.page, tt.limit))
		})
	}
}

func TestRefreshTokenValidity(t *testing.T) {
	live := RefreshToken{ExpiresAt: time.Now().Add(time.Hour)}
	assert.True(t, live.IsValid())

	expired := RefreshToken{ExpiresAt: time.Now().Add(-time.Hour)}
	assert.False(t, expired.IsValid())
	assert.True(t, expired.IsExpired())

	revokedAt := time.Now()
	revoked := RefreshToken{ExpiresAt: time.Now().Add(time.Hour), RevokedAt: &revokedAt}
	assert.False(t, revoked.IsValid())
	assert.True(t, revoked.IsRevoked())
}
