package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/core/internal/domain/entities"
)

func listContext(t *testing.T, query string) echo.Context {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks?"+query, nil)
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec)
}

func TestParseListFilter(t *testing.T) {
	t.Run("full query", func(t *testing.T) {
		c := listContext(t, "page=2&limit=20&priority=high&is_completed=false&sort_by=due_date&sort_order=ASC&due_date_from=2026-01-01T00:00:00Z&due_date_to=2026-12-31T00:00:00Z&search=report")

		filter, err := parseListFilter(c)
		require.NoError(t, err)

		assert.Equal(t, 2, filter.Page)
		assert.Equal(t, 20, filter.Limit)
		assert.Equal(t, entities.PriorityHigh, *filter.Priority)
		assert.False(t, *filter.IsCompleted)
		assert.Equal(t, "due_date", filter.SortBy)
		assert.Equal(t, "asc", filter.SortOrder)
		assert.NotNil(t, filter.DueDateFrom)
		assert.NotNil(t, filter.DueDateTo)
		assert.Equal(t, "report", *filter.Search)
	})

	t.Run("empty query", func(t *testing.T) {
		filter, err := parseListFilter(listContext(t, ""))
		require.NoError(t, err)

		assert.Zero(t, filter.Page)
		assert.Nil(t, filter.Priority)
		assert.Nil(t, filter.Search)
	})

	t.Run("unknown key rejected", func(t *testing.T) {
		_, err := parseListFilter(listContext(t, "status=open"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), `"status"`)
	})

	invalid := []struct {
		name  string
		query string
	}{
		{"page zero", "page=0"},
		{"page not a number", "page=abc"},
		{"limit too large", "limit=101"},
		{"limit zero", "limit=0"},
		{"bad priority", "priority=urgent"},
		{"bad bool", "is_completed=maybe"},
		{"unsortable column", "sort_by=owner_id"},
		{"bad sort order", "sort_order=sideways"},
		{"bad date", "due_date_from=tomorrow"},
	}

	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseListFilter(listContext(t, tt.query))
			assert.Error(t, err)
		})
	}
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{entities.NewValidationError("title", "is required"), http.StatusBadRequest},
		{entities.ErrTaskNotFound, http.StatusNotFound},
		{entities.ErrSubtaskNotFound, http.StatusNotFound},
		{entities.ErrUserNotFound, http.StatusNotFound},
		{entities.ErrEmailTaken, http.StatusConflict},
		{entities.ErrUnauthorized, http.StatusUnauthorized},
		{entities.ErrInvalidToken, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		he, ok := translateError(tt.err).(*echo.HTTPError)
		require.True(t, ok, "expected HTTPError for %v", tt.err)
		assert.Equal(t, tt.status, he.Code)
	}

	t.Run("unknown errors pass through", func(t *testing.T) {
		cause := errors.New("connection reset")
		assert.Equal(t, cause, translateError(cause))
	})
}
