package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/paiban/homevisit/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method string
	path   string
	status int
}

type fakeRecorder struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (r *fakeRecorder) RecordRequest(method, path string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, recordedRequest{method, path, status})
}

func newServer(recorder RequestRecorder) *echo.Echo {
	e := echo.New()
	e.Use(RequestID(), AccessLog(recorder), Recover())
	e.GET("/items/:id", func(c echo.Context) error {
		return c.String(http.StatusOK, logger.RequestIDFromContext(c.Request().Context()))
	})
	e.GET("/fail", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest, "坏请求")
	})
	e.GET("/boom", func(c echo.Context) error {
		panic(errors.New("炸了"))
	})
	return e
}

func TestRequestID(t *testing.T) {
	e := newServer(nil)

	t.Run("生成新ID", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/1", nil))

		id := rec.Header().Get(echo.HeaderXRequestID)
		require.NotEmpty(t, id)
		assert.Equal(t, id, rec.Body.String())
	})

	t.Run("沿用请求头", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/items/1", nil)
		req.Header.Set(echo.HeaderXRequestID, "req-123")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, "req-123", rec.Header().Get(echo.HeaderXRequestID))
		assert.Equal(t, "req-123", rec.Body.String())
	})
}

func TestAccessLog_RecordsRouteTemplate(t *testing.T) {
	recorder := &fakeRecorder{}
	e := newServer(recorder)

	for _, path := range []string{"/items/1", "/items/2", "/fail"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.Len(t, recorder.requests, 3)
	assert.Equal(t, recordedRequest{http.MethodGet, "/items/:id", http.StatusOK}, recorder.requests[0])
	assert.Equal(t, "/items/:id", recorder.requests[1].path)
	assert.Equal(t, http.StatusBadRequest, recorder.requests[2].status)
}

func TestRecover(t *testing.T) {
	recorder := &fakeRecorder{}
	e := newServer(recorder)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Len(t, recorder.requests, 1)
	assert.Equal(t, http.StatusInternalServerError, recorder.requests[0].status)
}
