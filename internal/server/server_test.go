package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iamNilotpal/ignitedb/internal/engine"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	status engine.Status
	err    error
}

func (f fakeProvider) Status() (engine.Status, error) {
	return f.status, f.err
}

func TestHealthzReportsOK(t *testing.T) {
	handler := healthzHandler(fakeProvider{status: engine.Status{Name: "bitcask", TotalCount: 3}})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthzReportsUnavailableWhenClosed(t *testing.T) {
	handler := healthzHandler(fakeProvider{err: engine.ErrClosed})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
