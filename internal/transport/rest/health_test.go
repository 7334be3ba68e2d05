package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHealth_AllChecksPass(t *testing.T) {
	h := Health(
		HealthCheck{Name: "postgres", Check: func(ctx context.Context) error { return nil }},
		HealthCheck{Name: "redis", Check: func(ctx context.Context) error { return nil }},
	)

	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestHealth_FailingCheckIsNamed(t *testing.T) {
	h := Health(
		HealthCheck{Name: "postgres", Check: func(ctx context.Context) error { return nil }},
		HealthCheck{Name: "redis", Check: func(ctx context.Context) error { return errors.New("connection refused") }},
	)

	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.JSONEq(t, `{"status":"unavailable","failing":"redis"}`, rr.Body.String())
}

func TestHealth_FirstFailureShortCircuits(t *testing.T) {
	secondRan := false
	h := Health(
		HealthCheck{Name: "postgres", Check: func(ctx context.Context) error { return errors.New("down") }},
		HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
			secondRan = true
			return nil
		}},
	)

	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.Contains(t, rr.Body.String(), "postgres")
	require.False(t, secondRan)
}

func TestHealth_NoChecksIsHealthy(t *testing.T) {
	rr := httptest.NewRecorder()
	Health()(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rr.Code)
}
