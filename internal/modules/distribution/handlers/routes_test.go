package handlers

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func TestRegisterRoutes(t *testing.T) {
	router, _ := setupRouter(t)

	routes := map[string]bool{}
	err := chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes[method+" "+route] = true
		return nil
	})
	assert.NoError(t, err)

	for _, want := range []string{
		"POST /allocations/uniform",
		"POST /allocations/multi-segment",
		"POST /allocations/weighted",
		"POST /allocations/batch",
		"POST /allocations/truncation",
		"GET /allocations/runs",
		"GET /allocations/runs/{runID}",
	} {
		assert.True(t, routes[want], "missing route %s", want)
	}
}
