package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for name, tc := range map[string]struct {
		ready    ReadyChecker
		expected int
	}{
		"NoChecker": {nil, http.StatusOK},
		"Ready":     {func(*gin.Context) error { return nil }, http.StatusOK},
		"NotReady":  {func(*gin.Context) error { return errors.New("rpc down") }, http.StatusServiceUnavailable},
	} {
		t.Run(name, func(t *testing.T) {
			router := gin.New()
			probes := NewProbesController(tc.ready)
			router.GET("/health", probes.HealthCheck)
			router.GET("/ready", probes.Ready)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, http.StatusOK, w.Code)

			w = httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
			assert.Equal(t, tc.expected, w.Code)
		})
	}
}

func TestUse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()

	router := gin.New()
	Use(router, "test", reg)
	router.GET("/deploy", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/deploy", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	count, err := testutil.GatherAndCount(reg, "test_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = testutil.GatherAndCount(reg, "test_build_info")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
