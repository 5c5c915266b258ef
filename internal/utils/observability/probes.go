// Package observability provides metrics and probe endpoints for the smart-wallet deployment service.
package observability

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/asgarovf/smart-wallet/internal/types"
)

// ReadyChecker reports whether a dependency is ready to serve.
type ReadyChecker func(c *gin.Context) error

// ProbesController probe check controller
type ProbesController struct {
	ready ReadyChecker
}

// NewProbesController returns an ProbesController instance. ready may be nil.
func NewProbesController(ready ReadyChecker) *ProbesController {
	return &ProbesController{ready: ready}
}

// HealthCheck the api controller for health check
func (a *ProbesController) HealthCheck(c *gin.Context) {
	types.RenderSuccess(c, nil)
}

// Ready the api controller for ready check
func (a *ProbesController) Ready(c *gin.Context) {
	if a.ready != nil {
		if err := a.ready(c); err != nil {
			types.RenderJSON(c, http.StatusServiceUnavailable, types.InternalServerError, err, nil)
			return
		}
	}
	types.RenderSuccess(c, nil)
}
