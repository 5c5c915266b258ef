// Package types provides request and response schemas of the smart-wallet deployment service.
package types

import (
	"github.com/gin-gonic/gin"
)

const (
	// Success shows OK.
	Success = 0
	// InternalServerError shows a fatal error in the server
	InternalServerError = 500
	// NotFoundErrorCode indicates the requested record does not exist
	NotFoundErrorCode = 404
	// StorageDisabledErrorCode indicates the server runs without a database
	StorageDisabledErrorCode = 503
)

// Response the response schema
type Response struct {
	ErrCode int         `json:"errcode"`
	ErrMsg  string      `json:"errmsg"`
	Data    interface{} `json:"data"`
}

// ErrorResponse is the body of every failed /deploy call.
type ErrorResponse struct {
	Message string `json:"message"`
	Address string `json:"address,omitempty"`
}

// RenderJSON renders response with json
func RenderJSON(ctx *gin.Context, status int, errCode int, err error, data interface{}) {
	var errMsg string
	if err != nil {
		errMsg = err.Error()
	}
	renderData := Response{
		ErrCode: errCode,
		ErrMsg:  errMsg,
		Data:    data,
	}
	ctx.JSON(status, renderData)
}

// RenderSuccess renders success response with json
func RenderSuccess(ctx *gin.Context, data interface{}) {
	RenderJSON(ctx, 200, Success, nil, data)
}

// RenderError aborts the request with an ErrorResponse.
func RenderError(ctx *gin.Context, status int, message string) {
	ctx.AbortWithStatusJSON(status, ErrorResponse{Message: message})
}
