package middleware

import "github.com/gin-gonic/gin"

// errorResponse has the JSON shape of handler.APIResponse for failures. The
// handler package imports this one, so the envelope is mirrored here.
type errorResponse struct {
	Success bool       `json:"success"`
	Error   *errorInfo `json:"error"`
}

type errorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// abortWithError stops the chain with an error envelope.
func abortWithError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{
		Error: &errorInfo{Code: code, Message: msg},
	})
}
