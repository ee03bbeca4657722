package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/clmm-core/internal/common"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

func Error(c *gin.Context, status int, err string) {
	c.JSON(status, Response{
		Success: false,
		Error:   err,
	})
}

func BadRequest(c *gin.Context, err string) {
	Error(c, http.StatusBadRequest, err)
}

// CoreError writes the response for an error returned by the engine, choosing the
// status from its error kind.
func CoreError(c *gin.Context, err error) {
	httpErr := common.HTTPErrorFromCore(err)
	c.JSON(httpErr.StatusCode, Response{
		Success: false,
		Error:   httpErr.Message,
		Code:    httpErr.Code,
	})
}
