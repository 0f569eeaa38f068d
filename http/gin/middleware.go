// Package gin adapts the payment gateway to gin routes.
package gin

import (
	"github.com/gin-gonic/gin"

	zhttp "github.com/zynapse-ai/zynapse-go/http"
)

// PaymentMiddleware guards a gin route behind the gateway's verifier. On a
// failed verification the request is aborted with the mapped status and
// challenge body; on success the handler chain continues untouched.
func PaymentMiddleware(gateway *zhttp.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		v := gateway.Verify(c.Request)
		if !v.Passed() {
			c.AbortWithStatusJSON(v.HTTPStatus(), gateway.Challenge(v))
			return
		}
		c.Next()
	}
}
