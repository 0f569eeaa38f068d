// Package echo adapts the payment gateway to echo routes.
package echo

import (
	"github.com/labstack/echo/v4"

	zhttp "github.com/zynapse-ai/zynapse-go/http"
)

// PaymentMiddleware guards echo routes behind the gateway's verifier.
func PaymentMiddleware(gateway *zhttp.Gateway) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			v := gateway.Verify(c.Request())
			if !v.Passed() {
				return c.JSON(v.HTTPStatus(), gateway.Challenge(v))
			}
			return next(c)
		}
	}
}
