package middleware

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/oakmere/adviserdesk/internal/domain"
)

// RequesterMiddleware lifts the adviser identity header into the request
// context. Verifying the identity belongs to the gateway in front of this
// service.
type RequesterMiddleware struct{}

func NewRequesterMiddleware() *RequesterMiddleware {
	return &RequesterMiddleware{}
}

func (m *RequesterMiddleware) IdentifyRequester(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requester := c.Request().Header.Get(domain.RequesterIdHeader)
		if requester != "" {
			ctx := context.WithValue(c.Request().Context(), domain.RequesterIdCtxKey, requester)
			c.SetRequest(c.Request().WithContext(ctx))
		}
		return next(c)
	}
}
