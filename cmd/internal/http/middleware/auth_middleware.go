package middleware

import (
	"context"
	"familynotes/cmd/internal/domain/entity"
	"familynotes/cmd/internal/utils"
	"familynotes/cmd/internal/utils/apierror"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type TokenParser interface {
	ParseTokenDataCtx(c echo.Context) (*utils.TokenData, error)
}

type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, data *utils.TokenData) (*entity.User, apierror.ErrorResponse)
}

type AuthMiddlewareConfig struct {
	Tokens TokenParser
	Users  IdentityResolver
}

// NewAuthMiddleware creates the handler with dependencies injected
func NewAuthMiddleware(cfg *AuthMiddlewareConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenData, err := cfg.Tokens.ParseTokenDataCtx(c)
			if err != nil {
				log.Debugf("rejected token: %v", err)
				return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
			}

			user, apierr := cfg.Users.ResolveIdentity(c.Request().Context(), tokenData)
			if apierr != nil {
				return c.JSON(apierr.Code(), apierr)
			}

			utils.SetIdentity(c, user, tokenData.Sub)
			return next(c)
		}
	}
}
