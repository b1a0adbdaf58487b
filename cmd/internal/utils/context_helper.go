package utils

import (
	"familynotes/cmd/internal/domain/entity"
	"familynotes/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

const (
	ContextUserKey = "user"
	ContextSubKey  = "sub"
)

// SetIdentity stores the resolved caller for the handlers down the chain.
func SetIdentity(c echo.Context, user *entity.User, sub string) {
	c.Set(ContextUserKey, user)
	c.Set(ContextSubKey, sub)
}

// GetUserFromContext returns the caller resolved by the auth middleware.
// Deactivated accounts are treated as unauthenticated.
func GetUserFromContext(c echo.Context) (*entity.User, apierror.ErrorResponse) {
	val := c.Get(ContextUserKey)
	if val == nil {
		log.Warnf("route %s attempted to read nil user from context", c.Request().URL)
		return nil, apierror.UnauthorizedError
	}

	user, ok := val.(*entity.User)
	if !ok {
		log.Warnf("expected user type at %q context key, got %T", ContextUserKey, val)
		return nil, apierror.InternalServerError
	}

	if !user.Active {
		return nil, apierror.UnauthorizedError
	}
	return user, nil
}
