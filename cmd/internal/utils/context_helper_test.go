package utils

import (
	"familynotes/cmd/internal/domain/entity"
	"familynotes/cmd/internal/utils/apierror"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func newContext() echo.Context {
	e := echo.New()
	return e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
}

func TestGetUserFromContext(t *testing.T) {
	c := newContext()
	if _, apierr := GetUserFromContext(c); apierr != apierror.UnauthorizedError {
		t.Fatalf("expected unauthorized without identity, got %v", apierr)
	}

	SetIdentity(c, &entity.User{ID: 3, Active: true}, "sub-3")
	user, apierr := GetUserFromContext(c)
	if apierr != nil || user.ID != 3 {
		t.Fatalf("expected user 3, got %v %v", user, apierr)
	}
	if c.Get(ContextSubKey) != "sub-3" {
		t.Errorf("sub not stored")
	}
}

func TestGetUserFromContextRejects(t *testing.T) {
	c := newContext()
	SetIdentity(c, &entity.User{ID: 3}, "sub-3")
	if _, apierr := GetUserFromContext(c); apierr != apierror.UnauthorizedError {
		t.Errorf("inactive users are unauthenticated, got %v", apierr)
	}

	c = newContext()
	c.Set(ContextUserKey, "not a user")
	if _, apierr := GetUserFromContext(c); apierr != apierror.InternalServerError {
		t.Errorf("expected internal error for wrong type, got %v", apierr)
	}
}
