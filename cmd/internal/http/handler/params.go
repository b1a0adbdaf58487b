package handler

import (
	"familynotes/cmd/internal/domain/entity"
	"familynotes/cmd/internal/utils"
	"familynotes/cmd/internal/utils/apierror"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// creatorParam reads ":creatorId", where "@me" stands for the caller.
func creatorParam(c echo.Context, user *entity.User) (int64, apierror.ErrorResponse) {
	raw := c.Param("creatorId")
	if raw == "" {
		return 0, apierror.NewMissingParamError("creatorId")
	}

	id, ok := utils.ParseID(raw, user.ID)
	if !ok {
		return 0, apierror.NewInvalidParamTypeError("creatorId", "int64 or @me")
	}
	return id, nil
}

func idParam(c echo.Context, name string) (int64, apierror.ErrorResponse) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apierror.NewInvalidParamTypeError(name, "int64")
	}
	return id, nil
}

func categoryParam(c echo.Context) (entity.Category, apierror.ErrorResponse) {
	category := entity.Category(c.Param("category"))
	if !category.Valid() {
		return "", apierror.NewSimple(http.StatusBadRequest, apierror.KindBadRequest, "Unknown category '%s', expected one of: %s", category, entity.CategoryOneOf)
	}
	return category, nil
}
