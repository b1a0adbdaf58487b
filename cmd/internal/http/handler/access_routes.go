package handler

import (
	"context"
	"familynotes/cmd/internal/contract"
	"familynotes/cmd/internal/domain/entity"
	"familynotes/cmd/internal/utils"
	"familynotes/cmd/internal/utils/apierror"
	"net/http"

	"github.com/labstack/echo/v4"
)

type AccessService interface {
	GetAccessMatrix(ctx context.Context, user *entity.User, creatorID int64) (*contract.AccessMatrixResponse, apierror.ErrorResponse)
	GrantCategoryAccess(ctx context.Context, user *entity.User, creatorID, memberID int64, category entity.Category) (*contract.MemberAccessResponse, apierror.ErrorResponse)
	RevokeCategoryAccess(ctx context.Context, user *entity.User, creatorID, memberID int64, category entity.Category) (*contract.MemberAccessResponse, apierror.ErrorResponse)
	ApplyRecommendedPresets(ctx context.Context, user *entity.User, creatorID int64) (*contract.ApplyPresetsResponse, apierror.ErrorResponse)
	ListAccessPresets(ctx context.Context, user *entity.User, creatorID int64) ([]*contract.PresetResponse, apierror.ErrorResponse)
	SetAccessPreset(ctx context.Context, user *entity.User, creatorID, memberID int64, category entity.Category) apierror.ErrorResponse
	RemoveAccessPreset(ctx context.Context, user *entity.User, creatorID, memberID int64, category entity.Category) apierror.ErrorResponse
}

type DefaultAccessRoute struct {
	AccessService AccessService
}

func NewAccessDefault(accessService AccessService) *DefaultAccessRoute {
	return &DefaultAccessRoute{AccessService: accessService}
}

// accessTarget is the (creator, member, category) triple of the matrix routes.
type accessTarget struct {
	user      *entity.User
	creatorID int64
	memberID  int64
	category  entity.Category
}

func parseAccessTarget(c echo.Context) (*accessTarget, apierror.ErrorResponse) {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return nil, cerr
	}

	creatorID, perr := creatorParam(c, user)
	if perr != nil {
		return nil, perr
	}

	memberID, perr := idParam(c, "memberId")
	if perr != nil {
		return nil, perr
	}

	category, perr := categoryParam(c)
	if perr != nil {
		return nil, perr
	}
	return &accessTarget{user: user, creatorID: creatorID, memberID: memberID, category: category}, nil
}

func (a *DefaultAccessRoute) GetAccessMatrix(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	creatorID, perr := creatorParam(c, user)
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	matrix, apierr := a.AccessService.GetAccessMatrix(c.Request().Context(), user, creatorID)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, matrix)
}

func (a *DefaultAccessRoute) GrantCategoryAccess(c echo.Context) error {
	t, perr := parseAccessTarget(c)
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	access, apierr := a.AccessService.GrantCategoryAccess(c.Request().Context(), t.user, t.creatorID, t.memberID, t.category)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, access)
}

func (a *DefaultAccessRoute) RevokeCategoryAccess(c echo.Context) error {
	t, perr := parseAccessTarget(c)
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	access, apierr := a.AccessService.RevokeCategoryAccess(c.Request().Context(), t.user, t.creatorID, t.memberID, t.category)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, access)
}

func (a *DefaultAccessRoute) ApplyRecommendedPresets(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	creatorID, perr := creatorParam(c, user)
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	resp, apierr := a.AccessService.ApplyRecommendedPresets(c.Request().Context(), user, creatorID)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (a *DefaultAccessRoute) ListAccessPresets(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	creatorID, perr := creatorParam(c, user)
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	presets, apierr := a.AccessService.ListAccessPresets(c.Request().Context(), user, creatorID)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"presets": presets}
	return c.JSON(http.StatusOK, &resp)
}

func (a *DefaultAccessRoute) SetAccessPreset(c echo.Context) error {
	t, perr := parseAccessTarget(c)
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	if apierr := a.AccessService.SetAccessPreset(c.Request().Context(), t.user, t.creatorID, t.memberID, t.category); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusNoContent)
}

func (a *DefaultAccessRoute) RemoveAccessPreset(c echo.Context) error {
	t, perr := parseAccessTarget(c)
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	if apierr := a.AccessService.RemoveAccessPreset(c.Request().Context(), t.user, t.creatorID, t.memberID, t.category); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusNoContent)
}
