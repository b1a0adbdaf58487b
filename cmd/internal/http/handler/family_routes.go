package handler

import (
	"context"
	"familynotes/cmd/internal/contract"
	"familynotes/cmd/internal/domain/entity"
	"familynotes/cmd/internal/utils"
	"familynotes/cmd/internal/utils/apierror"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type FamilyService interface {
	InviteFamilyMember(ctx context.Context, user *entity.User, creatorID int64, req *contract.InviteRequest) (*contract.InvitationResponse, apierror.ErrorResponse)
	GetInvitation(ctx context.Context, token string) (*contract.InvitationResponse, apierror.ErrorResponse)
	AcceptInvitation(ctx context.Context, user *entity.User, token string) (*contract.FamilyMemberResponse, apierror.ErrorResponse)
	ListFamilyMembers(ctx context.Context, user *entity.User, creatorID int64) (*contract.FamilyResponse, apierror.ErrorResponse)
	ListMemberships(ctx context.Context, user *entity.User) ([]*contract.MembershipResponse, apierror.ErrorResponse)
	UpdateFamilyMember(ctx context.Context, user *entity.User, memberID int64, req *contract.UpdateMemberRequest) (*contract.FamilyMemberResponse, apierror.ErrorResponse)
	RemoveFamilyMember(ctx context.Context, user *entity.User, memberID int64) apierror.ErrorResponse
	LeaveFamily(ctx context.Context, user *entity.User, creatorID int64) apierror.ErrorResponse
}

type DefaultFamilyRoute struct {
	FamilyService FamilyService
}

func NewFamilyDefault(familyService FamilyService) *DefaultFamilyRoute {
	return &DefaultFamilyRoute{FamilyService: familyService}
}

func (f *DefaultFamilyRoute) InviteFamilyMember(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	creatorID, perr := creatorParam(c, user)
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	var req contract.InviteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	inv, apierr := f.FamilyService.InviteFamilyMember(c.Request().Context(), user, creatorID, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, inv)
}

// GetInvitation lets the invitee preview who invited them before accepting.
func (f *DefaultFamilyRoute) GetInvitation(c echo.Context) error {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("token"))
	}

	inv, apierr := f.FamilyService.GetInvitation(c.Request().Context(), token)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, inv)
}

func (f *DefaultFamilyRoute) AcceptInvitation(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("token"))
	}

	member, apierr := f.FamilyService.AcceptInvitation(c.Request().Context(), user, token)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, member)
}

func (f *DefaultFamilyRoute) ListFamilyMembers(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	creatorID, perr := creatorParam(c, user)
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	family, apierr := f.FamilyService.ListFamilyMembers(c.Request().Context(), user, creatorID)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, family)
}

func (f *DefaultFamilyRoute) ListMemberships(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	families, apierr := f.FamilyService.ListMemberships(c.Request().Context(), user)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"families": families}
	return c.JSON(http.StatusOK, &resp)
}

func (f *DefaultFamilyRoute) UpdateFamilyMember(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, perr := idParam(c, "id")
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	var req contract.UpdateMemberRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	member, apierr := f.FamilyService.UpdateFamilyMember(c.Request().Context(), user, id, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, member)
}

func (f *DefaultFamilyRoute) RemoveFamilyMember(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, perr := idParam(c, "id")
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	if apierr := f.FamilyService.RemoveFamilyMember(c.Request().Context(), user, id); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusNoContent)
}

func (f *DefaultFamilyRoute) LeaveFamily(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	creatorID, perr := creatorParam(c, user)
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	if apierr := f.FamilyService.LeaveFamily(c.Request().Context(), user, creatorID); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusNoContent)
}
