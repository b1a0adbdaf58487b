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

type LifecycleService interface {
	GetLifecycle(ctx context.Context, user *entity.User, creatorID int64) (*contract.LifecycleResponse, apierror.ErrorResponse)
	ReportDeath(ctx context.Context, user *entity.User, creatorID int64) (*contract.LifecycleResponse, apierror.ErrorResponse)
	CancelDeathReport(ctx context.Context, user *entity.User, creatorID int64) (*contract.LifecycleResponse, apierror.ErrorResponse)
	InitiateConsent(ctx context.Context, user *entity.User, creatorID int64) (*contract.ConsentStatusResponse, apierror.ErrorResponse)
	GetConsentStatus(ctx context.Context, user *entity.User, creatorID int64) (*contract.ConsentStatusResponse, apierror.ErrorResponse)
	SubmitConsent(ctx context.Context, user *entity.User, creatorID int64, req *contract.ConsentRequest) (*contract.ConsentStatusResponse, apierror.ErrorResponse)
}

type DefaultLifecycleRoute struct {
	LifecycleService LifecycleService
}

func NewLifecycleDefault(lifecycleService LifecycleService) *DefaultLifecycleRoute {
	return &DefaultLifecycleRoute{LifecycleService: lifecycleService}
}

func (l *DefaultLifecycleRoute) GetLifecycle(c echo.Context) error {
	return lifecycleAction(c, http.StatusOK, l.LifecycleService.GetLifecycle)
}

func (l *DefaultLifecycleRoute) ReportDeath(c echo.Context) error {
	return lifecycleAction(c, http.StatusOK, l.LifecycleService.ReportDeath)
}

func (l *DefaultLifecycleRoute) CancelDeathReport(c echo.Context) error {
	return lifecycleAction(c, http.StatusOK, l.LifecycleService.CancelDeathReport)
}

func (l *DefaultLifecycleRoute) InitiateConsent(c echo.Context) error {
	return consentAction(c, http.StatusCreated, l.LifecycleService.InitiateConsent)
}

func (l *DefaultLifecycleRoute) GetConsentStatus(c echo.Context) error {
	return consentAction(c, http.StatusOK, l.LifecycleService.GetConsentStatus)
}

func (l *DefaultLifecycleRoute) SubmitConsent(c echo.Context) error {
	return consentVote(c, l.LifecycleService.SubmitConsent)
}

// The family of creator-scoped actions only differs in the service call.
type lifecycleFunc func(ctx context.Context, user *entity.User, creatorID int64) (*contract.LifecycleResponse, apierror.ErrorResponse)

type consentFunc func(ctx context.Context, user *entity.User, creatorID int64) (*contract.ConsentStatusResponse, apierror.ErrorResponse)

type voteFunc func(ctx context.Context, user *entity.User, creatorID int64, req *contract.ConsentRequest) (*contract.ConsentStatusResponse, apierror.ErrorResponse)

func lifecycleAction(c echo.Context, status int, fn lifecycleFunc) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	creatorID, perr := creatorParam(c, user)
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	resp, apierr := fn(c.Request().Context(), user, creatorID)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(status, resp)
}

func consentAction(c echo.Context, status int, fn consentFunc) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	creatorID, perr := creatorParam(c, user)
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	resp, apierr := fn(c.Request().Context(), user, creatorID)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(status, resp)
}

func consentVote(c echo.Context, fn voteFunc) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	creatorID, perr := creatorParam(c, user)
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	var req contract.ConsentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	resp, apierr := fn(c.Request().Context(), user, creatorID, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}
