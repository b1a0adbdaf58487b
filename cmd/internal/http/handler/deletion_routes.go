package handler

import (
	"context"
	"familynotes/cmd/internal/contract"
	"familynotes/cmd/internal/domain/entity"
	"familynotes/cmd/internal/utils/apierror"
	"net/http"

	"github.com/labstack/echo/v4"
)

type DeletionService interface {
	InitiateDataDeletion(ctx context.Context, user *entity.User, creatorID int64) (*contract.ConsentStatusResponse, apierror.ErrorResponse)
	CancelDataDeletion(ctx context.Context, user *entity.User, creatorID int64) (*contract.LifecycleResponse, apierror.ErrorResponse)
	GetDeletionConsentStatus(ctx context.Context, user *entity.User, creatorID int64) (*contract.ConsentStatusResponse, apierror.ErrorResponse)
	SubmitDeletionConsent(ctx context.Context, user *entity.User, creatorID int64, req *contract.ConsentRequest) (*contract.ConsentStatusResponse, apierror.ErrorResponse)
}

type DefaultDeletionRoute struct {
	DeletionService DeletionService
}

func NewDeletionDefault(deletionService DeletionService) *DefaultDeletionRoute {
	return &DefaultDeletionRoute{DeletionService: deletionService}
}

func (d *DefaultDeletionRoute) InitiateDataDeletion(c echo.Context) error {
	return consentAction(c, http.StatusCreated, d.DeletionService.InitiateDataDeletion)
}

func (d *DefaultDeletionRoute) CancelDataDeletion(c echo.Context) error {
	return lifecycleAction(c, http.StatusOK, d.DeletionService.CancelDataDeletion)
}

func (d *DefaultDeletionRoute) GetDeletionConsentStatus(c echo.Context) error {
	return consentAction(c, http.StatusOK, d.DeletionService.GetDeletionConsentStatus)
}

func (d *DefaultDeletionRoute) SubmitDeletionConsent(c echo.Context) error {
	return consentVote(c, d.DeletionService.SubmitDeletionConsent)
}
