package handler

import (
	"context"
	"familynotes/cmd/internal/contract"
	"familynotes/cmd/internal/domain/entity"
	"familynotes/cmd/internal/utils"
	"familynotes/cmd/internal/utils/apierror"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

type NotificationService interface {
	ListNotifications(ctx context.Context, user *entity.User, unreadOnly bool, limit int) (*contract.NotificationListResponse, apierror.ErrorResponse)
	MarkNotificationRead(ctx context.Context, user *entity.User, id int64) apierror.ErrorResponse
	MarkAllNotificationsRead(ctx context.Context, user *entity.User) (int64, apierror.ErrorResponse)
}

type DefaultNotificationRoute struct {
	NotificationService NotificationService
}

func NewNotificationDefault(notificationService NotificationService) *DefaultNotificationRoute {
	return &DefaultNotificationRoute{NotificationService: notificationService}
}

// ListNotifications accepts ?unread=true and ?limit=N.
func (n *DefaultNotificationRoute) ListNotifications(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	unreadOnly := false
	if raw := c.QueryParam("unread"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, apierror.NewInvalidParamTypeError("unread", "bool"))
		}
		unreadOnly = parsed
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return c.JSON(http.StatusBadRequest, apierror.NewInvalidParamTypeError("limit", "int"))
		}
		limit = parsed
	}

	resp, apierr := n.NotificationService.ListNotifications(c.Request().Context(), user, unreadOnly, limit)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (n *DefaultNotificationRoute) MarkNotificationRead(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, perr := idParam(c, "id")
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	if apierr := n.NotificationService.MarkNotificationRead(c.Request().Context(), user, id); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusNoContent)
}

func (n *DefaultNotificationRoute) MarkAllNotificationsRead(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	count, apierr := n.NotificationService.MarkAllNotificationsRead(c.Request().Context(), user)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"updated": count}
	return c.JSON(http.StatusOK, &resp)
}
