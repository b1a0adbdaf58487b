package routes

import (
	"familynotes/cmd/internal/http/handler"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Lifecycle     *handler.DefaultLifecycleRoute
	Deletion      *handler.DefaultDeletionRoute
	Family        *handler.DefaultFamilyRoute
	Access        *handler.DefaultAccessRoute
	Notifications *handler.DefaultNotificationRoute
	Notes         *handler.DefaultNoteRoute
	Users         *handler.DefaultUserRoute
}

// Register mounts every API route under /api behind auth, plus the
// unauthenticated health check.
func Register(e *echo.Echo, h *Handlers, auth echo.MiddlewareFunc) {
	// Docker Compose healthcheck
	e.GET("/health", healthCheckRoute)

	api := e.Group("/api", auth)

	// Users
	api.GET("/users/@me", h.Users.GetSelf)
	api.GET("/users/@me/families", h.Family.ListMemberships)

	// Lifecycle & content consent
	creator := api.Group("/creators/:creatorId")
	creator.GET("/lifecycle", h.Lifecycle.GetLifecycle)
	creator.POST("/lifecycle/death-report", h.Lifecycle.ReportDeath)
	creator.DELETE("/lifecycle/death-report", h.Lifecycle.CancelDeathReport)
	creator.POST("/consent", h.Lifecycle.InitiateConsent)
	creator.GET("/consent", h.Lifecycle.GetConsentStatus)
	creator.POST("/consent/responses", h.Lifecycle.SubmitConsent)

	// Deletion consent
	creator.POST("/deletion", h.Deletion.InitiateDataDeletion)
	creator.DELETE("/deletion", h.Deletion.CancelDataDeletion)
	creator.GET("/deletion", h.Deletion.GetDeletionConsentStatus)
	creator.POST("/deletion/responses", h.Deletion.SubmitDeletionConsent)

	// Family
	creator.POST("/invitations", h.Family.InviteFamilyMember)
	creator.GET("/members", h.Family.ListFamilyMembers)
	creator.POST("/leave", h.Family.LeaveFamily)
	api.GET("/invitations/:token", h.Family.GetInvitation)
	api.POST("/invitations/:token/accept", h.Family.AcceptInvitation)
	api.PATCH("/members/:id", h.Family.UpdateFamilyMember)
	api.DELETE("/members/:id", h.Family.RemoveFamilyMember)

	// Access matrix & presets
	creator.GET("/access", h.Access.GetAccessMatrix)
	creator.PUT("/access/:memberId/:category", h.Access.GrantCategoryAccess)
	creator.DELETE("/access/:memberId/:category", h.Access.RevokeCategoryAccess)
	creator.POST("/access/apply-presets", h.Access.ApplyRecommendedPresets)
	creator.GET("/presets", h.Access.ListAccessPresets)
	creator.PUT("/presets/:memberId/:category", h.Access.SetAccessPreset)
	creator.DELETE("/presets/:memberId/:category", h.Access.RemoveAccessPreset)

	// Notifications
	api.GET("/notifications", h.Notifications.ListNotifications)
	api.PATCH("/notifications/:id/read", h.Notifications.MarkNotificationRead)
	api.POST("/notifications/read-all", h.Notifications.MarkAllNotificationsRead)

	// Notes
	creator.GET("/notes", h.Notes.GetNotes)
	creator.POST("/notes", h.Notes.CreateNote)
	api.PATCH("/notes/:id", h.Notes.UpdateNote)
	api.DELETE("/notes/:id", h.Notes.DeleteNote)
}

func healthCheckRoute(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}
