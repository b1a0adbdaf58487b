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

type NoteService interface {
	ListOwnNotes(ctx context.Context, user *entity.User) ([]*contract.NoteResponse, apierror.ErrorResponse)
	ListReadableNotes(ctx context.Context, user *entity.User, creatorID int64) ([]*contract.NoteResponse, apierror.ErrorResponse)
	CreateNote(ctx context.Context, user *entity.User, req *contract.NoteRequest) (*contract.NoteResponse, apierror.ErrorResponse)
	UpdateNote(ctx context.Context, user *entity.User, noteID int64, req *contract.UpdateNoteRequest) (*contract.NoteResponse, apierror.ErrorResponse)
	DeleteNote(ctx context.Context, user *entity.User, noteID int64) apierror.ErrorResponse
}

type DefaultNoteRoute struct {
	NoteService NoteService
}

func NewNoteDefault(noteService NoteService) *DefaultNoteRoute {
	return &DefaultNoteRoute{NoteService: noteService}
}

// GetNotes serves both sides of the same URL: the creator's own notes when
// the creator is the caller, the opened and granted notes otherwise.
func (n *DefaultNoteRoute) GetNotes(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	creatorID, perr := creatorParam(c, user)
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	var (
		notes  []*contract.NoteResponse
		apierr apierror.ErrorResponse
	)
	if creatorID == user.ID {
		notes, apierr = n.NoteService.ListOwnNotes(c.Request().Context(), user)
	} else {
		notes, apierr = n.NoteService.ListReadableNotes(c.Request().Context(), user, creatorID)
	}

	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"notes": notes}
	return c.JSON(http.StatusOK, &resp)
}

func (n *DefaultNoteRoute) CreateNote(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	creatorID, perr := creatorParam(c, user)
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	if creatorID != user.ID {
		return c.JSON(http.StatusForbidden, apierror.NewForbiddenError("You can only write your own notes"))
	}

	var req contract.NoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	note, apierr := n.NoteService.CreateNote(c.Request().Context(), user, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, &note)
}

func (n *DefaultNoteRoute) UpdateNote(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, perr := idParam(c, "id")
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	var req contract.UpdateNoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	newNote, apierr := n.NoteService.UpdateNote(c.Request().Context(), user, id, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, &newNote)
}

func (n *DefaultNoteRoute) DeleteNote(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	id, perr := idParam(c, "id")
	if perr != nil {
		return c.JSON(perr.Code(), perr)
	}

	serr := n.NoteService.DeleteNote(c.Request().Context(), user, id)
	if serr != nil {
		return c.JSON(serr.Code(), serr)
	}
	return c.NoContent(http.StatusNoContent)
}
