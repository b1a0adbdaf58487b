package service

import (
	"context"
	"familynotes/cmd/internal/contract"
	"familynotes/cmd/internal/domain/entity"
	"familynotes/cmd/internal/domain/policy"
	"familynotes/cmd/internal/utils"
	"familynotes/cmd/internal/utils/apierror"
	"familynotes/cmd/internal/utils/dbctx"
	"strings"

	"github.com/go-playground/validator/v10"
)

type CategoryReader interface {
	ReadableCategories(dbc dbctx.Context, member *entity.FamilyMember) ([]entity.Category, error)
}

// DefaultNoteService manages the creator's recorded content. Creators write
// while alive, family members read once the notes are opened.
type DefaultNoteService struct {
	*familyCore
	Access     CategoryReader
	NotePolicy *policy.NotePolicy
	Validate   *validator.Validate
}

func NewNoteService(tx TxRunner, repos Repositories, familyPolicy *policy.FamilyPolicy, access CategoryReader, validate *validator.Validate) *DefaultNoteService {
	return &DefaultNoteService{
		familyCore: newFamilyCore(tx, repos, familyPolicy),
		Access:     access,
		NotePolicy: policy.NewNotePolicy(),
		Validate:   validate,
	}
}

func (n *DefaultNoteService) ListOwnNotes(ctx context.Context, user *entity.User) ([]*contract.NoteResponse, apierror.ErrorResponse) {
	notes, err := n.Repos.Notes.FindByCreator(dbctx.Background(ctx), user.ID)
	if err != nil {
		return nil, internalError("fetch notes", err)
	}
	return toNoteResponses(notes), nil
}

func (n *DefaultNoteService) CreateNote(ctx context.Context, user *entity.User, req *contract.NoteRequest) (*contract.NoteResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := n.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	var resp *contract.NoteResponse
	apierr := runTx(ctx, n.Tx, func(dbc dbctx.Context) apierror.ErrorResponse {
		lc, apierr := n.lockLifecycle(dbc, user.ID)
		if apierr != nil {
			return apierr
		}

		actor := &policy.Actor{User: user, CreatorID: user.ID}
		if apierr = n.NotePolicy.CanWrite(actor, lc); apierr != nil {
			return apierr
		}

		now := utils.NowUTC()
		note := &entity.Note{
			CreatorID:  user.ID,
			CategoryID: entity.Category(req.Category),
			Title:      req.Title,
			Content:    req.Content,
			Tags:       strings.ToLower(strings.Join(req.Tags, " ")),
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		if err := n.Repos.Notes.Save(dbc, note); err != nil {
			return internalError("save note", err)
		}

		resp = toNoteResponse(note)
		return nil
	})
	return resp, apierr
}

func (n *DefaultNoteService) UpdateNote(ctx context.Context, user *entity.User, noteID int64, req *contract.UpdateNoteRequest) (*contract.NoteResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := n.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	var resp *contract.NoteResponse
	apierr := runTx(ctx, n.Tx, func(dbc dbctx.Context) apierror.ErrorResponse {
		note, apierr := n.ownNote(dbc, user, noteID)
		if apierr != nil {
			return apierr
		}

		if req.Title != nil {
			note.Title = *req.Title
		}
		if req.Content != nil {
			note.Content = *req.Content
		}
		if req.Category != nil {
			note.CategoryID = entity.Category(*req.Category)
		}
		if req.Tags != nil {
			note.Tags = strings.ToLower(strings.Join(req.Tags, " "))
		}

		note.UpdatedAt = utils.NowUTC()
		if err := n.Repos.Notes.Save(dbc, note); err != nil {
			return internalError("update note", err)
		}

		resp = toNoteResponse(note)
		return nil
	})
	return resp, apierr
}

func (n *DefaultNoteService) DeleteNote(ctx context.Context, user *entity.User, noteID int64) apierror.ErrorResponse {
	return runTx(ctx, n.Tx, func(dbc dbctx.Context) apierror.ErrorResponse {
		note, apierr := n.ownNote(dbc, user, noteID)
		if apierr != nil {
			return apierr
		}

		if err := n.Repos.Notes.Delete(dbc, note); err != nil {
			return internalError("delete note", err)
		}
		return nil
	})
}

// ListReadableNotes returns the opened notes of a creator, limited to the
// categories the calling member may read.
func (n *DefaultNoteService) ListReadableNotes(ctx context.Context, user *entity.User, creatorID int64) ([]*contract.NoteResponse, apierror.ErrorResponse) {
	dbc := dbctx.Background(ctx)
	actor, apierr := n.resolveActor(dbc, user, creatorID)
	if apierr != nil {
		return nil, apierr
	}

	lc, apierr := n.readLifecycle(dbc, creatorID)
	if apierr != nil {
		return nil, apierr
	}

	if apierr = n.NotePolicy.CanReadFamilyNotes(actor, lc); apierr != nil {
		return nil, apierr
	}

	categories, err := n.Access.ReadableCategories(dbc, actor.Membership)
	if err != nil {
		return nil, internalError("resolve readable categories", err)
	}

	notes, err := n.Repos.Notes.FindByCreatorInCategories(dbc, creatorID, categories)
	if err != nil {
		return nil, internalError("fetch notes", err)
	}
	return toNoteResponses(notes), nil
}

// ownNote loads one of the caller's notes with the lifecycle locked and
// checks it may still be written.
func (n *DefaultNoteService) ownNote(dbc dbctx.Context, user *entity.User, noteID int64) (*entity.Note, apierror.ErrorResponse) {
	lc, apierr := n.lockLifecycle(dbc, user.ID)
	if apierr != nil {
		return nil, apierr
	}

	note, err := n.Repos.Notes.FindByID(dbc, noteID)
	if err != nil {
		return nil, internalError("fetch note", err)
	}

	actor := &policy.Actor{User: user, CreatorID: user.ID}
	if apierr = n.NotePolicy.CanOwn(actor, note); apierr != nil {
		return nil, apierr
	}

	if apierr = n.NotePolicy.CanWrite(actor, lc); apierr != nil {
		return nil, apierr
	}
	return note, nil
}

func toNoteResponses(notes []*entity.Note) []*contract.NoteResponse {
	resp := make([]*contract.NoteResponse, len(notes))
	for i, note := range notes {
		resp[i] = toNoteResponse(note)
	}
	return resp
}

func toNoteResponse(note *entity.Note) *contract.NoteResponse {
	return &contract.NoteResponse{
		ID:        note.ID,
		CreatorID: note.CreatorID,
		Category:  note.CategoryID,
		Title:     note.Title,
		Content:   note.Content,
		Tags:      toTagsArray(note.Tags),
		CreatedAt: utils.FormatEpoch(note.CreatedAt),
		UpdatedAt: utils.FormatEpoch(note.UpdatedAt),
	}
}

func toTagsArray(tags string) []string {
	if len(tags) == 0 {
		return []string{}
	}
	return strings.Split(tags, " ")
}
