package routes

import (
	"context"
	"encoding/json"
	"familynotes/cmd/internal/contract"
	"familynotes/cmd/internal/domain/entity"
	"familynotes/cmd/internal/http/handler"
	"familynotes/cmd/internal/utils"
	"familynotes/cmd/internal/utils/apierror"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

// fakeAPI implements every service interface the handlers depend on and
// records what the last call received.
type fakeAPI struct {
	call      string
	creatorID int64
	memberID  int64
	category  entity.Category
	token     string
	consented *bool
	unread    bool
	limit     int
	fail      apierror.ErrorResponse
}

func (f *fakeAPI) creator(name string, creatorID int64) {
	f.call = name
	f.creatorID = creatorID
}

func (f *fakeAPI) GetLifecycle(_ context.Context, _ *entity.User, creatorID int64) (*contract.LifecycleResponse, apierror.ErrorResponse) {
	f.creator("GetLifecycle", creatorID)
	return &contract.LifecycleResponse{CreatorID: creatorID, Status: entity.LifecycleActive}, f.fail
}

func (f *fakeAPI) ReportDeath(_ context.Context, _ *entity.User, creatorID int64) (*contract.LifecycleResponse, apierror.ErrorResponse) {
	f.creator("ReportDeath", creatorID)
	return &contract.LifecycleResponse{CreatorID: creatorID}, f.fail
}

func (f *fakeAPI) CancelDeathReport(_ context.Context, _ *entity.User, creatorID int64) (*contract.LifecycleResponse, apierror.ErrorResponse) {
	f.creator("CancelDeathReport", creatorID)
	return &contract.LifecycleResponse{CreatorID: creatorID}, f.fail
}

func (f *fakeAPI) InitiateConsent(_ context.Context, _ *entity.User, creatorID int64) (*contract.ConsentStatusResponse, apierror.ErrorResponse) {
	f.creator("InitiateConsent", creatorID)
	return &contract.ConsentStatusResponse{CreatorID: creatorID}, f.fail
}

func (f *fakeAPI) GetConsentStatus(_ context.Context, _ *entity.User, creatorID int64) (*contract.ConsentStatusResponse, apierror.ErrorResponse) {
	f.creator("GetConsentStatus", creatorID)
	return &contract.ConsentStatusResponse{CreatorID: creatorID}, f.fail
}

func (f *fakeAPI) SubmitConsent(_ context.Context, _ *entity.User, creatorID int64, req *contract.ConsentRequest) (*contract.ConsentStatusResponse, apierror.ErrorResponse) {
	f.creator("SubmitConsent", creatorID)
	f.consented = req.Consented
	return &contract.ConsentStatusResponse{CreatorID: creatorID}, f.fail
}

func (f *fakeAPI) InitiateDataDeletion(_ context.Context, _ *entity.User, creatorID int64) (*contract.ConsentStatusResponse, apierror.ErrorResponse) {
	f.creator("InitiateDataDeletion", creatorID)
	return &contract.ConsentStatusResponse{CreatorID: creatorID}, f.fail
}

func (f *fakeAPI) CancelDataDeletion(_ context.Context, _ *entity.User, creatorID int64) (*contract.LifecycleResponse, apierror.ErrorResponse) {
	f.creator("CancelDataDeletion", creatorID)
	return &contract.LifecycleResponse{CreatorID: creatorID}, f.fail
}

func (f *fakeAPI) GetDeletionConsentStatus(_ context.Context, _ *entity.User, creatorID int64) (*contract.ConsentStatusResponse, apierror.ErrorResponse) {
	f.creator("GetDeletionConsentStatus", creatorID)
	return &contract.ConsentStatusResponse{CreatorID: creatorID}, f.fail
}

func (f *fakeAPI) SubmitDeletionConsent(_ context.Context, _ *entity.User, creatorID int64, req *contract.ConsentRequest) (*contract.ConsentStatusResponse, apierror.ErrorResponse) {
	f.creator("SubmitDeletionConsent", creatorID)
	f.consented = req.Consented
	return &contract.ConsentStatusResponse{CreatorID: creatorID}, f.fail
}

func (f *fakeAPI) InviteFamilyMember(_ context.Context, _ *entity.User, creatorID int64, _ *contract.InviteRequest) (*contract.InvitationResponse, apierror.ErrorResponse) {
	f.creator("InviteFamilyMember", creatorID)
	return &contract.InvitationResponse{}, f.fail
}

func (f *fakeAPI) GetInvitation(_ context.Context, token string) (*contract.InvitationResponse, apierror.ErrorResponse) {
	f.call, f.token = "GetInvitation", token
	return &contract.InvitationResponse{}, f.fail
}

func (f *fakeAPI) AcceptInvitation(_ context.Context, _ *entity.User, token string) (*contract.FamilyMemberResponse, apierror.ErrorResponse) {
	f.call, f.token = "AcceptInvitation", token
	return &contract.FamilyMemberResponse{}, f.fail
}

func (f *fakeAPI) ListFamilyMembers(_ context.Context, _ *entity.User, creatorID int64) (*contract.FamilyResponse, apierror.ErrorResponse) {
	f.creator("ListFamilyMembers", creatorID)
	return &contract.FamilyResponse{}, f.fail
}

func (f *fakeAPI) ListMemberships(context.Context, *entity.User) ([]*contract.MembershipResponse, apierror.ErrorResponse) {
	f.call = "ListMemberships"
	return nil, f.fail
}

func (f *fakeAPI) UpdateFamilyMember(_ context.Context, _ *entity.User, memberID int64, _ *contract.UpdateMemberRequest) (*contract.FamilyMemberResponse, apierror.ErrorResponse) {
	f.call, f.memberID = "UpdateFamilyMember", memberID
	return &contract.FamilyMemberResponse{}, f.fail
}

func (f *fakeAPI) RemoveFamilyMember(_ context.Context, _ *entity.User, memberID int64) apierror.ErrorResponse {
	f.call, f.memberID = "RemoveFamilyMember", memberID
	return f.fail
}

func (f *fakeAPI) LeaveFamily(_ context.Context, _ *entity.User, creatorID int64) apierror.ErrorResponse {
	f.creator("LeaveFamily", creatorID)
	return f.fail
}

func (f *fakeAPI) GetAccessMatrix(_ context.Context, _ *entity.User, creatorID int64) (*contract.AccessMatrixResponse, apierror.ErrorResponse) {
	f.creator("GetAccessMatrix", creatorID)
	return &contract.AccessMatrixResponse{}, f.fail
}

func (f *fakeAPI) target(name string, creatorID, memberID int64, category entity.Category) {
	f.creator(name, creatorID)
	f.memberID = memberID
	f.category = category
}

func (f *fakeAPI) GrantCategoryAccess(_ context.Context, _ *entity.User, creatorID, memberID int64, category entity.Category) (*contract.MemberAccessResponse, apierror.ErrorResponse) {
	f.target("GrantCategoryAccess", creatorID, memberID, category)
	return &contract.MemberAccessResponse{}, f.fail
}

func (f *fakeAPI) RevokeCategoryAccess(_ context.Context, _ *entity.User, creatorID, memberID int64, category entity.Category) (*contract.MemberAccessResponse, apierror.ErrorResponse) {
	f.target("RevokeCategoryAccess", creatorID, memberID, category)
	return &contract.MemberAccessResponse{}, f.fail
}

func (f *fakeAPI) ApplyRecommendedPresets(_ context.Context, _ *entity.User, creatorID int64) (*contract.ApplyPresetsResponse, apierror.ErrorResponse) {
	f.creator("ApplyRecommendedPresets", creatorID)
	return &contract.ApplyPresetsResponse{}, f.fail
}

func (f *fakeAPI) ListAccessPresets(_ context.Context, _ *entity.User, creatorID int64) ([]*contract.PresetResponse, apierror.ErrorResponse) {
	f.creator("ListAccessPresets", creatorID)
	return nil, f.fail
}

func (f *fakeAPI) SetAccessPreset(_ context.Context, _ *entity.User, creatorID, memberID int64, category entity.Category) apierror.ErrorResponse {
	f.target("SetAccessPreset", creatorID, memberID, category)
	return f.fail
}

func (f *fakeAPI) RemoveAccessPreset(_ context.Context, _ *entity.User, creatorID, memberID int64, category entity.Category) apierror.ErrorResponse {
	f.target("RemoveAccessPreset", creatorID, memberID, category)
	return f.fail
}

func (f *fakeAPI) ListNotifications(_ context.Context, _ *entity.User, unreadOnly bool, limit int) (*contract.NotificationListResponse, apierror.ErrorResponse) {
	f.call, f.unread, f.limit = "ListNotifications", unreadOnly, limit
	return &contract.NotificationListResponse{}, f.fail
}

func (f *fakeAPI) MarkNotificationRead(_ context.Context, _ *entity.User, id int64) apierror.ErrorResponse {
	f.call, f.memberID = "MarkNotificationRead", id
	return f.fail
}

func (f *fakeAPI) MarkAllNotificationsRead(context.Context, *entity.User) (int64, apierror.ErrorResponse) {
	f.call = "MarkAllNotificationsRead"
	return 4, f.fail
}

func (f *fakeAPI) ListOwnNotes(_ context.Context, user *entity.User) ([]*contract.NoteResponse, apierror.ErrorResponse) {
	f.creator("ListOwnNotes", user.ID)
	return nil, f.fail
}

func (f *fakeAPI) ListReadableNotes(_ context.Context, _ *entity.User, creatorID int64) ([]*contract.NoteResponse, apierror.ErrorResponse) {
	f.creator("ListReadableNotes", creatorID)
	return nil, f.fail
}

func (f *fakeAPI) CreateNote(_ context.Context, user *entity.User, _ *contract.NoteRequest) (*contract.NoteResponse, apierror.ErrorResponse) {
	f.creator("CreateNote", user.ID)
	return &contract.NoteResponse{CreatorID: user.ID}, f.fail
}

func (f *fakeAPI) UpdateNote(_ context.Context, _ *entity.User, noteID int64, _ *contract.UpdateNoteRequest) (*contract.NoteResponse, apierror.ErrorResponse) {
	f.call, f.memberID = "UpdateNote", noteID
	return &contract.NoteResponse{ID: noteID}, f.fail
}

func (f *fakeAPI) DeleteNote(_ context.Context, _ *entity.User, noteID int64) apierror.ErrorResponse {
	f.call, f.memberID = "DeleteNote", noteID
	return f.fail
}

func (f *fakeAPI) GetSelf(user *entity.User) *contract.UserResponse {
	f.call = "GetSelf"
	return &contract.UserResponse{}
}

const callerID = 7

// fakeAuth admits any request carrying a bearer header as user 7.
func fakeAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
			return c.JSON(http.StatusUnauthorized, apierror.UnauthorizedError)
		}
		utils.SetIdentity(c, &entity.User{ID: callerID, DisplayName: "Ana", Active: true}, "sub-7")
		return next(c)
	}
}

func newServer(api *fakeAPI) *echo.Echo {
	e := echo.New()
	Register(e, &Handlers{
		Lifecycle:     handler.NewLifecycleDefault(api),
		Deletion:      handler.NewDeletionDefault(api),
		Family:        handler.NewFamilyDefault(api),
		Access:        handler.NewAccessDefault(api),
		Notifications: handler.NewNotificationDefault(api),
		Notes:         handler.NewNoteDefault(api),
		Users:         handler.NewUserDefault(api),
	}, fakeAuth)
	return e
}

func do(e *echo.Echo, method, path, body string, authed bool) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	if authed {
		req.Header.Set(echo.HeaderAuthorization, "Bearer test")
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeKind(t *testing.T, rec *httptest.ResponseRecorder) apierror.Kind {
	t.Helper()
	var body struct {
		Kind apierror.Kind `json:"kind"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body.Kind
}

func TestRouting(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		path      string
		body      string
		status    int
		call      string
		creatorID int64
	}{
		{"lifecycle @me", http.MethodGet, "/api/creators/@me/lifecycle", "", http.StatusOK, "GetLifecycle", callerID},
		{"lifecycle by id", http.MethodGet, "/api/creators/12/lifecycle", "", http.StatusOK, "GetLifecycle", 12},
		{"report death", http.MethodPost, "/api/creators/12/lifecycle/death-report", "", http.StatusOK, "ReportDeath", 12},
		{"cancel death report", http.MethodDelete, "/api/creators/12/lifecycle/death-report", "", http.StatusOK, "CancelDeathReport", 12},
		{"initiate consent", http.MethodPost, "/api/creators/12/consent", "", http.StatusCreated, "InitiateConsent", 12},
		{"consent status", http.MethodGet, "/api/creators/12/consent", "", http.StatusOK, "GetConsentStatus", 12},
		{"submit consent", http.MethodPost, "/api/creators/12/consent/responses", `{"consented":true}`, http.StatusOK, "SubmitConsent", 12},
		{"initiate deletion", http.MethodPost, "/api/creators/12/deletion", "", http.StatusCreated, "InitiateDataDeletion", 12},
		{"cancel deletion", http.MethodDelete, "/api/creators/12/deletion", "", http.StatusOK, "CancelDataDeletion", 12},
		{"deletion status", http.MethodGet, "/api/creators/12/deletion", "", http.StatusOK, "GetDeletionConsentStatus", 12},
		{"submit deletion consent", http.MethodPost, "/api/creators/12/deletion/responses", `{"consented":false}`, http.StatusOK, "SubmitDeletionConsent", 12},
		{"invite", http.MethodPost, "/api/creators/@me/invitations", `{"relationship":"child"}`, http.StatusCreated, "InviteFamilyMember", callerID},
		{"members", http.MethodGet, "/api/creators/12/members", "", http.StatusOK, "ListFamilyMembers", 12},
		{"leave", http.MethodPost, "/api/creators/12/leave", "", http.StatusNoContent, "LeaveFamily", 12},
		{"memberships", http.MethodGet, "/api/users/@me/families", "", http.StatusOK, "ListMemberships", 0},
		{"self", http.MethodGet, "/api/users/@me", "", http.StatusOK, "GetSelf", 0},
		{"access matrix", http.MethodGet, "/api/creators/@me/access", "", http.StatusOK, "GetAccessMatrix", callerID},
		{"apply presets", http.MethodPost, "/api/creators/@me/access/apply-presets", "", http.StatusOK, "ApplyRecommendedPresets", callerID},
		{"list presets", http.MethodGet, "/api/creators/@me/presets", "", http.StatusOK, "ListAccessPresets", callerID},
		{"notifications", http.MethodGet, "/api/notifications", "", http.StatusOK, "ListNotifications", 0},
		{"read all", http.MethodPost, "/api/notifications/read-all", "", http.StatusOK, "MarkAllNotificationsRead", 0},
		{"own notes", http.MethodGet, "/api/creators/@me/notes", "", http.StatusOK, "ListOwnNotes", callerID},
		{"own notes by id", http.MethodGet, "/api/creators/7/notes", "", http.StatusOK, "ListOwnNotes", callerID},
		{"readable notes", http.MethodGet, "/api/creators/12/notes", "", http.StatusOK, "ListReadableNotes", 12},
		{"create note", http.MethodPost, "/api/creators/@me/notes", `{"title":"hi"}`, http.StatusCreated, "CreateNote", callerID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{}
			rec := do(newServer(api), tt.method, tt.path, tt.body, true)

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if api.call != tt.call {
				t.Errorf("expected call %s, got %q", tt.call, api.call)
			}
			if tt.creatorID != 0 && api.creatorID != tt.creatorID {
				t.Errorf("expected creator %d, got %d", tt.creatorID, api.creatorID)
			}
		})
	}
}

func TestAccessTargetRoutes(t *testing.T) {
	tests := []struct {
		method string
		path   string
		status int
		call   string
	}{
		{http.MethodPut, "/api/creators/@me/access/21/medical", http.StatusOK, "GrantCategoryAccess"},
		{http.MethodDelete, "/api/creators/@me/access/21/medical", http.StatusOK, "RevokeCategoryAccess"},
		{http.MethodPut, "/api/creators/@me/presets/21/medical", http.StatusNoContent, "SetAccessPreset"},
		{http.MethodDelete, "/api/creators/@me/presets/21/medical", http.StatusNoContent, "RemoveAccessPreset"},
	}

	for _, tt := range tests {
		t.Run(tt.call, func(t *testing.T) {
			api := &fakeAPI{}
			rec := do(newServer(api), tt.method, tt.path, "", true)

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if api.call != tt.call || api.creatorID != callerID || api.memberID != 21 || api.category != entity.CategoryMedical {
				t.Errorf("unexpected call %+v", api)
			}
		})
	}
}

func TestIDRoutes(t *testing.T) {
	tests := []struct {
		method string
		path   string
		body   string
		status int
		call   string
	}{
		{http.MethodPatch, "/api/members/33", `{"role":"member"}`, http.StatusOK, "UpdateFamilyMember"},
		{http.MethodDelete, "/api/members/33", "", http.StatusNoContent, "RemoveFamilyMember"},
		{http.MethodPatch, "/api/notifications/33/read", "", http.StatusNoContent, "MarkNotificationRead"},
		{http.MethodPatch, "/api/notes/33", `{"title":"new"}`, http.StatusOK, "UpdateNote"},
		{http.MethodDelete, "/api/notes/33", "", http.StatusNoContent, "DeleteNote"},
	}

	for _, tt := range tests {
		t.Run(tt.call, func(t *testing.T) {
			api := &fakeAPI{}
			rec := do(newServer(api), tt.method, tt.path, tt.body, true)

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if api.call != tt.call || api.memberID != 33 {
				t.Errorf("unexpected call %+v", api)
			}
		})
	}
}

func TestInvitationRoutes(t *testing.T) {
	api := &fakeAPI{}
	e := newServer(api)

	rec := do(e, http.MethodGet, "/api/invitations/abc-123", "", true)
	if rec.Code != http.StatusOK || api.call != "GetInvitation" || api.token != "abc-123" {
		t.Fatalf("preview: %d %+v", rec.Code, api)
	}

	rec = do(e, http.MethodPost, "/api/invitations/abc-123/accept", "", true)
	if rec.Code != http.StatusCreated || api.call != "AcceptInvitation" || api.token != "abc-123" {
		t.Fatalf("accept: %d %+v", rec.Code, api)
	}
}

func TestBadRequests(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		kind   apierror.Kind
	}{
		{"creator not numeric", http.MethodGet, "/api/creators/abc/lifecycle", "", http.StatusBadRequest, apierror.KindBadRequest},
		{"creator negative", http.MethodGet, "/api/creators/-4/consent", "", http.StatusBadRequest, apierror.KindBadRequest},
		{"unknown category", http.MethodPut, "/api/creators/@me/access/21/recipes", "", http.StatusBadRequest, apierror.KindBadRequest},
		{"member not numeric", http.MethodPut, "/api/creators/@me/access/bob/medical", "", http.StatusBadRequest, apierror.KindBadRequest},
		{"malformed vote", http.MethodPost, "/api/creators/12/consent/responses", `{"consented":`, http.StatusBadRequest, apierror.KindBadRequest},
		{"malformed invite", http.MethodPost, "/api/creators/@me/invitations", `[1,2`, http.StatusBadRequest, apierror.KindBadRequest},
		{"bad unread flag", http.MethodGet, "/api/notifications?unread=maybe", "", http.StatusBadRequest, apierror.KindBadRequest},
		{"bad limit", http.MethodGet, "/api/notifications?limit=-1", "", http.StatusBadRequest, apierror.KindBadRequest},
		{"note for someone else", http.MethodPost, "/api/creators/12/notes", `{"title":"hi"}`, http.StatusForbidden, apierror.KindForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{}
			rec := do(newServer(api), tt.method, tt.path, tt.body, true)

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if kind := decodeKind(t, rec); kind != tt.kind {
				t.Errorf("expected kind %s, got %s", tt.kind, kind)
			}
			if api.call != "" {
				t.Errorf("service should not be reached, got %s", api.call)
			}
		})
	}
}

func TestServiceErrorsPassThrough(t *testing.T) {
	api := &fakeAPI{fail: apierror.AlreadyRespondedError}
	rec := do(newServer(api), http.MethodPost, "/api/creators/12/consent/responses", `{"consented":false}`, true)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if kind := decodeKind(t, rec); kind != apierror.KindAlreadyResponded {
		t.Errorf("expected AlreadyResponded, got %s", kind)
	}
	if api.consented == nil || *api.consented {
		t.Errorf("expected an explicit false vote, got %v", api.consented)
	}
}

func TestLifecycleSnapshotInErrors(t *testing.T) {
	lc := &entity.NoteLifecycle{Status: entity.LifecycleDeathReported, DeletionStatus: entity.DeletionNone}
	api := &fakeAPI{fail: apierror.NewLifecycleConflictError(lc, "nope")}
	rec := do(newServer(api), http.MethodPost, "/api/creators/12/lifecycle/death-report", "", true)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	var body apierror.APIError
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Kind != apierror.KindLifecycleConflict || body.LifecycleStatus != entity.LifecycleDeathReported {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestAuthAndHealth(t *testing.T) {
	api := &fakeAPI{}
	e := newServer(api)

	rec := do(e, http.MethodGet, "/health", "", false)
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("health: %d %q", rec.Code, rec.Body.String())
	}

	rec = do(e, http.MethodGet, "/api/creators/@me/lifecycle", "", false)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}
	if api.call != "" {
		t.Errorf("service reached without auth: %s", api.call)
	}
}
