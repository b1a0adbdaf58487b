package service

import (
	"context"
	"familynotes/cmd/internal/contract"
	"familynotes/cmd/internal/domain/database"
	"familynotes/cmd/internal/domain/database/repository"
	"familynotes/cmd/internal/domain/entity"
	"familynotes/cmd/internal/domain/policy"
	"familynotes/cmd/internal/testutil"
	"familynotes/cmd/internal/utils/apierror"
	"familynotes/cmd/internal/utils/validators"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

type fakePurger struct {
	mu    sync.Mutex
	calls []int64
	err   error
}

func (f *fakePurger) PurgeCreatorData(_ context.Context, creatorID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, creatorID)
	return f.err
}

func (f *fakePurger) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fixture struct {
	db     *gorm.DB
	repos  Repositories
	purger *fakePurger

	lifecycle     *DefaultLifecycleService
	deletion      *DefaultDeletionService
	family        *DefaultFamilyService
	access        *DefaultAccessService
	notes         *DefaultNoteService
	notifications *DefaultNotificationService
	users         *DefaultUserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)

	repos := Repositories{
		Users:         repository.NewUserRepository(db),
		Family:        repository.NewFamilyRepository(db),
		Invitations:   repository.NewInvitationRepository(db),
		Lifecycles:    repository.NewLifecycleRepository(db),
		Consents:      repository.NewConsentRepository(db),
		Access:        repository.NewAccessRepository(db),
		Notifications: repository.NewNotificationRepository(db),
		Notes:         repository.NewNoteRepository(db),
	}

	validate := validator.New()
	validators.Register(validate)

	tx := database.NewTxRunner(db)
	familyPolicy := policy.NewFamilyPolicy(entity.DefaultMaxRepresentatives)
	purger := &fakePurger{}
	access := NewAccessService(tx, repos, familyPolicy)

	return &fixture{
		db:            db,
		repos:         repos,
		purger:        purger,
		lifecycle:     NewLifecycleService(tx, repos, familyPolicy, validate),
		deletion:      NewDeletionService(tx, repos, familyPolicy, purger, validate),
		family:        NewFamilyService(tx, repos, familyPolicy, validate, 0),
		access:        access,
		notes:         NewNoteService(tx, repos, familyPolicy, access, validate),
		notifications: NewNotificationService(repos.Notifications),
		users:         NewUserService(repos.Users),
	}
}

// family is a creator with one representative and one plain member.
type family struct {
	creator   *entity.User
	rep       *entity.User
	repRow    *entity.FamilyMember
	member    *entity.User
	memberRow *entity.FamilyMember
}

func (f *fixture) seedFamily(t *testing.T) *family {
	t.Helper()
	fam := &family{creator: testutil.SeedUser(t, f.db, "creator")}
	fam.rep, fam.repRow = testutil.SeedMember(t, f.db, fam.creator.ID, "alice", entity.RoleRepresentative)
	fam.member, fam.memberRow = testutil.SeedMember(t, f.db, fam.creator.ID, "bob", entity.RoleMember)
	return fam
}

// openContent drives the family through a unanimous content episode.
func (f *fixture) openContent(t *testing.T, fam *family) {
	t.Helper()
	ctx := context.Background()

	_, apierr := f.lifecycle.ReportDeath(ctx, fam.rep, fam.creator.ID)
	requireOK(t, apierr)

	_, apierr = f.lifecycle.InitiateConsent(ctx, fam.rep, fam.creator.ID)
	requireOK(t, apierr)

	status, apierr := f.lifecycle.SubmitConsent(ctx, fam.member, fam.creator.ID, vote(true))
	requireOK(t, apierr)

	if status.Status != entity.LifecycleOpened {
		t.Fatalf("content should be opened, got %s", status.Status)
	}
}

func (f *fixture) countNotifications(t *testing.T, creatorID int64, kind entity.NotificationType) int64 {
	t.Helper()
	return testutil.CountRows(t, f.db, &entity.Notification{}, "related_creator_id = ? AND type = ?", creatorID, kind)
}

func vote(consented bool) *contract.ConsentRequest {
	return &contract.ConsentRequest{Consented: &consented}
}

func findVote(t *testing.T, status *contract.ConsentStatusResponse, memberID int64) *contract.ConsentVoteResponse {
	t.Helper()
	for _, v := range status.Votes {
		if v.MemberID == memberID {
			return v
		}
	}
	t.Fatalf("no vote for member %d", memberID)
	return nil
}

func requireOK(t *testing.T, resp apierror.ErrorResponse) {
	t.Helper()
	if resp != nil {
		t.Fatalf("unexpected error response: %+v", resp)
	}
}

func requireKind(t *testing.T, resp apierror.ErrorResponse, kind apierror.Kind) {
	t.Helper()
	if resp == nil {
		t.Fatalf("expected %s, got success", kind)
	}
	if !apierror.IsKind(resp, kind) {
		t.Fatalf("expected %s, got %+v", kind, resp)
	}
}
