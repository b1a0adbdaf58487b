package service

import (
	"context"
	"familynotes/cmd/internal/contract"
	"familynotes/cmd/internal/domain/entity"
	"familynotes/cmd/internal/testutil"
	"familynotes/cmd/internal/utils/apierror"
	"testing"
)

func inviteReq(role entity.Role) *contract.InviteRequest {
	return &contract.InviteRequest{Relationship: "sibling", RelationshipLabel: "Little sister", Role: string(role)}
}

func strPtr(s string) *string {
	return &s
}

func TestInviteAndAccept(t *testing.T) {
	fx := newFixture(t)
	fam := fx.seedFamily(t)
	joiner := testutil.SeedUser(t, fx.db, "dave")
	ctx := context.Background()

	inv, apierr := fx.family.InviteFamilyMember(ctx, fam.creator, fam.creator.ID, inviteReq(entity.RoleMember))
	requireOK(t, apierr)

	if inv.Token == "" || inv.Accepted || inv.Expired {
		t.Fatalf("unexpected invitation: %+v", inv)
	}

	got, apierr := fx.family.GetInvitation(ctx, inv.Token)
	requireOK(t, apierr)
	if got.CreatorName != "creator" {
		t.Fatalf("creator name: want=creator got=%s", got.CreatorName)
	}

	member, apierr := fx.family.AcceptInvitation(ctx, joiner, inv.Token)
	requireOK(t, apierr)

	if member.UserID != joiner.ID || member.Role != entity.RoleMember || member.Relationship != "sibling" {
		t.Fatalf("unexpected membership: %+v", member)
	}

	if got := fx.countNotifications(t, fam.creator.ID, entity.NotificationMemberJoined); got != 3 {
		t.Fatalf("member joined notifications: want=3 got=%d", got)
	}

	list, apierr := fx.family.ListFamilyMembers(ctx, joiner, fam.creator.ID)
	requireOK(t, apierr)
	if len(list.Members) != 3 || list.RepresentativeCount != 1 {
		t.Fatalf("unexpected family: %+v", list)
	}

	memberships, apierr := fx.family.ListMemberships(ctx, joiner)
	requireOK(t, apierr)
	if len(memberships) != 1 || memberships[0].LifecycleStatus != entity.LifecycleActive {
		t.Fatalf("unexpected memberships: %+v", memberships)
	}
}

func TestInviteRequiresManager(t *testing.T) {
	fx := newFixture(t)
	fam := fx.seedFamily(t)

	_, apierr := fx.family.InviteFamilyMember(context.Background(), fam.member, fam.creator.ID, inviteReq(entity.RoleMember))
	requireKind(t, apierr, apierror.KindForbidden)

	_, apierr = fx.family.InviteFamilyMember(context.Background(), fam.creator, fam.creator.ID, &contract.InviteRequest{Relationship: "x", Role: "owner"})
	requireKind(t, apierr, apierror.KindValidation)
}

func TestInviteRespectsRepresentativeCap(t *testing.T) {
	fx := newFixture(t)
	creator := testutil.SeedUser(t, fx.db, "creator")
	for _, name := range []string{"alice", "bob", "carol"} {
		testutil.SeedMember(t, fx.db, creator.ID, name, entity.RoleRepresentative)
	}

	_, apierr := fx.family.InviteFamilyMember(context.Background(), creator, creator.ID, inviteReq(entity.RoleRepresentative))
	requireKind(t, apierr, apierror.KindMaxRepresentatives)

	if got := testutil.CountRows(t, fx.db, &entity.FamilyMember{}, "creator_id = ?", creator.ID); got != 3 {
		t.Fatalf("membership count changed: %d", got)
	}
	if got := testutil.CountRows(t, fx.db, &entity.FamilyInvitation{}, ""); got != 0 {
		t.Fatalf("rejected invitation was stored")
	}
}

func TestAcceptRechecksRepresentativeCap(t *testing.T) {
	fx := newFixture(t)
	creator := testutil.SeedUser(t, fx.db, "creator")
	testutil.SeedMember(t, fx.db, creator.ID, "alice", entity.RoleRepresentative)
	testutil.SeedMember(t, fx.db, creator.ID, "bob", entity.RoleRepresentative)
	ctx := context.Background()

	first, apierr := fx.family.InviteFamilyMember(ctx, creator, creator.ID, inviteReq(entity.RoleRepresentative))
	requireOK(t, apierr)
	second, apierr := fx.family.InviteFamilyMember(ctx, creator, creator.ID, inviteReq(entity.RoleRepresentative))
	requireOK(t, apierr)

	_, apierr = fx.family.AcceptInvitation(ctx, testutil.SeedUser(t, fx.db, "carol"), first.Token)
	requireOK(t, apierr)

	_, apierr = fx.family.AcceptInvitation(ctx, testutil.SeedUser(t, fx.db, "dave"), second.Token)
	requireKind(t, apierr, apierror.KindMaxRepresentatives)

	reps, err := fx.repos.Family.CountActiveRepresentatives(testutil.Ctx(), creator.ID)
	if err != nil || reps != 3 {
		t.Fatalf("representatives: want=3 got=%d err=%v", reps, err)
	}

	inv, apierr := fx.family.GetInvitation(ctx, second.Token)
	requireOK(t, apierr)
	if inv.Accepted {
		t.Fatalf("rejected acceptance consumed the token")
	}
}

func TestAcceptInvitationTwice(t *testing.T) {
	fx := newFixture(t)
	fam := fx.seedFamily(t)
	joiner := testutil.SeedUser(t, fx.db, "dave")
	ctx := context.Background()

	inv, apierr := fx.family.InviteFamilyMember(ctx, fam.rep, fam.creator.ID, inviteReq(entity.RoleMember))
	requireOK(t, apierr)

	_, apierr = fx.family.AcceptInvitation(ctx, joiner, inv.Token)
	requireOK(t, apierr)

	_, apierr = fx.family.AcceptInvitation(ctx, joiner, inv.Token)
	requireKind(t, apierr, apierror.KindInvitationAlreadyAccepted)

	if got := testutil.CountRows(t, fx.db, &entity.FamilyMember{}, "creator_id = ? AND member_id = ?", fam.creator.ID, joiner.ID); got != 1 {
		t.Fatalf("membership rows: want=1 got=%d", got)
	}
}

func TestAcceptInvitationGuards(t *testing.T) {
	fx := newFixture(t)
	fam := fx.seedFamily(t)
	ctx := context.Background()

	inv, apierr := fx.family.InviteFamilyMember(ctx, fam.rep, fam.creator.ID, inviteReq(entity.RoleMember))
	requireOK(t, apierr)

	_, apierr = fx.family.AcceptInvitation(ctx, fam.creator, inv.Token)
	requireKind(t, apierr, apierror.KindSelfInvite)

	_, apierr = fx.family.AcceptInvitation(ctx, fam.member, inv.Token)
	requireKind(t, apierr, apierror.KindDuplicateMembership)

	_, apierr = fx.family.AcceptInvitation(ctx, fam.member, "no-such-token")
	requireKind(t, apierr, apierror.KindNotFound)

	expired, apierr := fx.family.InviteFamilyMember(ctx, fam.rep, fam.creator.ID, inviteReq(entity.RoleMember))
	requireOK(t, apierr)
	if err := fx.db.Model(&entity.FamilyInvitation{}).Where("token = ?", expired.Token).Update("expires_at", 1).Error; err != nil {
		t.Fatalf("expire invitation: %v", err)
	}

	_, apierr = fx.family.AcceptInvitation(ctx, testutil.SeedUser(t, fx.db, "dave"), expired.Token)
	requireKind(t, apierr, apierror.KindInvitationExpired)
}

func TestUpdateFamilyMember(t *testing.T) {
	fx := newFixture(t)
	fam := fx.seedFamily(t)
	ctx := context.Background()

	_, apierr := fx.access.GrantCategoryAccess(ctx, fam.creator, fam.creator.ID, fam.memberRow.ID, entity.CategoryMedical)
	requireOK(t, apierr)

	resp, apierr := fx.family.UpdateFamilyMember(ctx, fam.rep, fam.memberRow.ID, &contract.UpdateMemberRequest{
		Role:              strPtr(string(entity.RoleRepresentative)),
		RelationshipLabel: strPtr("Eldest"),
	})
	requireOK(t, apierr)

	if resp.Role != entity.RoleRepresentative || resp.RelationshipLabel != "Eldest" {
		t.Fatalf("update not applied: %+v", resp)
	}

	// Promotion drops explicit grants, representatives read everything.
	if got := testutil.CountRows(t, fx.db, &entity.CategoryAccess{}, "family_member_id = ?", fam.memberRow.ID); got != 0 {
		t.Fatalf("grants survived promotion: %d", got)
	}

	if got := fx.countNotifications(t, fam.creator.ID, entity.NotificationRoleChanged); got != 2 {
		t.Fatalf("role changed notifications: want=2 got=%d", got)
	}

	_, apierr = fx.family.UpdateFamilyMember(ctx, fam.member, fam.repRow.ID, &contract.UpdateMemberRequest{RelationshipLabel: strPtr("x")})
	requireOK(t, apierr)
}

func TestUpdateRespectsRepresentativeCap(t *testing.T) {
	fx := newFixture(t)
	creator := testutil.SeedUser(t, fx.db, "creator")
	for _, name := range []string{"alice", "bob", "carol"} {
		testutil.SeedMember(t, fx.db, creator.ID, name, entity.RoleRepresentative)
	}
	_, dave := testutil.SeedMember(t, fx.db, creator.ID, "dave", entity.RoleMember)

	_, apierr := fx.family.UpdateFamilyMember(context.Background(), creator, dave.ID, &contract.UpdateMemberRequest{
		Role: strPtr(string(entity.RoleRepresentative)),
	})
	requireKind(t, apierr, apierror.KindMaxRepresentatives)

	reps, err := fx.repos.Family.CountActiveRepresentatives(testutil.Ctx(), creator.ID)
	if err != nil || reps != 3 {
		t.Fatalf("representatives: want=3 got=%d err=%v", reps, err)
	}
}

func TestSoleRepresentativeCannotStepDownDuringDeathReport(t *testing.T) {
	fx := newFixture(t)
	fam := fx.seedFamily(t)
	testutil.SeedLifecycle(t, fx.db, fam.creator.ID, entity.LifecycleDeathReported, entity.DeletionNone)

	_, apierr := fx.family.UpdateFamilyMember(context.Background(), fam.creator, fam.repRow.ID, &contract.UpdateMemberRequest{
		Role: strPtr(string(entity.RoleMember)),
	})
	requireKind(t, apierr, apierror.KindBlockedByLifecycle)
}

func TestRemoveBlockedDuringDeathReport(t *testing.T) {
	fx := newFixture(t)
	fam := fx.seedFamily(t)
	ctx := context.Background()

	_, apierr := fx.lifecycle.ReportDeath(ctx, fam.rep, fam.creator.ID)
	requireOK(t, apierr)

	apierr = fx.family.RemoveFamilyMember(ctx, fam.rep, fam.memberRow.ID)
	requireKind(t, apierr, apierror.KindBlockedByLifecycle)

	resp, ok := apierr.(*apierror.APIError)
	if !ok || resp.LifecycleStatus != entity.LifecycleDeathReported {
		t.Fatalf("blocked error should carry the lifecycle status: %+v", apierr)
	}

	if got := testutil.CountRows(t, fx.db, &entity.FamilyMember{}, "id = ?", fam.memberRow.ID); got != 1 {
		t.Fatalf("member row was removed")
	}
}

func TestRemoveFamilyMember(t *testing.T) {
	fx := newFixture(t)
	fam := fx.seedFamily(t)
	ctx := context.Background()

	_, apierr := fx.access.GrantCategoryAccess(ctx, fam.creator, fam.creator.ID, fam.memberRow.ID, entity.CategoryMoney)
	requireOK(t, apierr)

	apierr = fx.family.RemoveFamilyMember(ctx, fam.member, fam.repRow.ID)
	requireKind(t, apierr, apierror.KindForbidden)

	apierr = fx.family.RemoveFamilyMember(ctx, fam.rep, fam.repRow.ID)
	requireKind(t, apierr, apierror.KindBadRequest)

	apierr = fx.family.RemoveFamilyMember(ctx, fam.rep, fam.memberRow.ID)
	requireOK(t, apierr)

	if got := testutil.CountRows(t, fx.db, &entity.FamilyMember{}, "id = ?", fam.memberRow.ID); got != 0 {
		t.Fatalf("member row still present")
	}
	if got := testutil.CountRows(t, fx.db, &entity.CategoryAccess{}, "family_member_id = ?", fam.memberRow.ID); got != 0 {
		t.Fatalf("grants of removed member still present")
	}

	// creator from the family fan-out, the removed member directly
	if got := fx.countNotifications(t, fam.creator.ID, entity.NotificationMemberRemoved); got != 2 {
		t.Fatalf("member removed notifications: want=2 got=%d", got)
	}
}

func TestLeaveFamily(t *testing.T) {
	fx := newFixture(t)
	fam := fx.seedFamily(t)
	ctx := context.Background()

	apierr := fx.family.LeaveFamily(ctx, fam.member, fam.creator.ID)
	requireOK(t, apierr)

	apierr = fx.family.LeaveFamily(ctx, fam.member, fam.creator.ID)
	requireKind(t, apierr, apierror.KindNotFound)

	if got := fx.countNotifications(t, fam.creator.ID, entity.NotificationMemberLeft); got != 2 {
		t.Fatalf("member left notifications: want=2 got=%d", got)
	}
}

func TestLeaveGuards(t *testing.T) {
	fx := newFixture(t)
	fam := fx.seedFamily(t)
	ctx := context.Background()

	_, apierr := fx.lifecycle.ReportDeath(ctx, fam.rep, fam.creator.ID)
	requireOK(t, apierr)

	apierr = fx.family.LeaveFamily(ctx, fam.rep, fam.creator.ID)
	requireKind(t, apierr, apierror.KindBlockedByLifecycle)

	_, apierr = fx.lifecycle.InitiateConsent(ctx, fam.rep, fam.creator.ID)
	requireOK(t, apierr)

	apierr = fx.family.LeaveFamily(ctx, fam.member, fam.creator.ID)
	requireKind(t, apierr, apierror.KindBlockedByLifecycle)
}

func TestLastMemberCannotLeaveOpenedFamily(t *testing.T) {
	fx := newFixture(t)
	creator := testutil.SeedUser(t, fx.db, "creator")
	rep, _ := testutil.SeedMember(t, fx.db, creator.ID, "alice", entity.RoleRepresentative)
	testutil.SeedLifecycle(t, fx.db, creator.ID, entity.LifecycleOpened, entity.DeletionNone)

	apierr := fx.family.LeaveFamily(context.Background(), rep, creator.ID)
	requireKind(t, apierr, apierror.KindLastMember)
}

func TestLastMemberCannotLeaveActiveFamily(t *testing.T) {
	fx := newFixture(t)
	creator := testutil.SeedUser(t, fx.db, "creator")
	only, _ := testutil.SeedMember(t, fx.db, creator.ID, "alice", entity.RoleMember)

	apierr := fx.family.LeaveFamily(context.Background(), only, creator.ID)
	requireKind(t, apierr, apierror.KindLastMember)
}

func TestLastMemberCannotBeRemoved(t *testing.T) {
	for _, status := range []entity.LifecycleStatus{entity.LifecycleActive, entity.LifecycleOpened} {
		t.Run(string(status), func(t *testing.T) {
			fx := newFixture(t)
			creator := testutil.SeedUser(t, fx.db, "creator")
			_, row := testutil.SeedMember(t, fx.db, creator.ID, "alice", entity.RoleRepresentative)
			testutil.SeedLifecycle(t, fx.db, creator.ID, status, entity.DeletionNone)

			apierr := fx.family.RemoveFamilyMember(context.Background(), creator, row.ID)
			requireKind(t, apierr, apierror.KindLastMember)

			left, err := fx.repos.Family.CountActive(testutil.Ctx(), creator.ID)
			if err != nil || left != 1 {
				t.Fatalf("active members: want=1 got=%d err=%v", left, err)
			}
		})
	}
}

func TestRoleChangeBlockedWhileVoting(t *testing.T) {
	fx := newFixture(t)
	fam := fx.seedFamily(t)
	ctx := context.Background()

	_, apierr := fx.lifecycle.ReportDeath(ctx, fam.rep, fam.creator.ID)
	requireOK(t, apierr)
	_, apierr = fx.lifecycle.InitiateConsent(ctx, fam.rep, fam.creator.ID)
	requireOK(t, apierr)

	_, apierr = fx.family.UpdateFamilyMember(ctx, fam.rep, fam.memberRow.ID, &contract.UpdateMemberRequest{
		Role: strPtr(string(entity.RoleRepresentative)),
	})
	requireKind(t, apierr, apierror.KindBlockedByLifecycle)

	reps, err := fx.repos.Family.CountActiveRepresentatives(testutil.Ctx(), fam.creator.ID)
	if err != nil || reps != 1 {
		t.Fatalf("representatives: want=1 got=%d err=%v", reps, err)
	}

	// relationship edits do not touch the vote
	_, apierr = fx.family.UpdateFamilyMember(ctx, fam.rep, fam.memberRow.ID, &contract.UpdateMemberRequest{
		RelationshipLabel: strPtr("Youngest"),
	})
	requireOK(t, apierr)
}
