package service

import (
	"context"
	"familynotes/cmd/internal/contract"
	"familynotes/cmd/internal/domain/entity"
	"familynotes/cmd/internal/testutil"
	"familynotes/cmd/internal/utils/apierror"
	"slices"
	"testing"
)

func TestGrantAndRevokeAreIdempotent(t *testing.T) {
	fx := newFixture(t)
	fam := fx.seedFamily(t)
	ctx := context.Background()

	for range 2 {
		resp, apierr := fx.access.GrantCategoryAccess(ctx, fam.rep, fam.creator.ID, fam.memberRow.ID, entity.CategoryFuneral)
		requireOK(t, apierr)
		if !slices.Contains(resp.Categories, entity.CategoryFuneral) {
			t.Fatalf("grant missing from response: %+v", resp)
		}
	}

	if got := testutil.CountRows(t, fx.db, &entity.CategoryAccess{}, "family_member_id = ?", fam.memberRow.ID); got != 1 {
		t.Fatalf("grant rows: want=1 got=%d", got)
	}

	for range 2 {
		resp, apierr := fx.access.RevokeCategoryAccess(ctx, fam.rep, fam.creator.ID, fam.memberRow.ID, entity.CategoryFuneral)
		requireOK(t, apierr)
		if len(resp.Categories) != 0 {
			t.Fatalf("revoked grant still listed: %+v", resp)
		}
	}

	// One notification per actual change.
	if got := fx.countNotifications(t, fam.creator.ID, entity.NotificationAccessGranted); got != 1 {
		t.Fatalf("access granted notifications: want=1 got=%d", got)
	}
	if got := fx.countNotifications(t, fam.creator.ID, entity.NotificationAccessRevoked); got != 1 {
		t.Fatalf("access revoked notifications: want=1 got=%d", got)
	}
}

func TestRepresentativeAccessIsImplicit(t *testing.T) {
	fx := newFixture(t)
	fam := fx.seedFamily(t)
	ctx := context.Background()

	resp, apierr := fx.access.GrantCategoryAccess(ctx, fam.creator, fam.creator.ID, fam.repRow.ID, entity.CategoryMoney)
	requireOK(t, apierr)

	if !resp.Implicit || len(resp.Categories) != len(entity.AllCategories()) {
		t.Fatalf("representative access should be implicit: %+v", resp)
	}
	if got := testutil.CountRows(t, fx.db, &entity.CategoryAccess{}, ""); got != 0 {
		t.Fatalf("representative grant was materialized")
	}

	cats, err := fx.access.ReadableCategories(testutil.Ctx(), fam.repRow)
	if err != nil || len(cats) != len(entity.AllCategories()) {
		t.Fatalf("representative must read every category: %v err=%v", cats, err)
	}

	cats, err = fx.access.ReadableCategories(testutil.Ctx(), fam.memberRow)
	if err != nil || len(cats) != 0 {
		t.Fatalf("member without grant must not read: %v err=%v", cats, err)
	}
}

func TestReadableCategoriesFollowGrants(t *testing.T) {
	fx := newFixture(t)
	fam := fx.seedFamily(t)
	ctx := context.Background()

	for _, c := range []entity.Category{entity.CategoryMoney, entity.CategoryMedical} {
		_, apierr := fx.access.GrantCategoryAccess(ctx, fam.creator, fam.creator.ID, fam.memberRow.ID, c)
		requireOK(t, apierr)
	}

	cats, err := fx.access.ReadableCategories(testutil.Ctx(), fam.memberRow)
	if err != nil {
		t.Fatalf("readable categories: %v", err)
	}

	// display order, not grant order
	want := []entity.Category{entity.CategoryMedical, entity.CategoryMoney}
	if len(cats) != len(want) || cats[0] != want[0] || cats[1] != want[1] {
		t.Fatalf("want %v got %v", want, cats)
	}

	_, apierr := fx.access.RevokeCategoryAccess(ctx, fam.creator, fam.creator.ID, fam.memberRow.ID, entity.CategoryMoney)
	requireOK(t, apierr)

	cats, err = fx.access.ReadableCategories(testutil.Ctx(), fam.memberRow)
	if err != nil || len(cats) != 1 || cats[0] != entity.CategoryMedical {
		t.Fatalf("revoked category still readable: %v err=%v", cats, err)
	}
}

func TestAccessGuards(t *testing.T) {
	fx := newFixture(t)
	fam := fx.seedFamily(t)
	other := testutil.SeedUser(t, fx.db, "other")
	_, foreign := testutil.SeedMember(t, fx.db, other.ID, "eve", entity.RoleMember)
	ctx := context.Background()

	_, apierr := fx.access.GrantCategoryAccess(ctx, fam.member, fam.creator.ID, fam.memberRow.ID, entity.CategoryMoney)
	requireKind(t, apierr, apierror.KindForbidden)

	_, apierr = fx.access.GrantCategoryAccess(ctx, fam.rep, fam.creator.ID, fam.memberRow.ID, entity.Category("secrets"))
	requireKind(t, apierr, apierror.KindValidation)

	_, apierr = fx.access.GrantCategoryAccess(ctx, fam.rep, fam.creator.ID, foreign.ID, entity.CategoryMoney)
	requireKind(t, apierr, apierror.KindNotFound)
}

func TestAccessMatrix(t *testing.T) {
	fx := newFixture(t)
	fam := fx.seedFamily(t)
	ctx := context.Background()

	_, apierr := fx.access.GrantCategoryAccess(ctx, fam.creator, fam.creator.ID, fam.memberRow.ID, entity.CategoryMemories)
	requireOK(t, apierr)

	matrix, apierr := fx.access.GetAccessMatrix(ctx, fam.member, fam.creator.ID)
	requireOK(t, apierr)

	if len(matrix.Members) != 2 || len(matrix.Categories) != len(entity.AllCategories()) {
		t.Fatalf("unexpected matrix: %+v", matrix)
	}

	for _, m := range matrix.Members {
		switch m.MemberID {
		case fam.repRow.ID:
			if !m.Implicit {
				t.Fatalf("representative row should be implicit")
			}
		case fam.memberRow.ID:
			if len(m.Categories) != 1 || m.Categories[0] != entity.CategoryMemories {
				t.Fatalf("member categories: %+v", m.Categories)
			}
		}
	}
}

func TestPresetsLifecycle(t *testing.T) {
	fx := newFixture(t)
	fam := fx.seedFamily(t)
	ctx := context.Background()

	requireKind(t, fx.access.SetAccessPreset(ctx, fam.rep, fam.creator.ID, fam.memberRow.ID, entity.CategoryMoney), apierror.KindForbidden)

	requireOK(t, fx.access.SetAccessPreset(ctx, fam.creator, fam.creator.ID, fam.memberRow.ID, entity.CategoryMoney))
	requireOK(t, fx.access.SetAccessPreset(ctx, fam.creator, fam.creator.ID, fam.memberRow.ID, entity.CategoryMoney))
	requireOK(t, fx.access.SetAccessPreset(ctx, fam.creator, fam.creator.ID, fam.memberRow.ID, entity.CategoryMemories))
	requireOK(t, fx.access.SetAccessPreset(ctx, fam.creator, fam.creator.ID, fam.repRow.ID, entity.CategoryMedical))
	requireOK(t, fx.access.RemoveAccessPreset(ctx, fam.creator, fam.creator.ID, fam.memberRow.ID, entity.CategoryMemories))

	presets, apierr := fx.access.ListAccessPresets(ctx, fam.rep, fam.creator.ID)
	requireOK(t, apierr)
	if len(presets) != 2 {
		t.Fatalf("presets: want=2 got=%d", len(presets))
	}

	_, apierr = fx.access.ListAccessPresets(ctx, fam.member, fam.creator.ID)
	requireKind(t, apierr, apierror.KindForbidden)

	// A preset whose member row no longer exists.
	orphan := &entity.AccessPreset{ID: 42, CreatorID: fam.creator.ID, FamilyMemberID: 4242, CategoryID: entity.CategoryDigital, CreatedAt: 1}
	if err := fx.db.Create(orphan).Error; err != nil {
		t.Fatalf("seed orphan preset: %v", err)
	}

	fx.openContent(t, fam)

	requireKind(t, fx.access.SetAccessPreset(ctx, fam.creator, fam.creator.ID, fam.memberRow.ID, entity.CategoryOther), apierror.KindBlockedByLifecycle)

	_, apierr = fx.access.ApplyRecommendedPresets(ctx, fam.member, fam.creator.ID)
	requireKind(t, apierr, apierror.KindForbidden)

	applied, apierr := fx.access.ApplyRecommendedPresets(ctx, fam.rep, fam.creator.ID)
	requireOK(t, apierr)

	results := map[int64]contract.PresetResult{}
	for _, r := range applied.Results {
		results[r.MemberID] = r.Result
	}

	if applied.Granted != 1 || results[fam.memberRow.ID] != contract.PresetGranted {
		t.Fatalf("member preset should be granted: %+v", applied)
	}
	if results[fam.repRow.ID] != contract.PresetAlreadyGranted {
		t.Fatalf("representative preset should be already granted, got %s", results[fam.repRow.ID])
	}
	if results[orphan.FamilyMemberID] != contract.PresetMemberMissing {
		t.Fatalf("orphan preset should report a missing member, got %s", results[orphan.FamilyMemberID])
	}

	again, apierr := fx.access.ApplyRecommendedPresets(ctx, fam.rep, fam.creator.ID)
	requireOK(t, apierr)
	if again.Granted != 0 {
		t.Fatalf("second apply must not grant anything: %+v", again)
	}

	if got := fx.countNotifications(t, fam.creator.ID, entity.NotificationPresetsApplied); got != 1 {
		t.Fatalf("presets applied notifications: want=1 got=%d", got)
	}
}
