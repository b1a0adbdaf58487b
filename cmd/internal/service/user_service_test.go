package service

import (
	"context"
	"familynotes/cmd/internal/testutil"
	"familynotes/cmd/internal/utils"
	"familynotes/cmd/internal/utils/apierror"
	"testing"
)

func TestResolveIdentity(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	user, apierr := fx.users.ResolveIdentity(ctx, &utils.TokenData{Sub: "sub-1", Name: "Ana"})
	requireOK(t, apierr)

	again, apierr := fx.users.ResolveIdentity(ctx, &utils.TokenData{Sub: "sub-1", Name: " Ana Maria "})
	requireOK(t, apierr)

	if again.ID != user.ID {
		t.Fatalf("same subject resolved to a new user")
	}
	if again.DisplayName != "Ana Maria" {
		t.Fatalf("display name not synced: %q", again.DisplayName)
	}

	self := fx.users.GetSelf(again)
	if self.ID != user.ID || self.DisplayName != "Ana Maria" {
		t.Fatalf("unexpected self: %+v", self)
	}
}

func TestResolveIdentityRejectsInactive(t *testing.T) {
	fx := newFixture(t)
	user := testutil.SeedUser(t, fx.db, "gone")
	if err := fx.db.Model(user).Update("active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	_, apierr := fx.users.ResolveIdentity(context.Background(), &utils.TokenData{Sub: user.SubUUID, Name: "gone"})
	requireKind(t, apierr, apierror.KindForbidden)
}
