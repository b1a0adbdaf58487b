package service

import (
	"context"
	"familynotes/cmd/internal/contract"
	"familynotes/cmd/internal/domain/entity"
	"familynotes/cmd/internal/utils"
	"familynotes/cmd/internal/utils/apierror"
	"familynotes/cmd/internal/utils/dbctx"
	"strings"
)

type DefaultUserService struct {
	UserRepo UserRepository
}

func NewUserService(userRepo UserRepository) *DefaultUserService {
	return &DefaultUserService{UserRepo: userRepo}
}

// ResolveIdentity maps a verified token subject to its local user, creating
// it on first sight and keeping the display name in sync with the token.
func (u *DefaultUserService) ResolveIdentity(ctx context.Context, data *utils.TokenData) (*entity.User, apierror.ErrorResponse) {
	dbc := dbctx.Background(ctx)
	name := strings.TrimSpace(data.Name)

	user, err := u.UserRepo.FindOrCreateBySub(dbc, data.Sub, name)
	if err != nil {
		return nil, internalError("resolve identity", err)
	}

	if !user.Active {
		return nil, apierror.NewForbiddenError("Missing access")
	}

	if name != "" && user.DisplayName != name {
		user.DisplayName = name
		user.UpdatedAt = utils.NowUTC()
		if err = u.UserRepo.Save(dbc, user); err != nil {
			return nil, internalError("update display name", err)
		}
	}
	return user, nil
}

func (u *DefaultUserService) GetSelf(user *entity.User) *contract.UserResponse {
	return &contract.UserResponse{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		CreatedAt:   utils.FormatEpoch(user.CreatedAt),
	}
}
