package usecase

import (
	"context"
	"strings"

	"app/internal/domain/model"
	"app/internal/repository"
)

// UserUsecaseはプロフィールの取得・更新。
type UserUsecase struct {
	users repository.UserRepository
}

func NewUserUsecase(users repository.UserRepository) *UserUsecase {
	return &UserUsecase{users: users}
}

func (u *UserUsecase) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return u.users.FindByID(ctx, userID)
}

// UpdateNicknameはニックネームを変更する。空文字なら何もしない。
func (u *UserUsecase) UpdateNickname(ctx context.Context, userID string, nickname string) (*model.User, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	nickname = strings.TrimSpace(nickname)
	if nickname != "" && nickname != user.Nickname {
		user.Nickname = nickname
		if err := u.users.Update(ctx, user); err != nil {
			return nil, err
		}
	}

	return user, nil
}
