package usecase

import (
	"context"
	"errors"

	"app/internal/domain/model"
	"app/internal/oauth"
	"app/internal/repository"
)

// UUID等のIDを作る約束
type IDGenerator interface {
	NewID() string
}

// OAuthUserUsecaseは外部プロバイダーのclaimを正規ユーザーに対応付ける。
// ユーザーが居なければ初回ログインとして作成する。
type OAuthUserUsecase struct {
	users repository.UserRepository
	idGen IDGenerator
}

func NewOAuthUserUsecase(users repository.UserRepository, idGen IDGenerator) *OAuthUserUsecase {
	return &OAuthUserUsecase{
		users: users,
		idGen: idGen,
	}
}

// LoadOrCreateUserはprovider名とattributesからユーザーを解決する。
//  1. provider名を閉集合に対して検証
//  2. プロバイダー別のclaimパスでemailを抽出（無ければ失敗）
//  3. 表示名を抽出。無ければemailのローカル部
//  4. emailで検索、居なければrole=USERで作成
//
// 同じemailの初回ログインが同時に2つ来た場合、後から来た方のCreateは
// unique制約で弾かれるので、できたばかりの行を取り直して返す。
func (u *OAuthUserUsecase) LoadOrCreateUser(ctx context.Context, providerName string, attrs map[string]interface{}) (*model.User, error) {
	provider, err := model.ParseProvider(providerName)
	if err != nil {
		return nil, err
	}

	email, err := oauth.ExtractEmail(provider, attrs)
	if err != nil {
		return nil, err
	}

	nickname := oauth.ExtractNickname(provider, attrs, email)

	user, err := u.users.FindByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	// 初回ログイン。ここで作る。
	created := &model.User{
		ID:       u.idGen.NewID(),
		Email:    email,
		Nickname: nickname,
		Role:     model.RoleUser,
		Provider: provider,
	}

	if err := u.users.Create(ctx, created); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			// 競合に負けた＝もう行がある。取り直して返す。
			return u.users.FindByEmail(ctx, email)
		}
		return nil, err
	}

	return created, nil
}
