package usecase

import (
	"context"
	"errors"
	"time"

	"app/internal/domain/model"
	"app/internal/repository"
	"app/internal/token"
)

var (
	// 署名・形式・ローテーション不一致で不正なトークン
	ErrInvalidToken = errors.New("invalid token")
	// 期限切れトークン
	ErrTokenExpired = errors.New("token expired")
	// 保存中のrefresh tokenが無い
	ErrTokenNotFound = errors.New("token not found")
	// トークンのsubに対応するユーザーが居ない
	ErrUserNotFound = errors.New("user not found")
)

// /auth/refresh などが返すトークンペア
type AuthResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
}

// SessionUsecaseはトークンの発行・ローテーション・失効をまとめる。
// 「現在のrefresh token」の正はTokenStoreだけが持つ。
type SessionUsecase struct {
	provider *token.Provider
	store    repository.TokenStore
	users    repository.UserRepository
}

func NewSessionUsecase(provider *token.Provider, store repository.TokenStore, users repository.UserRepository) *SessionUsecase {
	return &SessionUsecase{
		provider: provider,
		store:    store,
		users:    users,
	}
}

// IssueSessionはログイン成功時にトークンペアを発行してrefreshを保存する。
func (u *SessionUsecase) IssueSession(ctx context.Context, user *model.User) (*AuthResponse, error) {
	accessToken, err := u.provider.IssueAccessToken(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}

	refreshToken, err := u.provider.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}

	if err := u.store.SaveRefreshToken(ctx, user.ID, refreshToken, u.provider.RefreshTTL()); err != nil {
		return nil, err
	}

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}, nil
}

// Refreshはrefresh tokenをローテーションして新しいペアを返す。
//
// 提示されたtokenは保存中の値と完全一致が必須。ローテーション済みの
// 旧tokenの再利用はここの不一致で検知されてErrInvalidTokenになる。
// 同一ユーザーの同時refreshも後から来た方が同じ理由で失敗する
// （負けたら閉じる側に倒す）。
func (u *SessionUsecase) Refresh(ctx context.Context, oldRefreshToken string) (*AuthResponse, error) {
	if err := u.provider.Validate(oldRefreshToken); err != nil {
		return nil, mapTokenError(err)
	}

	claims, err := u.provider.ParseClaims(oldRefreshToken)
	if err != nil {
		return nil, mapTokenError(err)
	}

	// access tokenをrefreshに使わせない
	if claims.TokenType != token.TypeRefresh {
		return nil, ErrInvalidToken
	}

	stored, err := u.store.GetRefreshToken(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	if stored != oldRefreshToken {
		return nil, ErrInvalidToken
	}

	user, err := u.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// 新しいペアを発行。保存は同じキーへの上書きなので
	// 旧値の削除と新値の保存が1操作で済む。
	return u.IssueSession(ctx, user)
}

// Logoutはrefresh tokenを破棄し、まだ有効なaccess tokenを
// 残り有効期間だけブラックリストに入れる。
// refreshが既に無くてもエラーにしない（冪等）。
func (u *SessionUsecase) Logout(ctx context.Context, userID string, accessToken string) error {
	if err := u.store.DeleteRefreshToken(ctx, userID); err != nil {
		return err
	}

	if accessToken == "" {
		return nil
	}

	claims, err := u.provider.ParseClaims(accessToken)
	if err != nil {
		// 既に無効なtokenはブラックリストに入れる意味が無い
		return nil
	}

	remaining := time.Until(claims.ExpiresAt)
	if remaining <= 0 {
		return nil
	}

	return u.store.BlacklistAccessToken(ctx, accessToken, remaining)
}

// HasValidRefreshTokenは保存中のrefresh tokenがあるかを返す。
func (u *SessionUsecase) HasValidRefreshToken(ctx context.Context, userID string) (bool, error) {
	return u.store.HasRefreshToken(ctx, userID)
}

// token packageのsentinelをusecaseの語彙に揃える
func mapTokenError(err error) error {
	switch {
	case errors.Is(err, token.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, token.ErrInvalidToken):
		return ErrInvalidToken
	default:
		return err
	}
}
