package repository

import (
	"context"
	"errors"
	"time"
)

// 保存されたrefresh tokenが存在しない
var ErrRefreshTokenNotFound = errors.New("refresh token not found")

// TokenStoreはTTL付きkey-valueストアの約束（実体はRedis）。
// 各操作はキー単位でアトミック。複数キーのトランザクションは要らない。
type TokenStore interface {
	// refresh tokenを保存する。既存の値は上書き（1ユーザー1トークン）。
	SaveRefreshToken(ctx context.Context, userID string, token string, ttl time.Duration) error
	// 保存中のrefresh tokenを取得。無ければErrRefreshTokenNotFound。
	GetRefreshToken(ctx context.Context, userID string) (string, error)
	// refresh tokenを削除。無くてもエラーにしない。
	DeleteRefreshToken(ctx context.Context, userID string) error
	// refresh tokenが存在するか
	HasRefreshToken(ctx context.Context, userID string) (bool, error)
	// access tokenをブラックリストに入れる。TTLは残り有効期間。
	BlacklistAccessToken(ctx context.Context, token string, ttl time.Duration) error
	// ブラックリスト済みか
	IsBlacklisted(ctx context.Context, token string) (bool, error)
}
