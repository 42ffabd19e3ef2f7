package repository

import (
	"context"
	"errors"
	"time"

	domainrepo "app/internal/repository"

	"github.com/redis/go-redis/v9"
)

// Redisのキーprefix
const (
	refreshTokenPrefix = "refresh_token:"
	blacklistPrefix    = "blacklist:"
)

// blacklistキーに入れるマーカー値
const blacklistMarker = "blacklisted"

type tokenStoreRedis struct {
	client redis.UniversalClient
}

// NewTokenStoreRedisはRedis実装のTokenStoreを作る。
// UniversalClientを受けるのでテストではminiredisを挿せる。
func NewTokenStoreRedis(client redis.UniversalClient) domainrepo.TokenStore {
	return &tokenStoreRedis{client: client}
}

// refresh tokenを保存。SETなので既存値は常に上書き（1ユーザー1トークン）。
func (s *tokenStoreRedis) SaveRefreshToken(ctx context.Context, userID string, token string, ttl time.Duration) error {
	return s.client.Set(ctx, refreshTokenPrefix+userID, token, ttl).Err()
}

func (s *tokenStoreRedis) GetRefreshToken(ctx context.Context, userID string) (string, error) {
	v, err := s.client.Get(ctx, refreshTokenPrefix+userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domainrepo.ErrRefreshTokenNotFound
		}
		return "", err
	}
	return v, nil
}

// 削除。キーが無くてもエラーにしない（logoutの冪等性）。
func (s *tokenStoreRedis) DeleteRefreshToken(ctx context.Context, userID string) error {
	return s.client.Del(ctx, refreshTokenPrefix+userID).Err()
}

func (s *tokenStoreRedis) HasRefreshToken(ctx context.Context, userID string) (bool, error) {
	n, err := s.client.Exists(ctx, refreshTokenPrefix+userID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// access tokenをブラックリスト登録。TTLは残り有効期間。
func (s *tokenStoreRedis) BlacklistAccessToken(ctx context.Context, token string, ttl time.Duration) error {
	return s.client.Set(ctx, blacklistPrefix+token, blacklistMarker, ttl).Err()
}

func (s *tokenStoreRedis) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Exists(ctx, blacklistPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
