package model

import (
	"errors"
	"strings"
	"time"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// OAuthプロバイダーの閉集合。これ以外はParseProviderで弾く。
type Provider string

const (
	ProviderGoogle Provider = "GOOGLE"
	ProviderKakao  Provider = "KAKAO"
	ProviderNaver  Provider = "NAVER"
)

// 未対応のOAuthプロバイダー
var ErrUnsupportedProvider = errors.New("unsupported oauth provider")

// ParseProviderは外部から来たprovider名を検証してProviderに変換する。
// 大文字小文字は区別しない（googleもGOOGLEも通る）。
func ParseProvider(s string) (Provider, error) {
	switch {
	case strings.EqualFold(s, string(ProviderGoogle)):
		return ProviderGoogle, nil
	case strings.EqualFold(s, string(ProviderKakao)):
		return ProviderKakao, nil
	case strings.EqualFold(s, string(ProviderNaver)):
		return ProviderNaver, nil
	default:
		return "", ErrUnsupportedProvider
	}
}

// Userは永続リポジトリが所有する。作成はOAuthログインの初回のみ。
type User struct {
	ID        string    `json:"userId" gorm:"type:uuid;primaryKey"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Nickname  string    `json:"nickname"`
	Role      Role      `json:"role" gorm:"type:varchar(20);not null;default:'USER'"`
	Provider  Provider  `json:"provider" gorm:"type:varchar(20);not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
