package token

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var (
	// 署名・形式が不正なトークン
	ErrInvalidToken = errors.New("invalid token")
	// 期限切れトークン
	ErrTokenExpired = errors.New("token expired")
)

// typeクレームの値
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Claimsは署名済みトークンの中身。トークンの外では生きない。
type Claims struct {
	UserID    string
	Role      string
	TokenType string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ProviderはHMAC-SHA256でトークンの発行・検証を行う。
// ストアやネットワークには触らない。
type Provider struct {
	key        []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewProviderはbase64のシークレットを復号してProviderを作る。
// 鍵が256bit（32バイト）未満なら起動時点で失敗させる。
func NewProvider(secretBase64 string, accessTTL, refreshTTL time.Duration) (*Provider, error) {
	key, err := base64.StdEncoding.DecodeString(secretBase64)
	if err != nil {
		return nil, fmt.Errorf("jwt secret must be base64: %w", err)
	}
	if len(key) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 256 bits (32 bytes), got %d bytes", len(key))
	}

	return &Provider{
		key:        key,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// AccessTTLはaccess tokenの有効期間を返す（cookieやTTL設定で使う）。
func (p *Provider) AccessTTL() time.Duration { return p.accessTTL }

// RefreshTTLはrefresh tokenの有効期間を返す。
func (p *Provider) RefreshTTL() time.Duration { return p.refreshTTL }

// IssueAccessTokenはaccess tokenを発行する。
// claims: sub / role / type=access / iat / exp
func (p *Provider) IssueAccessToken(userID string, role string) (string, error) {
	now := p.now()

	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"type": TypeAccess,
		"iat":  now.Unix(),
		"exp":  now.Add(p.accessTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(p.key)
}

// IssueRefreshTokenはrefresh tokenを発行する。roleは持たせない。
func (p *Provider) IssueRefreshToken(userID string) (string, error) {
	now := p.now()

	claims := jwt.MapClaims{
		"sub":  userID,
		"type": TypeRefresh,
		"iat":  now.Unix(),
		"exp":  now.Add(p.refreshTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(p.key)
}

// Validateは署名と有効期限を検証する。
// 期限切れはErrTokenExpired、それ以外の不正はErrInvalidToken。
func (p *Provider) Validate(tokenString string) error {
	_, err := p.parse(tokenString)
	return err
}

// ParseClaimsは検証済みトークンからClaimsを取り出す。
func (p *Provider) ParseClaims(tokenString string) (Claims, error) {
	mc, err := p.parse(tokenString)
	if err != nil {
		return Claims{}, err
	}

	sub, ok := mc["sub"].(string)
	if !ok || sub == "" {
		return Claims{}, ErrInvalidToken
	}
	typ, ok := mc["type"].(string)
	if !ok || typ == "" {
		return Claims{}, ErrInvalidToken
	}

	// roleはrefresh tokenには無いので空を許す
	role, _ := mc["role"].(string)

	iat, err := claimUnix(mc["iat"])
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	exp, err := claimUnix(mc["exp"])
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	return Claims{
		UserID:    sub,
		Role:      role,
		TokenType: typ,
		IssuedAt:  time.Unix(iat, 0),
		ExpiresAt: time.Unix(exp, 0),
	}, nil
}

func (p *Provider) parse(tokenString string) (jwt.MapClaims, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return p.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if t == nil || !t.Valid {
		return nil, ErrInvalidToken
	}

	mc, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return mc, nil
}

// iat/expはJSON経由だとfloat64になる
func claimUnix(v interface{}) (int64, error) {
	switch t := v.(type) {
	case float64:
		return int64(t), nil
	case int64:
		return t, nil
	default:
		return 0, errors.New("invalid numeric claim")
	}
}
