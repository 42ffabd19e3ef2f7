package oauth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	// OAuth2ハンドシェイク状態を入れるcookie名
	AuthRequestCookieName = "oauth2_auth_request"

	// ハンドシェイク状態の寿命（秒）。リダイレクト往復の間だけ生きればいい。
	authRequestTTL = 180 * time.Second
)

var (
	// 形式不正・改ざんされたハンドシェイク状態
	ErrInvalidAuthRequest = errors.New("invalid authorization request")
	// TTL切れのハンドシェイク状態
	ErrAuthRequestExpired = errors.New("authorization request expired")
)

// AuthorizationRequestはOAuth2のリダイレクト往復をまたいで持ち回る状態。
// cookieでクライアント側に持たせるので、信用する前にHMACタグ検証が必須。
type AuthorizationRequest struct {
	Provider    string    `json:"provider"`
	State       string    `json:"state"`
	RedirectURI string    `json:"redirectUri,omitempty"`
	IssuedAt    time.Time `json:"issuedAt"`
}

// AuthRequestCacheはハンドシェイク状態をHMAC付きblobに詰めてcookieへ出し入れする。
type AuthRequestCache struct {
	key []byte
	now func() time.Time
}

func NewAuthRequestCache(key []byte) *AuthRequestCache {
	return &AuthRequestCache{
		key: key,
		now: time.Now,
	}
}

// Encodeは状態を base64url(JSON) + "." + base64url(HMAC-SHA256) にする。
func (c *AuthRequestCache) Encode(req AuthorizationRequest) (string, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	payload := base64.RawURLEncoding.EncodeToString(raw)
	return payload + "." + c.sign(payload), nil
}

// Decodeはblobを検証して状態を取り出す。
// タグ検証に通るまで中身は一切信用しない。
func (c *AuthRequestCache) Decode(blob string) (*AuthorizationRequest, error) {
	payload, tag, ok := strings.Cut(blob, ".")
	if !ok || payload == "" || tag == "" {
		return nil, ErrInvalidAuthRequest
	}

	if !hmac.Equal([]byte(c.sign(payload)), []byte(tag)) {
		return nil, ErrInvalidAuthRequest
	}

	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrInvalidAuthRequest
	}

	var req AuthorizationRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, ErrInvalidAuthRequest
	}
	if req.State == "" || req.Provider == "" {
		return nil, ErrInvalidAuthRequest
	}

	// TTL超過はリプレイ対策として拒否
	if c.now().After(req.IssuedAt.Add(authRequestTTL)) {
		return nil, ErrAuthRequestExpired
	}

	return &req, nil
}

// Saveは状態をcookieにセットする。
func (c *AuthRequestCache) Save(ec echo.Context, req AuthorizationRequest) error {
	blob, err := c.Encode(req)
	if err != nil {
		return err
	}

	ec.SetCookie(&http.Cookie{
		Name:     AuthRequestCookieName,
		Value:    blob,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   int(authRequestTTL.Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Loadはcookieから状態を取り出す。cookieが無い・壊れている場合はエラー。
func (c *AuthRequestCache) Load(ec echo.Context) (*AuthorizationRequest, error) {
	cookie, err := ec.Cookie(AuthRequestCookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrInvalidAuthRequest
	}
	return c.Decode(cookie.Value)
}

// Removeはcookieを破棄する。コールバック処理後に必ず呼ぶ。
func (c *AuthRequestCache) Remove(ec echo.Context) {
	ec.SetCookie(&http.Cookie{
		Name:     AuthRequestCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

func (c *AuthRequestCache) sign(payload string) string {
	mac := hmac.New(sha256.New, c.key)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
