package handler

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"app/internal/domain/model"
	"app/internal/oauth"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// OAuthHandlerはauthorization-codeフローの入口と出口を持つ。
// 入口: GET /oauth2/authorization/:provider（プロバイダーへ302）
// 出口: GET /login/oauth2/code/:provider（codeを受けてトークン発行、フロントへ302）
type OAuthHandler struct {
	oauthUC     *usecase.OAuthUserUsecase
	sessionUC   *usecase.SessionUsecase
	cache       *oauth.AuthRequestCache
	endpoints   map[model.Provider]oauth.Endpoints
	callbackURL string // このサーバーのコールバックURL（末尾に/:providerが付く）
	redirectURI string // ログイン完了後に戻すフロントのURL
	httpClient  *http.Client
}

func NewOAuthHandler(
	oauthUC *usecase.OAuthUserUsecase,
	sessionUC *usecase.SessionUsecase,
	cache *oauth.AuthRequestCache,
	endpoints map[model.Provider]oauth.Endpoints,
	callbackURL string,
	redirectURI string,
) *OAuthHandler {
	return &OAuthHandler{
		oauthUC:     oauthUC,
		sessionUC:   sessionUC,
		cache:       cache,
		endpoints:   endpoints,
		callbackURL: callbackURL,
		redirectURI: redirectURI,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// AuthorizeはGET /oauth2/authorization/:provider のハンドラ。
// state付きでプロバイダーの認可画面へリダイレクトする。
func (h *OAuthHandler) Authorize(c echo.Context) error {
	provider, err := model.ParseProvider(c.Param("provider"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "UNSUPPORTED_PROVIDER"})
	}

	ep, ok := h.endpoints[provider]
	if !ok || ep.ClientID == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "UNSUPPORTED_PROVIDER"})
	}

	state, err := generateSecureToken(32)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "INTERNAL"})
	}

	// redirect_uriの上書きは許可済みURIと同一オリジンの場合だけ受ける。
	// 任意ホストを載せたblobはそもそも作らない。
	override := strings.TrimSpace(c.QueryParam("redirect_uri"))
	if override != "" && !h.isAuthorizedRedirect(override) {
		override = ""
	}

	// ハンドシェイク状態をcookieに持たせる（HMACタグ付き）
	req := oauth.AuthorizationRequest{
		Provider:    string(provider),
		State:       state,
		RedirectURI: override,
		IssuedAt:    time.Now(),
	}
	if err := h.cache.Save(c, req); err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "INTERNAL"})
	}

	query := url.Values{}
	query.Set("response_type", "code")
	query.Set("client_id", ep.ClientID)
	query.Set("redirect_uri", h.providerCallbackURL(provider))
	if len(ep.Scopes) > 0 {
		query.Set("scope", strings.Join(ep.Scopes, " "))
	}
	query.Set("state", state)

	return c.Redirect(http.StatusFound, ep.AuthURL+"?"+query.Encode())
}

// CallbackはGET /login/oauth2/code/:provider のハンドラ。
//
// 成功時はフロントへ accessToken / refreshToken をクエリで渡して302。
// 失敗時も302で error / errorCode / message を渡す（画面側で出す）。
func (h *OAuthHandler) Callback(c echo.Context) error {
	provider, err := model.ParseProvider(c.Param("provider"))
	if err != nil {
		return h.redirectFailure(c, "unsupported_provider", "지원하지 않는 OAuth 제공자입니다.")
	}

	// プロバイダー側で拒否された場合
	if errParam := c.QueryParam("error"); errParam != "" {
		msg := c.QueryParam("error_description")
		if msg == "" {
			msg = "인증에 실패했습니다."
		}
		return h.redirectFailure(c, errParam, msg)
	}

	// ハンドシェイク状態の検証。使い捨てなのでcookieはここで消す。
	authReq, err := h.cache.Load(c)
	h.cache.Remove(c)
	if err != nil {
		return h.redirectFailure(c, "invalid_state", "인증 요청 상태가 유효하지 않습니다.")
	}

	state := c.QueryParam("state")
	code := c.QueryParam("code")
	if code == "" || state == "" || state != authReq.State || authReq.Provider != string(provider) {
		return h.redirectFailure(c, "invalid_state", "인증 요청 상태가 유효하지 않습니다.")
	}

	ep := h.endpoints[provider]

	// code→プロバイダーのaccess token
	providerToken, err := h.exchangeCode(c.Request().Context(), provider, ep, code)
	if err != nil {
		c.Logger().Errorf("oauth token exchange failed: provider=%s err=%v", provider, err)
		return h.redirectFailure(c, "token_request_failed", "OAuth 토큰 요청에 실패했습니다.")
	}

	// attributes取得
	attrs, err := h.fetchUserInfo(c.Request().Context(), ep, providerToken)
	if err != nil {
		c.Logger().Errorf("oauth userinfo failed: provider=%s err=%v", provider, err)
		return h.redirectFailure(c, "user_info_request_failed", "OAuth 사용자 정보 요청에 실패했습니다.")
	}

	// 正規ユーザーに対応付け（初回なら作成）
	user, err := h.oauthUC.LoadOrCreateUser(c.Request().Context(), string(provider), attrs)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrUnsupportedProvider):
			return h.redirectFailure(c, "unsupported_provider", "지원하지 않는 OAuth 제공자입니다.")
		case errors.Is(err, oauth.ErrEmailMissing):
			return h.redirectFailure(c, "email_not_found", "이메일 정보를 찾을 수 없습니다.")
		default:
			c.Logger().Errorf("oauth user resolution failed: provider=%s err=%v", provider, err)
			return h.redirectFailure(c, "login_failed", "OAuth 로그인에 실패했습니다.")
		}
	}

	// 自前のトークンペアを発行してrefreshを保存
	session, err := h.sessionUC.IssueSession(c.Request().Context(), user)
	if err != nil {
		c.Logger().Errorf("session issue failed for user %s: %v", user.ID, err)
		return h.redirectFailure(c, "login_failed", "OAuth 로그인에 실패했습니다.")
	}

	c.Logger().Infof("oauth login success: provider=%s user=%s", provider, user.ID)
	return h.redirectSuccess(c, authReq.RedirectURI, session)
}

// 成功リダイレクト。redirect_uri指定が無ければ設定の既定URLへ。
// トークンを載せるので、上書き先はここでも許可済みオリジンを再確認する。
func (h *OAuthHandler) redirectSuccess(c echo.Context, override string, session *usecase.AuthResponse) error {
	target := h.redirectURI
	if override != "" && h.isAuthorizedRedirect(override) {
		target = override
	}

	u, err := url.Parse(target)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "INTERNAL"})
	}

	query := u.Query()
	query.Set("accessToken", session.AccessToken)
	query.Set("refreshToken", session.RefreshToken)
	u.RawQuery = query.Encode()

	return c.Redirect(http.StatusFound, u.String())
}

// 失敗リダイレクト。error/errorCode/messageを載せる。
func (h *OAuthHandler) redirectFailure(c echo.Context, errorCode string, message string) error {
	u, err := url.Parse(h.redirectURI)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "INTERNAL"})
	}

	query := u.Query()
	query.Set("error", "true")
	query.Set("errorCode", errorCode)
	query.Set("message", message)
	u.RawQuery = query.Encode()

	return c.Redirect(http.StatusFound, u.String())
}

// isAuthorizedRedirectは行き先が設定済みリダイレクトURIと同一オリジン
// （scheme + host）かを確認する。
func (h *OAuthHandler) isAuthorizedRedirect(raw string) bool {
	target, err := url.Parse(raw)
	if err != nil {
		return false
	}
	authorized, err := url.Parse(h.redirectURI)
	if err != nil {
		return false
	}
	return target.Scheme == authorized.Scheme && target.Host == authorized.Host
}

func (h *OAuthHandler) providerCallbackURL(provider model.Provider) string {
	return strings.TrimSuffix(h.callbackURL, "/") + "/" + strings.ToLower(string(provider))
}

// exchangeCodeは認可codeをプロバイダーのtokenに交換する。
func (h *OAuthHandler) exchangeCode(ctx context.Context, provider model.Provider, ep oauth.Endpoints, code string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", h.providerCallbackURL(provider))
	form.Set("client_id", ep.ClientID)
	form.Set("client_secret", ep.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if payload.AccessToken == "" {
		return "", errors.New("missing access token")
	}

	return payload.AccessToken, nil
}

// fetchUserInfoはプロバイダーのuserinfoをそのままmapで返す。
// 形の解釈はclaimパステーブル側の仕事。
func (h *OAuthHandler) fetchUserInfo(ctx context.Context, ep oauth.Endpoints, accessToken string) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ep.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo endpoint returned %d", resp.StatusCode)
	}

	var attrs map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}

// ランダム文字列を作る。
func generateSecureToken(bytesLen int) (string, error) {
	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
