package middleware

import (
	"net/http"
	"strings"

	"app/internal/repository"
	"app/internal/token"

	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey      = "user_id"      // string (uuid)
	CtxUserRoleKey    = "user_role"    // string (USER/ADMIN)
	CtxAccessTokenKey = "access_token" // 検証済みの生token（logoutがblacklist登録に使う）
)

// bearerAuth用のJWT検証ミドルウェア。
//
// 段階は固定順で、最初に落ちた段階で401を返す:
//  1. ブラックリスト照合（署名検証より先）
//  2. 署名・有効期限の検証
//  3. type=accessの確認
//  4. subのユーザー解決 → contextにprincipalを載せる
//
// Authorizationヘッダが無いリクエストは匿名のまま通す。
// tokenの中身はログに出さない。
func AuthJWT(provider *token.Provider, store repository.TokenStore, users repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawToken := bearerToken(c)
			if rawToken == "" {
				// 匿名リクエストはエラーではない
				return next(c)
			}

			// ログアウト済みtokenは署名が有効でも拒否
			blacklisted, err := store.IsBlacklisted(c.Request().Context(), rawToken)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, errorJSON("internal error"))
			}
			if blacklisted {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			if err := provider.Validate(rawToken); err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			claims, err := provider.ParseClaims(rawToken)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			// refresh tokenをaccessとして使わせない
			if claims.TokenType != token.TypeAccess {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			user, err := users.FindByID(c.Request().Context(), claims.UserID)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			// contextへ保存
			c.Set(CtxUserIDKey, user.ID)
			c.Set(CtxUserRoleKey, string(user.Role))
			c.Set(CtxAccessTokenKey, rawToken)

			return next(c)
		}
	}
}

// Authorization: Bearer xxx からtokenを抜く。無ければ空文字。
func bearerToken(c echo.Context) string {
	authz := c.Request().Header.Get("Authorization")
	if authz == "" {
		return ""
	}

	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}
