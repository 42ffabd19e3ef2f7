package server

import (
	"app/internal/middleware"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, deps Deps) {
	// OAuth2ログインの入口と出口
	e.GET("/oauth2/authorization/:provider", deps.OAuthHandler.Authorize)
	e.GET("/login/oauth2/code/:provider", deps.OAuthHandler.Callback)

	// セッション系。refreshはtoken自体が資格情報なのでAuthJWT無し。
	e.POST("/auth/refresh", deps.AuthHandler.Refresh)

	auth := e.Group("/auth", deps.AuthJWT)
	auth.POST("/logout", deps.AuthHandler.Logout)
	auth.GET("/me", deps.AuthHandler.Me)
	auth.PATCH("/me", deps.AuthHandler.UpdateMe)

	// /admin配下は「JWT必須 + ADMIN限定」
	admin := e.Group("/admin", deps.AuthJWT, middleware.AdminRoleGuard())
	admin.GET("/users/:id", deps.AdminUserHandler.GetUser)
	admin.GET("/users/:id/session", deps.AdminUserHandler.GetSession)
	admin.POST("/users/:id/force-logout", deps.AdminUserHandler.ForceLogout)
}
