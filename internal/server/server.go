package server

import (
	"app/internal/handler"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// Depsはルーティングに必要な部品一式。main.goで組み立てて渡す。
type Deps struct {
	AuthHandler      *handler.AuthHandler
	OAuthHandler     *handler.OAuthHandler
	AdminUserHandler *handler.AdminUserHandler
	AuthJWT          echo.MiddlewareFunc
}

// Newはechoを組み立てて返す。Startは呼ばない（テストでも使う）。
func New(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	RegisterRoutes(e, deps)
	return e
}

// Startはサーバーを起動する。
func Start(addr string, deps Deps) error {
	e := New(deps)
	return e.Start(addr)
}
