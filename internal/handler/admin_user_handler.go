package handler

import (
	"errors"
	"net/http"

	"app/internal/repository"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /admin配下のユーザー管理。ADMIN限定（routes側でguardを積む）。
type AdminUserHandler struct {
	userUC    *usecase.UserUsecase
	sessionUC *usecase.SessionUsecase
}

func NewAdminUserHandler(userUC *usecase.UserUsecase, sessionUC *usecase.SessionUsecase) *AdminUserHandler {
	return &AdminUserHandler{userUC: userUC, sessionUC: sessionUC}
}

// GetUserはGET /admin/users/:id のハンドラ。
func (h *AdminUserHandler) GetUser(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "VALIDATION_ERROR"})
	}

	user, err := h.userUC.GetUser(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: "USER_NOT_FOUND"})
		}
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "INTERNAL"})
	}

	return c.JSON(http.StatusOK, user)
}

type sessionStatusResponse struct {
	UserID   string `json:"userId"`
	LoggedIn bool   `json:"loggedIn"`
}

// GetSessionはGET /admin/users/:id/session のハンドラ。
// 保存中のrefresh tokenが生きているかを返す。
func (h *AdminUserHandler) GetSession(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "VALIDATION_ERROR"})
	}

	ok, err := h.sessionUC.HasValidRefreshToken(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "INTERNAL"})
	}

	return c.JSON(http.StatusOK, sessionStatusResponse{UserID: userID, LoggedIn: ok})
}

// ForceLogoutはPOST /admin/users/:id/force-logout のハンドラ。
// 対象ユーザーのrefresh tokenを破棄して次のrefreshを失敗させる。
func (h *AdminUserHandler) ForceLogout(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "VALIDATION_ERROR"})
	}

	if err := h.sessionUC.Logout(c.Request().Context(), userID, ""); err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "INTERNAL"})
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "force logout success"})
}
