package handler

import (
	"errors"
	"net/http"
	"strings"

	"app/internal/middleware"
	"app/internal/repository"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	sessionUC *usecase.SessionUsecase
	userUC    *usecase.UserUsecase
}

// DIコンストラクタ
func NewAuthHandler(sessionUC *usecase.SessionUsecase, userUC *usecase.UserUsecase) *AuthHandler {
	return &AuthHandler{
		sessionUC: sessionUC,
		userUC:    userUC,
	}
}

// /auth/refresh のリクエストボディ。
type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// /auth/me PATCH のリクエストボディ。
type updateMeRequest struct {
	Nickname string `json:"nickname"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// RefreshはPOST /auth/refresh のハンドラ。
// refresh tokenをローテーションして新しいペアを返す。
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "VALIDATION_ERROR"})
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "VALIDATION_ERROR"})
	}

	res, err := h.sessionUC.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidToken),
			errors.Is(err, usecase.ErrTokenExpired),
			errors.Is(err, usecase.ErrTokenNotFound),
			errors.Is(err, usecase.ErrUserNotFound):
			// 失敗理由の詳細はクライアントに出さない
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "UNAUTHORIZED"})
		default:
			c.Logger().Errorf("refresh failed: %v", err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "INTERNAL"})
		}
	}

	return c.JSON(http.StatusOK, res)
}

// LogoutはPOST /auth/logout のハンドラ。AuthJWT必須。
// refresh tokenを破棄し、提示中のaccess tokenをブラックリストに入れる。
func (h *AuthHandler) Logout(c echo.Context) error {
	userID, ok := c.Get(middleware.CtxUserIDKey).(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "UNAUTHORIZED"})
	}

	// AuthJWTが検証済みの生tokenをcontextに置いている
	accessToken, _ := c.Get(middleware.CtxAccessTokenKey).(string)

	if err := h.sessionUC.Logout(c.Request().Context(), userID, accessToken); err != nil {
		c.Logger().Errorf("logout failed for user %s: %v", userID, err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "INTERNAL"})
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "logout success"})
}

// MeはGET /auth/me のハンドラ。AuthJWT必須。
func (h *AuthHandler) Me(c echo.Context) error {
	userID, ok := c.Get(middleware.CtxUserIDKey).(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "UNAUTHORIZED"})
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

// UpdateMeはPATCH /auth/me のハンドラ。ニックネームを変更する。
func (h *AuthHandler) UpdateMe(c echo.Context) error {
	userID, ok := c.Get(middleware.CtxUserIDKey).(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "UNAUTHORIZED"})
	}

	var req updateMeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "VALIDATION_ERROR"})
	}

	user, err := h.userUC.UpdateNickname(c.Request().Context(), userID, req.Nickname)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: "USER_NOT_FOUND"})
		}
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "INTERNAL"})
	}

	return c.JSON(http.StatusOK, user)
}
