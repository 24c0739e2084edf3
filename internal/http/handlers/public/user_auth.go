package public

import (
	"errors"
	"strings"

	"github.com/loyaltyclub-next/internal/http/response"
	"github.com/loyaltyclub-next/internal/models"
	"github.com/loyaltyclub-next/internal/service"

	"github.com/gin-gonic/gin"
)

// TelegramLoginRequest 小程序登录请求
type TelegramLoginRequest struct {
	InitData string `json:"init_data" binding:"required"`
}

// TelegramLoginPayload 登录结果响应
type TelegramLoginPayload struct {
	Token     string       `json:"token"`
	ExpiresAt int64        `json:"expires_at"`
	User      *models.User `json:"user"`
}

// LoginWithTelegram 校验 Telegram initData 并颁发用户令牌
func (h *Handler) LoginWithTelegram(c *gin.Context) {
	var req TelegramLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	user, token, expiresAt, err := h.UserAuthService.LoginWithInitData(strings.TrimSpace(req.InitData))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInitDataInvalid):
			respondError(c, response.CodeUnauthorized, "error.init_data_invalid", nil)
		case errors.Is(err, service.ErrInitDataExpired):
			respondError(c, response.CodeUnauthorized, "error.init_data_expired", nil)
		case errors.Is(err, service.ErrUserDisabled):
			respondError(c, response.CodeForbidden, "error.user_disabled", nil)
		default:
			respondError(c, response.CodeInternal, "error.login_failed", err)
		}
		return
	}

	response.Success(c, TelegramLoginPayload{
		Token:     token,
		ExpiresAt: expiresAt.Unix(),
		User:      user,
	})
}

// GetMyProfile 获取当前用户资料
func (h *Handler) GetMyProfile(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	user, err := h.UserAuthService.GetUser(uid)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, response.CodeNotFound, "error.user_not_found", nil)
		default:
			respondError(c, response.CodeInternal, "error.user_fetch_failed", err)
		}
		return
	}
	response.Success(c, user)
}
