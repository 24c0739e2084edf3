package public

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/loyaltyclub-next/internal/http/response"
	"github.com/loyaltyclub-next/internal/models"
	"github.com/loyaltyclub-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// orderCallbackRequest 订单系统回调报文
type orderCallbackRequest struct {
	EventType string `json:"event_type"`
	OrderID   string `json:"order_id"`
	UserID    uint   `json:"user_id"`
	Amount    string `json:"amount"`
}

// OrderCallback 接收订单系统事件回调
// 签名为请求体的 HMAC-SHA256 十六进制摘要，取 X-Signature 请求头
func (h *Handler) OrderCallback(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	if err := h.OrderEventService.VerifySignature(body, c.GetHeader("X-Signature")); err != nil {
		requestLog(c).Warnw("order_callback_signature_rejected",
			"client_ip", c.ClientIP(),
		)
		respondError(c, response.CodeUnauthorized, "error.signature_invalid", nil)
		return
	}

	var req orderCallbackRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	amount := decimal.Zero
	if raw := strings.TrimSpace(req.Amount); raw != "" {
		parsed, parseErr := decimal.NewFromString(raw)
		if parseErr != nil {
			respondError(c, response.CodeBadRequest, "error.amount_invalid", parseErr)
			return
		}
		amount = parsed
	}

	input := service.OrderEventInput{
		EventType: strings.TrimSpace(req.EventType),
		OrderID:   strings.TrimSpace(req.OrderID),
		UserID:    req.UserID,
		Amount:    models.NewMoneyFromDecimal(amount),
	}
	requestLog(c).Infow("order_callback_received",
		"event_type", input.EventType,
		"order_id", input.OrderID,
		"user_id", input.UserID,
	)

	if err := h.OrderEventService.Handle(input); err != nil {
		switch {
		case errors.Is(err, service.ErrOrderEventInvalid):
			respondError(c, response.CodeBadRequest, "error.order_event_invalid", nil)
		case errors.Is(err, service.ErrAccountFrozen):
			respondError(c, response.CodeForbidden, "error.account_frozen", nil)
		default:
			respondError(c, response.CodeInternal, "error.order_event_failed", err)
		}
		return
	}
	response.Success(c, gin.H{"received": true})
}
