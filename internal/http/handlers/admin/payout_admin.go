package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/loyaltyclub-next/internal/http/response"
	"github.com/loyaltyclub-next/internal/repository"
	"github.com/loyaltyclub-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAdminEarnings 获取代理佣金列表 (Admin)
func (h *Handler) GetAdminEarnings(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.EarningListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   c.Query("status"),
		OrderID:  c.Query("order_id"),
	}
	if raw := strings.TrimSpace(c.Query("agent_account_id")); raw != "" {
		accountID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		filter.AgentAccountID = uint(accountID)
	}

	earnings, total, err := h.ReferralService.ListEarnings(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.earnings_fetch_failed", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, earnings, pagination)
}

// PayoutAdminEarning 结算代理佣金 (Admin)
// 重复结算请求按首次结算结果返回
func (h *Handler) PayoutAdminEarning(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	earning, err := h.ReferralService.PayoutEarning(id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEarningNotFound):
			respondError(c, response.CodeNotFound, "error.earning_not_found", nil)
		case errors.Is(err, service.ErrAccountNotFound):
			respondError(c, response.CodeNotFound, "error.account_not_found", nil)
		case errors.Is(err, service.ErrAccountFrozen):
			respondError(c, response.CodeForbidden, "error.account_frozen", nil)
		default:
			respondError(c, response.CodeInternal, "error.payout_failed", err)
		}
		return
	}
	requestLog(c).Infow("admin_earning_paid",
		"admin_id", adminID,
		"earning_id", earning.ID,
		"agent_account_id", earning.AgentAccountID,
		"amount", earning.Amount,
	)
	response.Success(c, earning)
}

// PayoutAdminAgentEarnings 批量结算代理全部待结算佣金 (Admin)
func (h *Handler) PayoutAdminAgentEarnings(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	agentAccountID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	paid, err := h.ReferralService.PayoutPending(agentAccountID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountNotFound):
			respondError(c, response.CodeNotFound, "error.account_not_found", nil)
		case errors.Is(err, service.ErrAccountFrozen):
			respondError(c, response.CodeForbidden, "error.account_frozen", nil)
		default:
			respondError(c, response.CodeInternal, "error.payout_failed", err)
		}
		return
	}
	requestLog(c).Infow("admin_agent_earnings_paid",
		"admin_id", adminID,
		"agent_account_id", agentAccountID,
		"count", len(paid),
	)
	response.Success(c, gin.H{"paid_count": len(paid), "earnings": paid})
}
