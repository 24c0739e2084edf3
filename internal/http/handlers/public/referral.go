package public

import (
	"strconv"
	"strings"

	"github.com/loyaltyclub-next/internal/http/response"
	"github.com/loyaltyclub-next/internal/models"
	"github.com/loyaltyclub-next/internal/repository"
	"github.com/loyaltyclub-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ReferralBindRequest 推荐绑定请求
type ReferralBindRequest struct {
	AgentAccountID uint   `json:"agent_account_id" binding:"required"`
	CommissionRate string `json:"commission_rate"`
}

// GetMyReferralSummary 获取当前用户代理收益概览
func (h *Handler) GetMyReferralSummary(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	summary, err := h.ReferralService.SummaryByUser(uid)
	if err != nil {
		respondWithMappedError(c, err, accountCommonErrorRules, response.CodeInternal, "error.referral_summary_failed")
		return
	}
	response.Success(c, summary)
}

// ListMyEarnings 获取当前用户代理佣金明细
func (h *Handler) ListMyEarnings(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	account, err := h.LedgerService.GetAccountByUserID(uid)
	if err != nil {
		respondWithMappedError(c, err, accountCommonErrorRules, response.CodeInternal, "error.account_fetch_failed")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	earnings, total, err := h.ReferralService.ListEarnings(repository.EarningListFilter{
		Page:           page,
		PageSize:       pageSize,
		AgentAccountID: account.ID,
		Status:         c.Query("status"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.earnings_fetch_failed", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, earnings, pagination)
}

// BindReferral 绑定推荐关系
func (h *Handler) BindReferral(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req ReferralBindRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	rate := decimal.NewFromFloat(0.05)
	if raw := strings.TrimSpace(req.CommissionRate); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.referral_rate_invalid", err)
			return
		}
		rate = parsed
	}

	binding, err := h.ReferralService.Bind(service.ReferralBindInput{
		RefereeUserID:  uid,
		AgentAccountID: req.AgentAccountID,
		CommissionRate: models.NewMoneyFromDecimal(rate),
	})
	if err != nil {
		rules := concatMappedHandlerErrors(accountCommonErrorRules, referralErrorRules)
		respondWithMappedError(c, err, rules, response.CodeInternal, "error.referral_bind_failed")
		return
	}
	response.Success(c, binding)
}
