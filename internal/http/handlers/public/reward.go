package public

import (
	"strconv"
	"strings"

	"github.com/loyaltyclub-next/internal/http/response"
	"github.com/loyaltyclub-next/internal/models"
	"github.com/loyaltyclub-next/internal/repository"
	"github.com/loyaltyclub-next/internal/service"

	"github.com/gin-gonic/gin"
)

// RewardRedeemRequest 兑换请求
// 幂等键优先取 Idempotency-Key 请求头，其次取 body 字段
type RewardRedeemRequest struct {
	RedemptionKey string `json:"redemption_key"`
}

// RewardRedeemPayload 兑换结果响应
type RewardRedeemPayload struct {
	Voucher       *models.Voucher `json:"voucher"`
	PointsBalance int64           `json:"points_balance"`
	CostPoints    int64           `json:"cost_points"`
	Replayed      bool            `json:"replayed"`
}

// ListRewards 获取可兑换奖励列表
func (h *Handler) ListRewards(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	rewards, total, err := h.RewardService.ListActive(repository.RewardListFilter{
		Page:     page,
		PageSize: pageSize,
		Category: c.Query("category"),
		Search:   c.Query("search"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.rewards_fetch_failed", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, rewards, pagination)
}

// GetReward 获取奖励详情
func (h *Handler) GetReward(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	reward, err := h.RewardService.GetActiveByID(uint(id))
	if err != nil {
		respondWithMappedError(c, err, redeemErrorRules, response.CodeInternal, "error.reward_fetch_failed")
		return
	}
	response.Success(c, reward)
}

// RedeemReward 用积分兑换奖励
func (h *Handler) RedeemReward(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	var req RewardRedeemRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil && c.Request.ContentLength > 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", bindErr)
		return
	}
	key := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	if key == "" {
		key = strings.TrimSpace(req.RedemptionKey)
	}

	result, err := h.RedemptionService.Redeem(service.RedeemInput{
		UserID:        uid,
		RewardID:      uint(id),
		RedemptionKey: key,
	})
	if err != nil {
		rules := concatMappedHandlerErrors(accountCommonErrorRules, pointsChangeErrorRules, redeemErrorRules)
		respondWithMappedError(c, err, rules, response.CodeInternal, "error.redeem_failed")
		return
	}
	response.Success(c, RewardRedeemPayload{
		Voucher:       result.Voucher,
		PointsBalance: result.Account.PointsBalance,
		CostPoints:    result.Voucher.CostPoints,
		Replayed:      result.Replayed,
	})
}
