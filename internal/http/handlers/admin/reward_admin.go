package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/loyaltyclub-next/internal/http/response"
	"github.com/loyaltyclub-next/internal/models"
	"github.com/loyaltyclub-next/internal/repository"
	"github.com/loyaltyclub-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// RewardUpsertRequest 奖励创建/更新请求
type RewardUpsertRequest struct {
	Name               string `json:"name" binding:"required"`
	Category           string `json:"category" binding:"required"`
	CostPoints         int64  `json:"cost_points" binding:"required"`
	Type               string `json:"type" binding:"required"`
	Value              string `json:"value" binding:"required"`
	MinOrderAmount     string `json:"min_order_amount"`
	ValidDays          int    `json:"valid_days"`
	Stackable          bool   `json:"stackable"`
	UsageLimit         int    `json:"usage_limit"`
	MaxDiscountPercent string `json:"max_discount_percent"`
}

func (r RewardUpsertRequest) toServiceInput() (service.RewardUpsertInput, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(r.Value))
	if err != nil {
		return service.RewardUpsertInput{}, err
	}
	minOrder := decimal.Zero
	if raw := strings.TrimSpace(r.MinOrderAmount); raw != "" {
		if minOrder, err = decimal.NewFromString(raw); err != nil {
			return service.RewardUpsertInput{}, err
		}
	}
	maxDiscount := decimal.Zero
	if raw := strings.TrimSpace(r.MaxDiscountPercent); raw != "" {
		if maxDiscount, err = decimal.NewFromString(raw); err != nil {
			return service.RewardUpsertInput{}, err
		}
	}
	return service.RewardUpsertInput{
		Name:               strings.TrimSpace(r.Name),
		Category:           strings.TrimSpace(r.Category),
		CostPoints:         r.CostPoints,
		Type:               strings.TrimSpace(r.Type),
		Value:              models.NewMoneyFromDecimal(value),
		MinOrderAmount:     models.NewMoneyFromDecimal(minOrder),
		ValidDays:          r.ValidDays,
		Stackable:          r.Stackable,
		UsageLimit:         r.UsageLimit,
		MaxDiscountPercent: models.NewMoneyFromDecimal(maxDiscount),
	}, nil
}

func respondRewardError(c *gin.Context, err error, fallbackKey string) {
	switch {
	case errors.Is(err, service.ErrRewardNotFound):
		respondError(c, response.CodeNotFound, "error.reward_not_found", nil)
	case errors.Is(err, service.ErrRewardInvalidInput):
		respondError(c, response.CodeBadRequest, "error.reward_input_invalid", nil)
	default:
		respondError(c, response.CodeInternal, fallbackKey, err)
	}
}

// GetAdminRewards 获取奖励列表 (Admin)
func (h *Handler) GetAdminRewards(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	rewards, total, err := h.RewardAdminService.List(repository.RewardListFilter{
		Page:     page,
		PageSize: pageSize,
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Search:   c.Query("search"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.rewards_fetch_failed", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, rewards, pagination)
}

// GetAdminReward 获取奖励详情 (Admin)
func (h *Handler) GetAdminReward(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	reward, err := h.RewardAdminService.GetByID(id)
	if err != nil {
		respondRewardError(c, err, "error.reward_fetch_failed")
		return
	}
	response.Success(c, reward)
}

// CreateAdminReward 创建奖励 (Admin)
func (h *Handler) CreateAdminReward(c *gin.Context) {
	var req RewardUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	input, err := req.toServiceInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	reward, err := h.RewardAdminService.Create(input)
	if err != nil {
		respondRewardError(c, err, "error.reward_create_failed")
		return
	}
	response.Success(c, reward)
}

// UpdateAdminReward 更新奖励 (Admin)
// 已发放的兑换券持有快照条款，不受奖励更新影响
func (h *Handler) UpdateAdminReward(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req RewardUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	input, err := req.toServiceInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	reward, err := h.RewardAdminService.Update(id, input)
	if err != nil {
		respondRewardError(c, err, "error.reward_update_failed")
		return
	}
	response.Success(c, reward)
}

// WithdrawAdminReward 下架奖励 (Admin)
func (h *Handler) WithdrawAdminReward(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	reward, err := h.RewardAdminService.Withdraw(id)
	if err != nil {
		respondRewardError(c, err, "error.reward_update_failed")
		return
	}
	response.Success(c, reward)
}

// ActivateAdminReward 上架奖励 (Admin)
func (h *Handler) ActivateAdminReward(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	reward, err := h.RewardAdminService.Activate(id)
	if err != nil {
		respondRewardError(c, err, "error.reward_update_failed")
		return
	}
	response.Success(c, reward)
}

// DeleteAdminReward 删除奖励 (Admin)
func (h *Handler) DeleteAdminReward(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.RewardAdminService.Delete(id); err != nil {
		respondRewardError(c, err, "error.reward_delete_failed")
		return
	}
	response.SuccessWithMsg(c, "reward_deleted", nil)
}

// GetAdminVouchers 获取兑换券列表 (Admin)
func (h *Handler) GetAdminVouchers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.VoucherListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   c.Query("status"),
	}
	if raw := strings.TrimSpace(c.Query("account_id")); raw != "" {
		accountID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		filter.AccountID = uint(accountID)
	}

	vouchers, total, err := h.VoucherRepo.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.vouchers_fetch_failed", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, vouchers, pagination)
}
