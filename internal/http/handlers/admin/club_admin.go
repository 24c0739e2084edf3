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

// AdjustPointsRequest 人工调账请求
type AdjustPointsRequest struct {
	Delta          int64  `json:"delta" binding:"required"`
	IdempotencyKey string `json:"idempotency_key" binding:"required"`
	Remark         string `json:"remark"`
}

// LevelUpdateRequest 等级配置更新请求
// 等级门槛不可修改，仅允许调整名称与权益参数
type LevelUpdateRequest struct {
	Name                 string `json:"name"`
	DailyBonusMultiplier string `json:"daily_bonus_multiplier"`
	CashbackPercent      string `json:"cashback_percent"`
}

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return 0, false
	}
	return uint(id), true
}

// GetAdminAccounts 获取会员账户列表 (Admin)
func (h *Handler) GetAdminAccounts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.ClubAccountListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   c.Query("status"),
	}
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		uid, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		filter.UserID = uint(uid)
	}

	accounts, total, err := h.LedgerService.ListAccounts(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.account_fetch_failed", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, accounts, pagination)
}

// GetAdminAccount 获取会员账户详情 (Admin)
func (h *Handler) GetAdminAccount(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	account, err := h.LedgerService.GetAccountByID(id)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			respondError(c, response.CodeNotFound, "error.account_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.account_fetch_failed", err)
		return
	}
	response.Success(c, account)
}

// GetAdminAccountTransactions 获取会员账户积分流水 (Admin)
func (h *Handler) GetAdminAccountTransactions(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	transactions, total, err := h.LedgerService.ListTransactions(repository.PointsTxnListFilter{
		Page:      page,
		PageSize:  pageSize,
		AccountID: id,
		Type:      c.Query("type"),
		Reason:    c.Query("reason"),
		OrderID:   c.Query("order_id"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.transactions_fetch_failed", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, transactions, pagination)
}

// AdjustAccountPoints 人工调整账户积分 (Admin)
func (h *Handler) AdjustAccountPoints(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req AdjustPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	account, txn, err := h.LedgerService.AdminAdjust(service.AdminAdjustPointsInput{
		AccountID:      id,
		Delta:          req.Delta,
		IdempotencyKey: strings.TrimSpace(req.IdempotencyKey),
		Remark:         strings.TrimSpace(req.Remark),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountNotFound):
			respondError(c, response.CodeNotFound, "error.account_not_found", nil)
		case errors.Is(err, service.ErrAccountFrozen):
			respondError(c, response.CodeForbidden, "error.account_frozen", nil)
		case errors.Is(err, service.ErrInvalidAmount):
			respondError(c, response.CodeBadRequest, "error.amount_invalid", nil)
		case errors.Is(err, service.ErrInsufficientPoints):
			respondError(c, response.CodeBadRequest, "error.points_insufficient", nil)
		case errors.Is(err, service.ErrIdempotencyKeyRequired):
			respondError(c, response.CodeBadRequest, "error.idempotency_key_required", nil)
		case errors.Is(err, service.ErrIdempotencyKeyConflict):
			respondError(c, response.CodeConflict, "error.idempotency_key_conflict", nil)
		default:
			respondError(c, response.CodeInternal, "error.adjust_failed", err)
		}
		return
	}
	requestLog(c).Infow("admin_points_adjusted",
		"admin_id", adminID,
		"account_id", id,
		"delta", req.Delta,
		"transaction_id", txn.ID,
	)
	response.Success(c, gin.H{
		"account":     account,
		"transaction": txn,
	})
}

// FreezeAccount 冻结会员账户 (Admin)
func (h *Handler) FreezeAccount(c *gin.Context) {
	h.setAccountStatus(c, true)
}

// UnfreezeAccount 解冻会员账户 (Admin)
func (h *Handler) UnfreezeAccount(c *gin.Context) {
	h.setAccountStatus(c, false)
}

func (h *Handler) setAccountStatus(c *gin.Context, freeze bool) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var account *models.ClubAccount
	var err error
	if freeze {
		account, err = h.AccountService.Freeze(id)
	} else {
		account, err = h.AccountService.Unfreeze(id)
	}
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			respondError(c, response.CodeNotFound, "error.account_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.account_update_failed", err)
		return
	}
	requestLog(c).Infow("admin_account_status_changed",
		"admin_id", adminID,
		"account_id", id,
		"status", account.Status,
	)
	response.Success(c, account)
}

// GetAdminLevels 获取等级配置列表 (Admin)
func (h *Handler) GetAdminLevels(c *gin.Context) {
	levels, err := h.LevelService.ListLevels()
	if err != nil {
		respondError(c, response.CodeInternal, "error.levels_fetch_failed", err)
		return
	}
	response.Success(c, levels)
}

// UpdateAdminLevel 更新等级配置 (Admin)
func (h *Handler) UpdateAdminLevel(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req LevelUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	input := service.LevelUpdateInput{
		Code: code,
		Name: strings.TrimSpace(req.Name),
	}
	if raw := strings.TrimSpace(req.DailyBonusMultiplier); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		m := models.NewMoneyFromDecimal(parsed)
		input.DailyBonusMultiplier = &m
	}
	if raw := strings.TrimSpace(req.CashbackPercent); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		m := models.NewMoneyFromDecimal(parsed)
		input.CashbackPercent = &m
	}

	level, err := h.LevelService.UpdateLevel(input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLevelNotFound):
			respondError(c, response.CodeNotFound, "error.level_not_found", nil)
		case errors.Is(err, service.ErrValidation):
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		default:
			respondError(c, response.CodeInternal, "error.level_update_failed", err)
		}
		return
	}
	response.Success(c, level)
}
