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

// VoucherApplyRequest 核销请求
type VoucherApplyRequest struct {
	OrderID     string `json:"order_id" binding:"required"`
	OrderAmount string `json:"order_amount" binding:"required"`
}

// VoucherApplyPayload 核销结果响应
type VoucherApplyPayload struct {
	Voucher        *models.Voucher `json:"voucher"`
	DiscountAmount models.Money    `json:"discount_amount"`
	PayableAmount  models.Money    `json:"payable_amount"`
	Replayed       bool            `json:"replayed"`
}

// ListMyVouchers 获取当前用户兑换券列表
func (h *Handler) ListMyVouchers(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	vouchers, total, err := h.VoucherService.ListByUser(uid, repository.VoucherListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   c.Query("status"),
	})
	if err != nil {
		rules := accountCommonErrorRules
		respondWithMappedError(c, err, rules, response.CodeInternal, "error.vouchers_fetch_failed")
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, vouchers, pagination)
}

// GetMyVoucher 获取当前用户兑换券详情
func (h *Handler) GetMyVoucher(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	voucher, err := h.VoucherService.GetByUser(uid, uint(id))
	if err != nil {
		rules := concatMappedHandlerErrors(accountCommonErrorRules, voucherErrorRules)
		respondWithMappedError(c, err, rules, response.CodeInternal, "error.voucher_fetch_failed")
		return
	}
	response.Success(c, voucher)
}

// ApplyMyVoucher 核销兑换券
func (h *Handler) ApplyMyVoucher(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	var req VoucherApplyRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", bindErr)
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.OrderAmount))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.amount_invalid", err)
		return
	}

	result, err := h.VoucherService.Apply(service.VoucherApplyInput{
		UserID:      uid,
		VoucherID:   uint(id),
		OrderID:     strings.TrimSpace(req.OrderID),
		OrderAmount: models.NewMoneyFromDecimal(amount),
	})
	if err != nil {
		rules := concatMappedHandlerErrors(accountCommonErrorRules, voucherErrorRules)
		respondWithMappedError(c, err, rules, response.CodeInternal, "error.voucher_apply_failed")
		return
	}
	response.Success(c, VoucherApplyPayload{
		Voucher:        result.Voucher,
		DiscountAmount: result.DiscountAmount,
		PayableAmount:  result.PayableAmount,
		Replayed:       result.Replayed,
	})
}
