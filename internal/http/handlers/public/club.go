package public

import (
	"strconv"

	"github.com/loyaltyclub-next/internal/http/response"
	"github.com/loyaltyclub-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetMyClubSummary 获取当前用户会员概览
func (h *Handler) GetMyClubSummary(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	summary, err := h.AccountService.Summary(c.Request.Context(), uid)
	if err != nil {
		respondWithMappedError(c, err, accountCommonErrorRules, response.CodeInternal, "error.summary_fetch_failed")
		return
	}
	response.Success(c, summary)
}

// GetMyTransactions 获取当前用户积分流水
func (h *Handler) GetMyTransactions(c *gin.Context) {
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

	transactions, total, err := h.LedgerService.ListTransactions(repository.PointsTxnListFilter{
		Page:      page,
		PageSize:  pageSize,
		AccountID: account.ID,
		Type:      c.Query("type"),
		Reason:    c.Query("reason"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.transactions_fetch_failed", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, transactions, pagination)
}

// GetLevels 获取等级阶梯
func (h *Handler) GetLevels(c *gin.Context) {
	levels, err := h.LevelService.ListLevels()
	if err != nil {
		respondError(c, response.CodeInternal, "error.levels_fetch_failed", err)
		return
	}
	response.Success(c, levels)
}
