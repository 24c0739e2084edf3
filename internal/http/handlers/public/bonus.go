package public

import (
	"github.com/loyaltyclub-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// DailyBonusClaimPayload 签到结果响应
type DailyBonusClaimPayload struct {
	StreakDay     int   `json:"streak_day"`
	BasePoints    int64 `json:"base_points"`
	Points        int64 `json:"points"`
	PointsBalance int64 `json:"points_balance"`
	NextClaimAt   int64 `json:"next_claim_at"`
	Replayed      bool  `json:"replayed"`
}

// GetMyBonusStatus 获取当前用户签到状态
func (h *Handler) GetMyBonusStatus(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	status, err := h.DailyBonusService.Status(uid)
	if err != nil {
		respondWithMappedError(c, err, accountCommonErrorRules, response.CodeInternal, "error.bonus_status_failed")
		return
	}
	response.Success(c, status)
}

// ClaimDailyBonus 领取每日签到奖励
func (h *Handler) ClaimDailyBonus(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	result, err := h.DailyBonusService.Claim(uid)
	if err != nil {
		rules := concatMappedHandlerErrors(accountCommonErrorRules, bonusClaimErrorRules)
		respondWithMappedError(c, err, rules, response.CodeInternal, "error.bonus_claim_failed")
		return
	}
	response.Success(c, DailyBonusClaimPayload{
		StreakDay:     result.StreakDay,
		BasePoints:    result.BasePoints,
		Points:        result.Points,
		PointsBalance: result.Account.PointsBalance,
		NextClaimAt:   result.NextClaimAt.Unix(),
		Replayed:      result.Replayed,
	})
}
