package public

import (
	"errors"

	"github.com/loyaltyclub-next/internal/http/response"
	"github.com/loyaltyclub-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var accountCommonErrorRules = []mappedHandlerError{
	{target: service.ErrAccountNotFound, code: response.CodeNotFound, key: "error.account_not_found"},
	{target: service.ErrAccountFrozen, code: response.CodeForbidden, key: "error.account_frozen"},
}

var pointsChangeErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidAmount, code: response.CodeBadRequest, key: "error.amount_invalid"},
	{target: service.ErrInsufficientPoints, code: response.CodeBadRequest, key: "error.points_insufficient"},
	{target: service.ErrIdempotencyKeyRequired, code: response.CodeBadRequest, key: "error.idempotency_key_required"},
	{target: service.ErrIdempotencyKeyConflict, code: response.CodeConflict, key: "error.idempotency_key_conflict"},
}

var bonusClaimErrorRules = []mappedHandlerError{
	{target: service.ErrBonusCooldown, code: response.CodeConflict, key: "error.bonus_cooldown"},
	{target: service.ErrBonusStateInvalid, code: response.CodeInternal, key: "error.bonus_state_invalid"},
}

var redeemErrorRules = []mappedHandlerError{
	{target: service.ErrRewardNotFound, code: response.CodeNotFound, key: "error.reward_not_found"},
	{target: service.ErrRewardUnavailable, code: response.CodeBadRequest, key: "error.reward_unavailable"},
	{target: service.ErrUsageLimitExceeded, code: response.CodeBadRequest, key: "error.reward_usage_limit"},
	{target: service.ErrRedemptionKeyInvalid, code: response.CodeBadRequest, key: "error.redemption_key_invalid"},
}

var voucherErrorRules = []mappedHandlerError{
	{target: service.ErrVoucherNotFound, code: response.CodeNotFound, key: "error.voucher_not_found"},
	{target: service.ErrVoucherNotOwned, code: response.CodeForbidden, key: "error.voucher_not_owned"},
	{target: service.ErrVoucherExpired, code: response.CodeBadRequest, key: "error.voucher_expired"},
	{target: service.ErrVoucherAlreadyUsed, code: response.CodeConflict, key: "error.voucher_already_used"},
	{target: service.ErrVoucherNotActive, code: response.CodeBadRequest, key: "error.voucher_not_active"},
	{target: service.ErrVoucherMinOrder, code: response.CodeBadRequest, key: "error.voucher_min_order"},
	{target: service.ErrVoucherNotStackable, code: response.CodeConflict, key: "error.voucher_not_stackable"},
	{target: service.ErrValidation, code: response.CodeBadRequest, key: "error.bad_request"},
}

var referralErrorRules = []mappedHandlerError{
	{target: service.ErrReferralSelfBind, code: response.CodeBadRequest, key: "error.referral_self_bind"},
	{target: service.ErrReferralAlreadyBound, code: response.CodeConflict, key: "error.referral_already_bound"},
	{target: service.ErrReferralInvalidRate, code: response.CodeBadRequest, key: "error.referral_rate_invalid"},
}
