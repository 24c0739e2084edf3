package service

import "errors"

// 业务错误定义，供 handler 层通过 errors.Is 映射为响应码
var (
	// 账户与积分账本
	ErrAccountNotFound         = errors.New("club account not found")
	ErrAccountFrozen           = errors.New("club account frozen")
	ErrAccountCreateFailed     = errors.New("club account create failed")
	ErrAccountUpdateFailed     = errors.New("club account update failed")
	ErrInvalidAmount           = errors.New("invalid points amount")
	ErrInsufficientPoints      = errors.New("insufficient points balance")
	ErrTransactionCreateFailed = errors.New("points transaction create failed")
	ErrIdempotencyKeyRequired  = errors.New("idempotency key required")
	ErrIdempotencyKeyConflict  = errors.New("idempotency key conflict")

	// 等级
	ErrLevelNotFound     = errors.New("club level not found")
	ErrLevelInvalidRange = errors.New("club level range invalid")

	// 签到
	ErrBonusCooldown     = errors.New("daily bonus still cooling down")
	ErrBonusStateInvalid = errors.New("daily bonus state invalid")

	// 奖励与兑换
	ErrRewardNotFound       = errors.New("reward not found")
	ErrRewardUnavailable    = errors.New("reward unavailable")
	ErrRewardInvalidInput   = errors.New("reward input invalid")
	ErrUsageLimitExceeded   = errors.New("reward usage limit exceeded")
	ErrRedemptionKeyInvalid = errors.New("redemption key invalid")

	// 券
	ErrVoucherNotFound     = errors.New("voucher not found")
	ErrVoucherNotOwned     = errors.New("voucher not owned by account")
	ErrVoucherExpired      = errors.New("voucher expired")
	ErrVoucherAlreadyUsed  = errors.New("voucher already used")
	ErrVoucherNotActive    = errors.New("voucher not active")
	ErrVoucherMinOrder     = errors.New("order amount below voucher threshold")
	ErrVoucherNotStackable = errors.New("voucher not stackable")

	// 推广
	ErrReferralSelfBind     = errors.New("cannot bind referral to self")
	ErrReferralAlreadyBound = errors.New("referee already bound")
	ErrReferralInvalidRate  = errors.New("commission rate invalid")
	ErrEarningNotFound      = errors.New("agent earning not found")

	// 订单事件
	ErrOrderEventInvalid   = errors.New("order event invalid")
	ErrOrderEventSignature = errors.New("order event signature mismatch")

	// 认证
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserDisabled       = errors.New("user disabled")
	ErrAdminNotFound      = errors.New("admin not found")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrInitDataInvalid    = errors.New("telegram init data invalid")
	ErrInitDataExpired    = errors.New("telegram init data expired")
	ErrPasswordTooWeak    = errors.New("password too weak")

	// 通用
	ErrValidation = errors.New("validation failed")
)
