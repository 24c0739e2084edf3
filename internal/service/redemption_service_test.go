package service

import (
	"errors"
	"testing"
	"time"

	"github.com/loyaltyclub-next/internal/constants"
	"github.com/loyaltyclub-next/internal/models"
	"github.com/loyaltyclub-next/internal/repository"

	"gorm.io/gorm"
)

func setupRedemptionServiceTest(t *testing.T) (*RedemptionService, *gorm.DB, *testClock) {
	t.Helper()
	db := openClubTestDB(t, "redemption_service")
	createTestLevels(t, db)
	clock := newTestClock(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	ledgerRepo := repository.NewLedgerRepository(db)
	rewardRepo := repository.NewRewardRepository(db)
	voucherRepo := repository.NewVoucherRepository(db)
	ledgerSvc := NewLedgerService(ledgerRepo, clock)
	svc := NewRedemptionService(rewardRepo, voucherRepo, ledgerRepo, ledgerSvc, nil, clock)
	return svc, db, clock
}

func createTestReward(t *testing.T, db *gorm.DB, mutate func(*models.Reward)) *models.Reward {
	t.Helper()
	reward := &models.Reward{
		Name:           "满50减5",
		Category:       "discount",
		CostPoints:     200,
		Type:           constants.RewardTypeFixed,
		Value:          moneyFromString(t, "5"),
		MinOrderAmount: moneyFromString(t, "50"),
		ValidDays:      30,
		Status:         constants.RewardStatusActive,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if mutate != nil {
		mutate(reward)
	}
	if err := db.Create(reward).Error; err != nil {
		t.Fatalf("create reward failed: %v", err)
	}
	return reward
}

func TestRedemptionRedeemIssuesVoucher(t *testing.T) {
	svc, db, clock := setupRedemptionServiceTest(t)
	account := createTestClubAccount(t, db, 1, 500, 0)
	reward := createTestReward(t, db, nil)

	result, err := svc.Redeem(RedeemInput{UserID: account.UserID, RewardID: reward.ID, RedemptionKey: "order-key-1"})
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if result.Replayed {
		t.Fatalf("first redeem should not replay")
	}
	if result.Account.PointsBalance != 300 {
		t.Fatalf("expected balance 300, got %d", result.Account.PointsBalance)
	}
	if result.Transaction.Amount != -200 || result.Transaction.Reason != constants.PointsReasonRedemption {
		t.Fatalf("unexpected txn: %+v", result.Transaction)
	}

	voucher := result.Voucher
	if voucher.VoucherNo == "" {
		t.Fatalf("expected voucher number")
	}
	if voucher.Status != constants.VoucherStatusActive {
		t.Fatalf("expected active voucher, got %s", voucher.Status)
	}
	// 条款快照自奖励复制
	if voucher.Type != reward.Type || !voucher.Value.Decimal.Equal(reward.Value.Decimal) {
		t.Fatalf("voucher terms not snapshotted: %+v", voucher)
	}
	if !voucher.MinOrderAmount.Decimal.Equal(reward.MinOrderAmount.Decimal) {
		t.Fatalf("min order not snapshotted: %s", voucher.MinOrderAmount.Decimal)
	}
	wantExpiry := clock.Now().Add(30 * 24 * time.Hour)
	if !voucher.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expected expiry %v, got %v", wantExpiry, voucher.ExpiresAt)
	}
}

func TestRedemptionRedeemReplay(t *testing.T) {
	svc, db, _ := setupRedemptionServiceTest(t)
	account := createTestClubAccount(t, db, 1, 500, 0)
	reward := createTestReward(t, db, nil)

	first, err := svc.Redeem(RedeemInput{UserID: account.UserID, RewardID: reward.ID, RedemptionKey: "dup-key"})
	if err != nil {
		t.Fatalf("first redeem failed: %v", err)
	}
	replay, err := svc.Redeem(RedeemInput{UserID: account.UserID, RewardID: reward.ID, RedemptionKey: "dup-key"})
	if err != nil {
		t.Fatalf("replay redeem failed: %v", err)
	}
	if !replay.Replayed {
		t.Fatalf("expected replay flag on duplicate key")
	}
	if replay.Voucher.ID != first.Voucher.ID {
		t.Fatalf("expected voucher %d, got %d", first.Voucher.ID, replay.Voucher.ID)
	}
	if replay.Account.PointsBalance != 300 {
		t.Fatalf("expected balance still 300, got %d", replay.Account.PointsBalance)
	}

	var count int64
	db.Model(&models.Voucher{}).Where("account_id = ?", account.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected single voucher, got %d", count)
	}
}

func TestRedemptionKeyConflict(t *testing.T) {
	svc, db, _ := setupRedemptionServiceTest(t)
	account := createTestClubAccount(t, db, 1, 1000, 0)
	rewardA := createTestReward(t, db, nil)
	rewardB := createTestReward(t, db, func(r *models.Reward) { r.Name = "全场9折" })

	if _, err := svc.Redeem(RedeemInput{UserID: account.UserID, RewardID: rewardA.ID, RedemptionKey: "conflict-key"}); err != nil {
		t.Fatalf("first redeem failed: %v", err)
	}
	_, err := svc.Redeem(RedeemInput{UserID: account.UserID, RewardID: rewardB.ID, RedemptionKey: "conflict-key"})
	if !errors.Is(err, ErrIdempotencyKeyConflict) {
		t.Fatalf("expected ErrIdempotencyKeyConflict, got %v", err)
	}
}

func TestRedemptionInsufficientPoints(t *testing.T) {
	svc, db, _ := setupRedemptionServiceTest(t)
	account := createTestClubAccount(t, db, 1, 100, 0)
	reward := createTestReward(t, db, nil)

	_, err := svc.Redeem(RedeemInput{UserID: account.UserID, RewardID: reward.ID, RedemptionKey: "poor-key"})
	if !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("expected ErrInsufficientPoints, got %v", err)
	}

	// 整个兑换回滚，不应留下券或流水
	var voucherCount, txnCount int64
	db.Model(&models.Voucher{}).Count(&voucherCount)
	db.Model(&models.PointsTransaction{}).Count(&txnCount)
	if voucherCount != 0 || txnCount != 0 {
		t.Fatalf("expected rollback, got vouchers=%d txns=%d", voucherCount, txnCount)
	}
}

func TestRedemptionRewardUnavailable(t *testing.T) {
	svc, db, _ := setupRedemptionServiceTest(t)
	account := createTestClubAccount(t, db, 1, 500, 0)
	reward := createTestReward(t, db, func(r *models.Reward) { r.Status = constants.RewardStatusWithdrawn })

	_, err := svc.Redeem(RedeemInput{UserID: account.UserID, RewardID: reward.ID, RedemptionKey: "withdrawn-key"})
	if !errors.Is(err, ErrRewardUnavailable) {
		t.Fatalf("expected ErrRewardUnavailable, got %v", err)
	}

	_, err = svc.Redeem(RedeemInput{UserID: account.UserID, RewardID: 9999, RedemptionKey: "missing-key"})
	if !errors.Is(err, ErrRewardNotFound) {
		t.Fatalf("expected ErrRewardNotFound, got %v", err)
	}
}

func TestRedemptionUsageLimit(t *testing.T) {
	svc, db, _ := setupRedemptionServiceTest(t)
	account := createTestClubAccount(t, db, 1, 1000, 0)
	reward := createTestReward(t, db, func(r *models.Reward) { r.UsageLimit = 1 })

	if _, err := svc.Redeem(RedeemInput{UserID: account.UserID, RewardID: reward.ID, RedemptionKey: "limit-1"}); err != nil {
		t.Fatalf("first redeem failed: %v", err)
	}
	_, err := svc.Redeem(RedeemInput{UserID: account.UserID, RewardID: reward.ID, RedemptionKey: "limit-2"})
	if !errors.Is(err, ErrUsageLimitExceeded) {
		t.Fatalf("expected ErrUsageLimitExceeded, got %v", err)
	}
}

func TestRedemptionValidation(t *testing.T) {
	svc, db, _ := setupRedemptionServiceTest(t)
	account := createTestClubAccount(t, db, 1, 500, 0)
	reward := createTestReward(t, db, nil)

	if _, err := svc.Redeem(RedeemInput{UserID: account.UserID, RewardID: reward.ID, RedemptionKey: "  "}); !errors.Is(err, ErrRedemptionKeyInvalid) {
		t.Fatalf("expected ErrRedemptionKeyInvalid, got %v", err)
	}

	if err := db.Model(&models.ClubAccount{}).Where("id = ?", account.ID).
		Update("status", constants.AccountStatusFrozen).Error; err != nil {
		t.Fatalf("freeze account failed: %v", err)
	}
	if _, err := svc.Redeem(RedeemInput{UserID: account.UserID, RewardID: reward.ID, RedemptionKey: "frozen-key"}); !errors.Is(err, ErrAccountFrozen) {
		t.Fatalf("expected ErrAccountFrozen, got %v", err)
	}
}
