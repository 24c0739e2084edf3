package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/loyaltyclub-next/internal/constants"
	"github.com/loyaltyclub-next/internal/models"
	"github.com/loyaltyclub-next/internal/repository"

	"gorm.io/gorm"
)

func setupVoucherServiceTest(t *testing.T) (*VoucherService, *gorm.DB, *testClock) {
	t.Helper()
	db := openClubTestDB(t, "voucher_service")
	clock := newTestClock(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	ledgerRepo := repository.NewLedgerRepository(db)
	voucherRepo := repository.NewVoucherRepository(db)
	ledgerSvc := NewLedgerService(ledgerRepo, clock)
	return NewVoucherService(voucherRepo, ledgerSvc, clock), db, clock
}

func createTestVoucher(t *testing.T, db *gorm.DB, accountID uint, mutate func(*models.Voucher)) *models.Voucher {
	t.Helper()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	voucher := &models.Voucher{
		VoucherNo:      fmt.Sprintf("VC%d%d", accountID, time.Now().UnixNano()),
		RewardID:       1,
		AccountID:      accountID,
		RedemptionKey:  fmt.Sprintf("key-%d-%d", accountID, time.Now().UnixNano()),
		Status:         constants.VoucherStatusActive,
		CostPoints:     200,
		Type:           constants.RewardTypeFixed,
		Value:          moneyFromString(t, "5"),
		MinOrderAmount: moneyFromString(t, "50"),
		IssuedAt:       now,
		ExpiresAt:      now.Add(30 * 24 * time.Hour),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if mutate != nil {
		mutate(voucher)
	}
	if err := db.Create(voucher).Error; err != nil {
		t.Fatalf("create voucher failed: %v", err)
	}
	return voucher
}

func TestVoucherApplyFixedDiscount(t *testing.T) {
	svc, db, _ := setupVoucherServiceTest(t)
	account := createTestClubAccount(t, db, 1, 0, 0)
	voucher := createTestVoucher(t, db, account.ID, nil)

	result, err := svc.Apply(VoucherApplyInput{
		UserID:      account.UserID,
		VoucherID:   voucher.ID,
		OrderID:     "ORD-100",
		OrderAmount: moneyFromString(t, "100"),
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if result.DiscountAmount.Decimal.String() != "5" {
		t.Fatalf("expected discount 5, got %s", result.DiscountAmount.Decimal)
	}
	if result.PayableAmount.Decimal.String() != "95" {
		t.Fatalf("expected payable 95, got %s", result.PayableAmount.Decimal)
	}
	if result.Voucher.Status != constants.VoucherStatusUsed || result.Voucher.AppliedOrderID != "ORD-100" {
		t.Fatalf("unexpected voucher after apply: %+v", result.Voucher)
	}
	if result.Voucher.UsedAt == nil {
		t.Fatalf("expected used_at to be set")
	}
}

func TestVoucherApplyPercentWithCap(t *testing.T) {
	svc, db, _ := setupVoucherServiceTest(t)
	account := createTestClubAccount(t, db, 1, 0, 0)
	// 五折券受 15% 最高折扣占比约束
	voucher := createTestVoucher(t, db, account.ID, func(v *models.Voucher) {
		v.Type = constants.RewardTypePercent
		v.Value = moneyFromString(t, "50")
		v.MinOrderAmount = moneyFromString(t, "0")
		v.MaxDiscountPercent = moneyFromString(t, "15")
	})

	result, err := svc.Apply(VoucherApplyInput{
		UserID:      account.UserID,
		VoucherID:   voucher.ID,
		OrderID:     "ORD-200",
		OrderAmount: moneyFromString(t, "100"),
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if result.DiscountAmount.Decimal.String() != "15" {
		t.Fatalf("expected capped discount 15, got %s", result.DiscountAmount.Decimal)
	}
	if result.PayableAmount.Decimal.String() != "85" {
		t.Fatalf("expected payable 85, got %s", result.PayableAmount.Decimal)
	}
}

func TestVoucherApplyDiscountClampedToOrder(t *testing.T) {
	svc, db, _ := setupVoucherServiceTest(t)
	account := createTestClubAccount(t, db, 1, 0, 0)
	voucher := createTestVoucher(t, db, account.ID, func(v *models.Voucher) {
		v.Value = moneyFromString(t, "80")
		v.MinOrderAmount = moneyFromString(t, "0")
	})

	result, err := svc.Apply(VoucherApplyInput{
		UserID:      account.UserID,
		VoucherID:   voucher.ID,
		OrderID:     "ORD-300",
		OrderAmount: moneyFromString(t, "50"),
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if result.DiscountAmount.Decimal.String() != "50" {
		t.Fatalf("expected discount clamped to 50, got %s", result.DiscountAmount.Decimal)
	}
	if !result.PayableAmount.Decimal.IsZero() {
		t.Fatalf("expected payable 0, got %s", result.PayableAmount.Decimal)
	}
}

func TestVoucherApplyMinOrder(t *testing.T) {
	svc, db, _ := setupVoucherServiceTest(t)
	account := createTestClubAccount(t, db, 1, 0, 0)
	voucher := createTestVoucher(t, db, account.ID, nil)

	_, err := svc.Apply(VoucherApplyInput{
		UserID:      account.UserID,
		VoucherID:   voucher.ID,
		OrderID:     "ORD-400",
		OrderAmount: moneyFromString(t, "30"),
	})
	if !errors.Is(err, ErrVoucherMinOrder) {
		t.Fatalf("expected ErrVoucherMinOrder, got %v", err)
	}
}

func TestVoucherApplyReplaySameOrder(t *testing.T) {
	svc, db, _ := setupVoucherServiceTest(t)
	account := createTestClubAccount(t, db, 1, 0, 0)
	voucher := createTestVoucher(t, db, account.ID, nil)

	input := VoucherApplyInput{
		UserID:      account.UserID,
		VoucherID:   voucher.ID,
		OrderID:     "ORD-500",
		OrderAmount: moneyFromString(t, "100"),
	}
	if _, err := svc.Apply(input); err != nil {
		t.Fatalf("first apply failed: %v", err)
	}

	replay, err := svc.Apply(input)
	if err != nil {
		t.Fatalf("replay apply failed: %v", err)
	}
	if !replay.Replayed {
		t.Fatalf("expected replay on same order")
	}
	if replay.DiscountAmount.Decimal.String() != "5" {
		t.Fatalf("expected replayed discount 5, got %s", replay.DiscountAmount.Decimal)
	}

	// 换订单不可再用
	input.OrderID = "ORD-501"
	if _, err := svc.Apply(input); !errors.Is(err, ErrVoucherAlreadyUsed) {
		t.Fatalf("expected ErrVoucherAlreadyUsed, got %v", err)
	}
}

func TestVoucherApplyStacking(t *testing.T) {
	svc, db, _ := setupVoucherServiceTest(t)
	account := createTestClubAccount(t, db, 1, 0, 0)
	first := createTestVoucher(t, db, account.ID, func(v *models.Voucher) {
		v.Stackable = true
		v.MinOrderAmount = moneyFromString(t, "0")
	})

	if _, err := svc.Apply(VoucherApplyInput{
		UserID:      account.UserID,
		VoucherID:   first.ID,
		OrderID:     "ORD-600",
		OrderAmount: moneyFromString(t, "100"),
	}); err != nil {
		t.Fatalf("first apply failed: %v", err)
	}

	// 第二张不可叠加，拒绝
	exclusive := createTestVoucher(t, db, account.ID, func(v *models.Voucher) {
		v.MinOrderAmount = moneyFromString(t, "0")
	})
	_, err := svc.Apply(VoucherApplyInput{
		UserID:      account.UserID,
		VoucherID:   exclusive.ID,
		OrderID:     "ORD-600",
		OrderAmount: moneyFromString(t, "100"),
	})
	if !errors.Is(err, ErrVoucherNotStackable) {
		t.Fatalf("expected ErrVoucherNotStackable, got %v", err)
	}

	// 双方均可叠加则放行
	stackable := createTestVoucher(t, db, account.ID, func(v *models.Voucher) {
		v.Stackable = true
		v.MinOrderAmount = moneyFromString(t, "0")
	})
	result, err := svc.Apply(VoucherApplyInput{
		UserID:      account.UserID,
		VoucherID:   stackable.ID,
		OrderID:     "ORD-600",
		OrderAmount: moneyFromString(t, "100"),
	})
	if err != nil {
		t.Fatalf("stackable apply failed: %v", err)
	}
	if result.Voucher.Status != constants.VoucherStatusUsed {
		t.Fatalf("expected voucher used, got %s", result.Voucher.Status)
	}
}

func TestVoucherApplyLazyExpiry(t *testing.T) {
	svc, db, clock := setupVoucherServiceTest(t)
	account := createTestClubAccount(t, db, 1, 0, 0)
	voucher := createTestVoucher(t, db, account.ID, nil)

	clock.Advance(31 * 24 * time.Hour)
	_, err := svc.Apply(VoucherApplyInput{
		UserID:      account.UserID,
		VoucherID:   voucher.ID,
		OrderID:     "ORD-600",
		OrderAmount: moneyFromString(t, "100"),
	})
	if !errors.Is(err, ErrVoucherExpired) {
		t.Fatalf("expected ErrVoucherExpired, got %v", err)
	}

	// 过期状态应已落库
	var fresh models.Voucher
	if err := db.First(&fresh, voucher.ID).Error; err != nil {
		t.Fatalf("reload voucher failed: %v", err)
	}
	if fresh.Status != constants.VoucherStatusExpired {
		t.Fatalf("expected stored status expired, got %s", fresh.Status)
	}
}

func TestVoucherApplyValidation(t *testing.T) {
	svc, db, _ := setupVoucherServiceTest(t)
	account := createTestClubAccount(t, db, 1, 0, 0)
	voucher := createTestVoucher(t, db, account.ID, nil)

	_, err := svc.Apply(VoucherApplyInput{UserID: account.UserID, VoucherID: voucher.ID, OrderID: " ", OrderAmount: moneyFromString(t, "100")})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty order, got %v", err)
	}

	_, err = svc.Apply(VoucherApplyInput{UserID: account.UserID, VoucherID: voucher.ID, OrderID: "ORD-700", OrderAmount: moneyFromString(t, "0")})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for zero amount, got %v", err)
	}

	// 他人持有的券不可核销
	other := createTestClubAccount(t, db, 2, 0, 0)
	_, err = svc.Apply(VoucherApplyInput{UserID: other.UserID, VoucherID: voucher.ID, OrderID: "ORD-701", OrderAmount: moneyFromString(t, "100")})
	if !errors.Is(err, ErrVoucherNotFound) {
		t.Fatalf("expected ErrVoucherNotFound for foreign voucher, got %v", err)
	}
}

func TestVoucherGetAndListByUser(t *testing.T) {
	svc, db, _ := setupVoucherServiceTest(t)
	account := createTestClubAccount(t, db, 1, 0, 0)
	voucher := createTestVoucher(t, db, account.ID, nil)
	createTestVoucher(t, db, account.ID, func(v *models.Voucher) { v.Status = constants.VoucherStatusUsed })

	got, err := svc.GetByUser(account.UserID, voucher.ID)
	if err != nil {
		t.Fatalf("get voucher failed: %v", err)
	}
	if got.ID != voucher.ID {
		t.Fatalf("expected voucher %d, got %d", voucher.ID, got.ID)
	}

	if _, err := svc.GetByUser(account.UserID, 9999); !errors.Is(err, ErrVoucherNotFound) {
		t.Fatalf("expected ErrVoucherNotFound, got %v", err)
	}

	active, total, err := svc.ListByUser(account.UserID, repository.VoucherListFilter{
		Status:   constants.VoucherStatusActive,
		Page:     1,
		PageSize: 10,
	})
	if err != nil {
		t.Fatalf("list vouchers failed: %v", err)
	}
	if total != 1 || len(active) != 1 {
		t.Fatalf("expected 1 active voucher, got total=%d len=%d", total, len(active))
	}
}

func TestVoucherExpireTask(t *testing.T) {
	svc, db, clock := setupVoucherServiceTest(t)
	account := createTestClubAccount(t, db, 1, 0, 0)
	voucher := createTestVoucher(t, db, account.ID, nil)

	// 提前触发不落库
	if err := svc.ExpireVoucher(voucher.ID); err != nil {
		t.Fatalf("early expire failed: %v", err)
	}
	var fresh models.Voucher
	if err := db.First(&fresh, voucher.ID).Error; err != nil {
		t.Fatalf("reload voucher failed: %v", err)
	}
	if fresh.Status != constants.VoucherStatusActive {
		t.Fatalf("expected voucher to stay active, got %s", fresh.Status)
	}

	clock.Advance(31 * 24 * time.Hour)
	if err := svc.ExpireVoucher(voucher.ID); err != nil {
		t.Fatalf("expire failed: %v", err)
	}
	if err := db.First(&fresh, voucher.ID).Error; err != nil {
		t.Fatalf("reload voucher failed: %v", err)
	}
	if fresh.Status != constants.VoucherStatusExpired {
		t.Fatalf("expected voucher expired, got %s", fresh.Status)
	}

	// 不存在的券静默跳过
	if err := svc.ExpireVoucher(9999); err != nil {
		t.Fatalf("expected nil for missing voucher, got %v", err)
	}
}
