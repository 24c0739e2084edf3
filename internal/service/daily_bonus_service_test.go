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

func setupDailyBonusServiceTest(t *testing.T, cooldown, grace time.Duration) (*DailyBonusService, *gorm.DB, *testClock) {
	t.Helper()
	db := openClubTestDB(t, "daily_bonus_service")
	createTestLevels(t, db)
	clock := newTestClock(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	ledgerRepo := repository.NewLedgerRepository(db)
	bonusRepo := repository.NewDailyBonusRepository(db)
	levelRepo := repository.NewClubLevelRepository(db)
	ledgerSvc := NewLedgerService(ledgerRepo, clock)
	levelSvc := NewLevelService(levelRepo, ledgerRepo, clock)
	svc := NewDailyBonusService(bonusRepo, ledgerRepo, ledgerSvc, levelSvc, nil, cooldown, grace, clock)
	return svc, db, clock
}

func TestDailyBonusClaimFirstDay(t *testing.T) {
	svc, db, _ := setupDailyBonusServiceTest(t, 24*time.Hour, 48*time.Hour)
	account := createTestClubAccount(t, db, 1, 0, 0)

	result, err := svc.Claim(account.UserID)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if result.StreakDay != 1 {
		t.Fatalf("expected streak day 1, got %d", result.StreakDay)
	}
	if result.Points != 10 || result.BasePoints != 10 {
		t.Fatalf("expected 10 points on day 1, got points=%d base=%d", result.Points, result.BasePoints)
	}
	if result.Account.PointsBalance != 10 {
		t.Fatalf("expected balance 10, got %d", result.Account.PointsBalance)
	}
	if result.Replayed {
		t.Fatalf("first claim should not be a replay")
	}

	var state models.DailyBonusState
	if err := db.Where("account_id = ?", account.ID).First(&state).Error; err != nil {
		t.Fatalf("load bonus state failed: %v", err)
	}
	if state.StreakDay != 1 || state.Status != constants.BonusStatusCooldown {
		t.Fatalf("unexpected state: %+v", state)
	}
	if state.NextClaimAt == nil || !state.NextClaimAt.Equal(result.NextClaimAt) {
		t.Fatalf("expected stored next claim at %v, got %+v", result.NextClaimAt, state.NextClaimAt)
	}
}

func TestDailyBonusStreakCycle(t *testing.T) {
	svc, db, clock := setupDailyBonusServiceTest(t, 24*time.Hour, 48*time.Hour)
	account := createTestClubAccount(t, db, 1, 0, 0)

	// 第 1..7 天依次发放周期奖励，第 8 天回到第 1 天
	expected := []int64{10, 15, 20, 25, 30, 40, 50, 10}
	var total int64
	for i, want := range expected {
		result, err := svc.Claim(account.UserID)
		if err != nil {
			t.Fatalf("claim %d failed: %v", i+1, err)
		}
		wantDay := i%7 + 1
		if result.StreakDay != wantDay {
			t.Fatalf("claim %d: expected streak day %d, got %d", i+1, wantDay, result.StreakDay)
		}
		if result.Points != want {
			t.Fatalf("claim %d: expected %d points, got %d", i+1, want, result.Points)
		}
		total += want
		clock.Advance(24*time.Hour + 30*time.Minute)
	}

	var fresh models.ClubAccount
	if err := db.First(&fresh, account.ID).Error; err != nil {
		t.Fatalf("reload account failed: %v", err)
	}
	if fresh.PointsBalance != total {
		t.Fatalf("expected balance %d, got %d", total, fresh.PointsBalance)
	}
}

func TestDailyBonusCooldown(t *testing.T) {
	svc, db, clock := setupDailyBonusServiceTest(t, 24*time.Hour, 48*time.Hour)
	account := createTestClubAccount(t, db, 1, 0, 0)

	if _, err := svc.Claim(account.UserID); err != nil {
		t.Fatalf("first claim failed: %v", err)
	}
	clock.Advance(23 * time.Hour)
	if _, err := svc.Claim(account.UserID); !errors.Is(err, ErrBonusCooldown) {
		t.Fatalf("expected ErrBonusCooldown, got %v", err)
	}

	clock.Advance(2 * time.Hour)
	result, err := svc.Claim(account.UserID)
	if err != nil {
		t.Fatalf("claim after cooldown failed: %v", err)
	}
	if result.StreakDay != 2 {
		t.Fatalf("expected streak day 2 after cooldown, got %d", result.StreakDay)
	}
}

func TestDailyBonusGraceReset(t *testing.T) {
	svc, db, clock := setupDailyBonusServiceTest(t, 24*time.Hour, 48*time.Hour)
	account := createTestClubAccount(t, db, 1, 0, 0)

	for i := 0; i < 3; i++ {
		if _, err := svc.Claim(account.UserID); err != nil {
			t.Fatalf("claim %d failed: %v", i+1, err)
		}
		clock.Advance(25 * time.Hour)
	}

	// 超过宽限窗后连签归零
	clock.Advance(30 * time.Hour)
	result, err := svc.Claim(account.UserID)
	if err != nil {
		t.Fatalf("claim after gap failed: %v", err)
	}
	if result.StreakDay != 1 {
		t.Fatalf("expected streak reset to day 1, got %d", result.StreakDay)
	}
	if result.Points != 10 {
		t.Fatalf("expected day-1 reward after reset, got %d", result.Points)
	}
}

func TestDailyBonusReplaySameDay(t *testing.T) {
	// 冷却放短以便同一自然日内触发幂等重放
	svc, db, clock := setupDailyBonusServiceTest(t, time.Hour, 4*time.Hour)
	account := createTestClubAccount(t, db, 1, 0, 0)

	first, err := svc.Claim(account.UserID)
	if err != nil {
		t.Fatalf("first claim failed: %v", err)
	}
	clock.Advance(2 * time.Hour)

	replay, err := svc.Claim(account.UserID)
	if err != nil {
		t.Fatalf("replay claim failed: %v", err)
	}
	if !replay.Replayed {
		t.Fatalf("expected same-day claim to replay")
	}
	if replay.Transaction.ID != first.Transaction.ID {
		t.Fatalf("expected original txn %d, got %d", first.Transaction.ID, replay.Transaction.ID)
	}

	var fresh models.ClubAccount
	if err := db.First(&fresh, account.ID).Error; err != nil {
		t.Fatalf("reload account failed: %v", err)
	}
	if fresh.PointsBalance != first.Points {
		t.Fatalf("expected balance unchanged at %d, got %d", first.Points, fresh.PointsBalance)
	}
}

func TestDailyBonusLevelMultiplier(t *testing.T) {
	svc, db, _ := setupDailyBonusServiceTest(t, 24*time.Hour, 48*time.Hour)
	// 黄金等级签到 1.5 倍
	account := createTestClubAccount(t, db, 1, 0, 600)

	result, err := svc.Claim(account.UserID)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if result.BasePoints != 10 {
		t.Fatalf("expected base 10, got %d", result.BasePoints)
	}
	if result.Points != 15 {
		t.Fatalf("expected 15 points with gold multiplier, got %d", result.Points)
	}
}

func TestDailyBonusFrozenAccount(t *testing.T) {
	svc, db, _ := setupDailyBonusServiceTest(t, 24*time.Hour, 48*time.Hour)
	account := createTestClubAccount(t, db, 1, 0, 0)
	if err := db.Model(&models.ClubAccount{}).Where("id = ?", account.ID).
		Update("status", constants.AccountStatusFrozen).Error; err != nil {
		t.Fatalf("freeze account failed: %v", err)
	}

	if _, err := svc.Claim(account.UserID); !errors.Is(err, ErrAccountFrozen) {
		t.Fatalf("expected ErrAccountFrozen, got %v", err)
	}
}

func TestDailyBonusStatus(t *testing.T) {
	svc, db, clock := setupDailyBonusServiceTest(t, 24*time.Hour, 48*time.Hour)
	account := createTestClubAccount(t, db, 1, 0, 0)

	status, err := svc.Status(account.UserID)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !status.Claimable || status.StreakDay != 0 || status.NextStreakDay != 1 {
		t.Fatalf("unexpected initial status: %+v", status)
	}
	if status.NextPoints != 10 {
		t.Fatalf("expected next points 10, got %d", status.NextPoints)
	}

	if _, err := svc.Claim(account.UserID); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	status, err = svc.Status(account.UserID)
	if err != nil {
		t.Fatalf("status after claim failed: %v", err)
	}
	if status.Claimable {
		t.Fatalf("expected not claimable during cooldown")
	}
	if status.NextClaimAt == nil || !status.NextClaimAt.Equal(clock.Now().Add(24*time.Hour)) {
		t.Fatalf("unexpected next claim time: %v", status.NextClaimAt)
	}
	if status.NextStreakDay != 2 || status.NextPoints != 15 {
		t.Fatalf("unexpected next reward preview: %+v", status)
	}

	clock.Advance(25 * time.Hour)
	status, err = svc.Status(account.UserID)
	if err != nil {
		t.Fatalf("status after cooldown failed: %v", err)
	}
	if !status.Claimable || status.NextStreakDay != 2 {
		t.Fatalf("unexpected status after cooldown: %+v", status)
	}
}
