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

func setupLevelServiceTest(t *testing.T) (*LevelService, *gorm.DB) {
	t.Helper()
	db := openClubTestDB(t, "level_service")
	createTestLevels(t, db)
	clock := newTestClock(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	levelRepo := repository.NewClubLevelRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	return NewLevelService(levelRepo, ledgerRepo, clock), db
}

func TestLevelServiceResolveLevel(t *testing.T) {
	svc, _ := setupLevelServiceTest(t)

	cases := []struct {
		xp   int64
		code string
	}{
		{0, constants.LevelSilver},
		{499, constants.LevelSilver},
		{500, constants.LevelGold},
		{1499, constants.LevelGold},
		{1500, constants.LevelPlatinum},
		{999999, constants.LevelPlatinum},
	}
	for _, tc := range cases {
		level, err := svc.ResolveLevel(tc.xp)
		if err != nil {
			t.Fatalf("resolve level for xp=%d failed: %v", tc.xp, err)
		}
		if level.Code != tc.code {
			t.Fatalf("xp=%d: expected level %s, got %s", tc.xp, tc.code, level.Code)
		}
	}
}

func TestLevelServiceGainXPLevelUp(t *testing.T) {
	svc, db := setupLevelServiceTest(t)
	account := createTestClubAccount(t, db, 1, 0, 450)

	ledgerRepo := repository.NewLedgerRepository(db)
	var change *LevelChange
	if err := ledgerRepo.Transaction(func(tx *gorm.DB) error {
		var err error
		change, err = svc.GainXPInTx(tx, account.ID, 100)
		return err
	}); err != nil {
		t.Fatalf("gain xp failed: %v", err)
	}

	if !change.LeveledUp {
		t.Fatalf("expected level up from 450+100 xp")
	}
	if change.FromLevel.Code != constants.LevelSilver || change.ToLevel.Code != constants.LevelGold {
		t.Fatalf("expected silver->gold, got %s->%s", change.FromLevel.Code, change.ToLevel.Code)
	}
	if change.Account.XP != 550 {
		t.Fatalf("expected xp 550, got %d", change.Account.XP)
	}

	var fresh models.ClubAccount
	if err := db.First(&fresh, account.ID).Error; err != nil {
		t.Fatalf("reload account failed: %v", err)
	}
	if fresh.XP != 550 {
		t.Fatalf("expected persisted xp 550, got %d", fresh.XP)
	}
}

func TestLevelServiceGainXPWithinLevel(t *testing.T) {
	svc, db := setupLevelServiceTest(t)
	account := createTestClubAccount(t, db, 1, 0, 100)

	ledgerRepo := repository.NewLedgerRepository(db)
	var change *LevelChange
	if err := ledgerRepo.Transaction(func(tx *gorm.DB) error {
		var err error
		change, err = svc.GainXPInTx(tx, account.ID, 50)
		return err
	}); err != nil {
		t.Fatalf("gain xp failed: %v", err)
	}
	if change.LeveledUp {
		t.Fatalf("did not expect level up at 150 xp")
	}
	if change.FromLevel.Code != change.ToLevel.Code {
		t.Fatalf("expected unchanged level, got %s->%s", change.FromLevel.Code, change.ToLevel.Code)
	}
}

func TestLevelServiceGainXPValidation(t *testing.T) {
	svc, db := setupLevelServiceTest(t)
	account := createTestClubAccount(t, db, 1, 0, 0)

	ledgerRepo := repository.NewLedgerRepository(db)
	if err := ledgerRepo.Transaction(func(tx *gorm.DB) error {
		_, err := svc.GainXPInTx(tx, account.ID, -1)
		return err
	}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative gain, got %v", err)
	}

	if err := ledgerRepo.Transaction(func(tx *gorm.DB) error {
		_, err := svc.GainXPInTx(tx, 9999, 10)
		return err
	}); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	// 零增益不写库，但仍返回当前等级
	var change *LevelChange
	if err := ledgerRepo.Transaction(func(tx *gorm.DB) error {
		var err error
		change, err = svc.GainXPInTx(tx, account.ID, 0)
		return err
	}); err != nil {
		t.Fatalf("zero gain failed: %v", err)
	}
	if change.LeveledUp || change.ToLevel.Code != constants.LevelSilver {
		t.Fatalf("unexpected zero-gain change: %+v", change)
	}
}

func TestLevelServiceUpdateLevel(t *testing.T) {
	svc, _ := setupLevelServiceTest(t)

	multiplier := moneyFromString(t, "1.8")
	level, err := svc.UpdateLevel(LevelUpdateInput{
		Code:                 constants.LevelGold,
		Name:                 "黄金会员",
		DailyBonusMultiplier: &multiplier,
	})
	if err != nil {
		t.Fatalf("update level failed: %v", err)
	}
	if level.Name != "黄金会员" {
		t.Fatalf("expected renamed level, got %s", level.Name)
	}
	if !level.DailyBonusMultiplier.Decimal.Equal(multiplier.Decimal) {
		t.Fatalf("expected multiplier 1.8, got %s", level.DailyBonusMultiplier.Decimal)
	}

	negative := moneyFromString(t, "-1")
	if _, err := svc.UpdateLevel(LevelUpdateInput{
		Code:                 constants.LevelGold,
		DailyBonusMultiplier: &negative,
	}); !errors.Is(err, ErrLevelInvalidRange) {
		t.Fatalf("expected ErrLevelInvalidRange, got %v", err)
	}

	if _, err := svc.UpdateLevel(LevelUpdateInput{Code: "diamond"}); !errors.Is(err, ErrLevelNotFound) {
		t.Fatalf("expected ErrLevelNotFound, got %v", err)
	}
}
