package cache

import (
	"context"
	"fmt"
	"time"
)

const clubSummaryCacheTTL = 5 * time.Minute

// ClubSummarySnapshot 会员概览缓存快照
// 积分变动后必须删除缓存，读取侧容忍短暂过期
type ClubSummarySnapshot struct {
	AccountID      uint   `json:"account_id"`
	PointsBalance  int64  `json:"points_balance"`
	XP             int64  `json:"xp"`
	LevelCode      string `json:"level_code"`
	LevelName      string `json:"level_name"`
	NextLevelXP    *int64 `json:"next_level_xp"`
	StreakDay      int    `json:"streak_day"`
	BonusClaimable bool   `json:"bonus_claimable"`
	NextClaimAt    int64  `json:"next_claim_at"`
	UpdatedAt      int64  `json:"updated_at"`
}

func clubSummaryKey(accountID uint) string {
	return fmt.Sprintf("summary:account:%d", accountID)
}

// GetClubSummary 获取会员概览缓存
func GetClubSummary(ctx context.Context, accountID uint) (*ClubSummarySnapshot, bool, error) {
	if accountID == 0 {
		return nil, false, nil
	}
	var snap ClubSummarySnapshot
	hit, err := GetJSON(ctx, clubSummaryKey(accountID), &snap)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &snap, true, nil
}

// SetClubSummary 写入会员概览缓存
func SetClubSummary(ctx context.Context, snap *ClubSummarySnapshot) error {
	if snap == nil || snap.AccountID == 0 {
		return nil
	}
	return SetJSON(ctx, clubSummaryKey(snap.AccountID), snap, clubSummaryCacheTTL)
}

// DelClubSummary 删除会员概览缓存
func DelClubSummary(ctx context.Context, accountID uint) error {
	if accountID == 0 {
		return nil
	}
	return Del(ctx, clubSummaryKey(accountID))
}
