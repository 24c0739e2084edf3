package repository

import "time"

// ClubAccountListFilter 查询会员账户列表的过滤条件
type ClubAccountListFilter struct {
	Page     int
	PageSize int
	UserID   uint
	Status   string
	MinXP    *int64
}

// PointsTxnListFilter 查询积分流水列表的过滤条件
type PointsTxnListFilter struct {
	Page        int
	PageSize    int
	AccountID   uint
	Type        string
	Reason      string
	OrderID     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// RewardListFilter 查询奖励列表的过滤条件
type RewardListFilter struct {
	Page       int
	PageSize   int
	Category   string
	Status     string
	Search     string
	OnlyActive bool
}

// VoucherListFilter 查询券列表的过滤条件
type VoucherListFilter struct {
	Page        int
	PageSize    int
	AccountID   uint
	RewardID    uint
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// EarningListFilter 查询推广收益列表的过滤条件
type EarningListFilter struct {
	Page           int
	PageSize       int
	AgentAccountID uint
	OrderID        string
	Status         string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
}

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page        int
	PageSize    int
	Keyword     string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
