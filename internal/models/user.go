package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户表（小程序用户，经 Telegram initData 验证后创建）
type User struct {
	ID          uint           `gorm:"primarykey" json:"id"`                    // 主键
	TelegramID  int64          `gorm:"uniqueIndex;not null" json:"telegram_id"` // Telegram 用户ID
	Username    string         `gorm:"index" json:"username"`                   // Telegram 用户名
	DisplayName string         `gorm:"default:''" json:"display_name"`          // 昵称
	Locale      string         `gorm:"default:'zh-CN'" json:"locale"`           // 语言偏好
	Status      string         `gorm:"default:'active'" json:"status"`          // 账号状态
	LastLoginAt *time.Time     `json:"last_login_at"`                           // 最后登录时间
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                 // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                 // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                          // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
