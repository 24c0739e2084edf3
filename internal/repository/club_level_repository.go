package repository

import (
	"errors"
	"strings"

	"github.com/loyaltyclub-next/internal/models"

	"gorm.io/gorm"
)

// ClubLevelRepository 等级档位数据访问接口
type ClubLevelRepository interface {
	List() ([]models.ClubLevel, error)
	GetByCode(code string) (*models.ClubLevel, error)
	GetByID(id uint) (*models.ClubLevel, error)
	Count() (int64, error)
	Create(level *models.ClubLevel) error
	Update(level *models.ClubLevel) error
}

// GormClubLevelRepository GORM 实现
type GormClubLevelRepository struct {
	db *gorm.DB
}

// NewClubLevelRepository 创建等级档位仓储
func NewClubLevelRepository(db *gorm.DB) *GormClubLevelRepository {
	return &GormClubLevelRepository{db: db}
}

// List 按门槛升序获取全部等级档位
func (r *GormClubLevelRepository) List() ([]models.ClubLevel, error) {
	levels := make([]models.ClubLevel, 0)
	if err := r.db.Order("min_xp ASC").Find(&levels).Error; err != nil {
		return nil, err
	}
	return levels, nil
}

// GetByCode 按编码获取等级档位
func (r *GormClubLevelRepository) GetByCode(code string) (*models.ClubLevel, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var level models.ClubLevel
	if err := r.db.Where("code = ?", code).First(&level).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &level, nil
}

// GetByID 按ID获取等级档位
func (r *GormClubLevelRepository) GetByID(id uint) (*models.ClubLevel, error) {
	if id == 0 {
		return nil, nil
	}
	var level models.ClubLevel
	if err := r.db.First(&level, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &level, nil
}

// Count 统计等级档位数量
func (r *GormClubLevelRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&models.ClubLevel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create 创建等级档位
func (r *GormClubLevelRepository) Create(level *models.ClubLevel) error {
	return r.db.Create(level).Error
}

// Update 更新等级档位
func (r *GormClubLevelRepository) Update(level *models.ClubLevel) error {
	return r.db.Save(level).Error
}
