package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/loyaltyclub-next/internal/config"
	"github.com/loyaltyclub-next/internal/logger"
	"github.com/loyaltyclub-next/internal/models"
	"github.com/loyaltyclub-next/internal/repository"
)

// NotificationService 会员通知服务
// 通过 Telegram Bot API 向会员推送等级、签到与券相关消息
type NotificationService struct {
	cfg        config.NotifyConfig
	ledgerRepo repository.LedgerRepository
	userRepo   repository.UserRepository
	httpClient *http.Client
}

// NewNotificationService 创建通知服务
func NewNotificationService(cfg config.NotifyConfig, ledgerRepo repository.LedgerRepository, userRepo repository.UserRepository) *NotificationService {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &NotificationService{
		cfg:        cfg,
		ledgerRepo: ledgerRepo,
		userRepo:   userRepo,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NotifyLevelUp 推送等级提升消息
func (s *NotificationService) NotifyLevelUp(ctx context.Context, accountID uint, fromLevel, toLevel string, xp int64) error {
	text := fmt.Sprintf("🎉 恭喜！你的会员等级从 %s 升级到 %s（当前 XP：%d）", fromLevel, toLevel, xp)
	return s.sendToAccount(ctx, accountID, text)
}

// NotifyBonusClaimed 推送签到成功消息
func (s *NotificationService) NotifyBonusClaimed(ctx context.Context, accountID uint, streakDay int, points int64) error {
	text := fmt.Sprintf("✅ 签到成功：连续第 %d 天，获得 %d 积分", streakDay, points)
	return s.sendToAccount(ctx, accountID, text)
}

// NotifyVoucherIssued 推送兑换成功消息
func (s *NotificationService) NotifyVoucherIssued(ctx context.Context, accountID uint, voucherNo string) error {
	text := fmt.Sprintf("🎟️ 兑换成功：优惠券 %s 已发放到你的账户", voucherNo)
	return s.sendToAccount(ctx, accountID, text)
}

func (s *NotificationService) sendToAccount(ctx context.Context, accountID uint, text string) error {
	if !s.cfg.Enabled || strings.TrimSpace(s.cfg.BotToken) == "" {
		return nil
	}
	account, err := s.ledgerRepo.GetAccountByID(accountID)
	if err != nil {
		return err
	}
	if account == nil {
		return ErrAccountNotFound
	}
	user, err := s.userRepo.GetByID(account.UserID)
	if err != nil {
		return err
	}
	if user == nil || user.TelegramID == 0 {
		return nil
	}
	return s.sendMessage(ctx, user, text)
}

func (s *NotificationService) sendMessage(ctx context.Context, user *models.User, text string) error {
	apiBase := strings.TrimRight(strings.TrimSpace(s.cfg.APIBase), "/")
	if apiBase == "" {
		apiBase = "https://api.telegram.org"
	}
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", apiBase, s.cfg.BotToken)

	body, err := json.Marshal(map[string]interface{}{
		"chat_id": user.TelegramID,
		"text":    text,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		logger.Warnw("telegram_send_failed",
			"status", resp.StatusCode,
			"telegram_id", user.TelegramID,
			"response", string(payload),
		)
		return fmt.Errorf("telegram sendMessage 返回状态 %d", resp.StatusCode)
	}
	return nil
}
