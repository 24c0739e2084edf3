package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/loyaltyclub-next/internal/config"
	"github.com/loyaltyclub-next/internal/constants"
	"github.com/loyaltyclub-next/internal/models"
	"github.com/loyaltyclub-next/internal/repository"

	"github.com/golang-jwt/jwt/v5"
)

// UserAuthService 会员端认证服务
// 基于 Telegram 小程序 initData 校验身份并签发会员 JWT
type UserAuthService struct {
	cfg      *config.Config
	userRepo repository.UserRepository
	clock    Clock
}

// UserJWTClaims 会员 JWT 声明
type UserJWTClaims struct {
	UserID     uint  `json:"user_id"`
	TelegramID int64 `json:"telegram_id"`
	jwt.RegisteredClaims
}

type telegramInitUser struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	LanguageCode string `json:"language_code"`
}

// NewUserAuthService 创建会员认证服务
func NewUserAuthService(cfg *config.Config, userRepo repository.UserRepository, clock Clock) *UserAuthService {
	if clock == nil {
		clock = RealClock()
	}
	return &UserAuthService{cfg: cfg, userRepo: userRepo, clock: clock}
}

// LoginWithInitData 校验 initData 并登录（用户不存在时自动注册）
func (s *UserAuthService) LoginWithInitData(initData string) (*models.User, string, time.Time, error) {
	tgUser, err := s.verifyInitData(initData)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	user, err := s.upsertUser(tgUser)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if user.Status != constants.UserStatusActive {
		return nil, "", time.Time{}, ErrUserDisabled
	}

	token, expiresAt, err := s.GenerateJWT(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, expiresAt, nil
}

// GenerateJWT 生成会员 JWT Token
func (s *UserAuthService) GenerateJWT(user *models.User) (string, time.Time, error) {
	now := s.clock.Now()
	expiresAt := now.Add(time.Duration(s.cfg.UserJWT.ExpireHours) * time.Hour)
	claims := UserJWTClaims{
		UserID:     user.ID,
		TelegramID: user.TelegramID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.UserJWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseJWT 解析会员 JWT Token
func (s *UserAuthService) ParseJWT(tokenString string) (*UserJWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &UserJWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.UserJWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*UserJWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrTokenInvalid
}

// GetUser 按ID获取用户
func (s *UserAuthService) GetUser(userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// verifyInitData 按 Telegram WebApp 规范校验 initData 签名与时效
func (s *UserAuthService) verifyInitData(initData string) (*telegramInitUser, error) {
	initData = strings.TrimSpace(initData)
	if initData == "" {
		return nil, ErrInitDataInvalid
	}
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, ErrInitDataInvalid
	}
	gotHash := values.Get("hash")
	if gotHash == "" {
		return nil, ErrInitDataInvalid
	}

	if s.cfg.TelegramAuth.Enabled {
		botToken := strings.TrimSpace(s.cfg.TelegramAuth.BotToken)
		if botToken == "" {
			return nil, ErrInitDataInvalid
		}
		keys := make([]string, 0, len(values))
		for key := range values {
			if key == "hash" {
				continue
			}
			keys = append(keys, key)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, key := range keys {
			pairs = append(pairs, fmt.Sprintf("%s=%s", key, values.Get(key)))
		}
		dataCheckString := strings.Join(pairs, "\n")

		secretMac := hmac.New(sha256.New, []byte("WebAppData"))
		secretMac.Write([]byte(botToken))
		secretKey := secretMac.Sum(nil)

		mac := hmac.New(sha256.New, secretKey)
		mac.Write([]byte(dataCheckString))
		expected := hex.EncodeToString(mac.Sum(nil))
		if !hmac.Equal([]byte(expected), []byte(strings.ToLower(gotHash))) {
			return nil, ErrInitDataInvalid
		}

		ttl := time.Duration(s.cfg.TelegramAuth.InitDataTTLSeconds) * time.Second
		if ttl > 0 {
			authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
			if err != nil {
				return nil, ErrInitDataInvalid
			}
			if s.clock.Now().Sub(time.Unix(authDate, 0)) > ttl {
				return nil, ErrInitDataExpired
			}
		}
	}

	var tgUser telegramInitUser
	if err := json.Unmarshal([]byte(values.Get("user")), &tgUser); err != nil {
		return nil, ErrInitDataInvalid
	}
	if tgUser.ID == 0 {
		return nil, ErrInitDataInvalid
	}
	return &tgUser, nil
}

func (s *UserAuthService) upsertUser(tgUser *telegramInitUser) (*models.User, error) {
	displayName := strings.TrimSpace(strings.TrimSpace(tgUser.FirstName) + " " + strings.TrimSpace(tgUser.LastName))
	if displayName == "" {
		displayName = tgUser.Username
	}

	user, err := s.userRepo.GetByTelegramID(tgUser.ID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if user == nil {
		user = &models.User{
			TelegramID:  tgUser.ID,
			Username:    tgUser.Username,
			DisplayName: displayName,
			Locale:      tgUser.LanguageCode,
			Status:      constants.UserStatusActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.userRepo.Create(user); err != nil {
			created, queryErr := s.userRepo.GetByTelegramID(tgUser.ID)
			if queryErr == nil && created != nil {
				return created, nil
			}
			return nil, err
		}
		return user, nil
	}

	changed := false
	if tgUser.Username != "" && user.Username != tgUser.Username {
		user.Username = tgUser.Username
		changed = true
	}
	if displayName != "" && user.DisplayName != displayName {
		user.DisplayName = displayName
		changed = true
	}
	if tgUser.LanguageCode != "" && user.Locale != tgUser.LanguageCode {
		user.Locale = tgUser.LanguageCode
		changed = true
	}
	if changed {
		user.UpdatedAt = now
		if err := s.userRepo.Update(user); err != nil {
			return nil, err
		}
	}
	return user, nil
}
