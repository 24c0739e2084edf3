package provider

import (
	"time"

	"github.com/loyaltyclub-next/internal/authz"
	"github.com/loyaltyclub-next/internal/cache"
	"github.com/loyaltyclub-next/internal/config"
	"github.com/loyaltyclub-next/internal/logger"
	"github.com/loyaltyclub-next/internal/models"
	"github.com/loyaltyclub-next/internal/queue"
	"github.com/loyaltyclub-next/internal/repository"
	"github.com/loyaltyclub-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo      repository.AdminRepository
	UserRepo       repository.UserRepository
	LedgerRepo     repository.LedgerRepository
	LevelRepo      repository.ClubLevelRepository
	DailyBonusRepo repository.DailyBonusRepository
	RewardRepo     repository.RewardRepository
	VoucherRepo    repository.VoucherRepository
	ReferralRepo   repository.ReferralRepository

	// Services
	AuthzService        *authz.Service
	AuthService         *service.AuthService
	UserAuthService     *service.UserAuthService
	LedgerService       *service.LedgerService
	LevelService        *service.LevelService
	DailyBonusService   *service.DailyBonusService
	AccountService      *service.AccountService
	RewardService       *service.RewardService
	RewardAdminService  *service.RewardAdminService
	RedemptionService   *service.RedemptionService
	VoucherService      *service.VoucherService
	ReferralService     *service.ReferralService
	OrderEventService   *service.OrderEventService
	NotificationService *service.NotificationService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.LedgerRepo = repository.NewLedgerRepository(db)
	c.LevelRepo = repository.NewClubLevelRepository(db)
	c.DailyBonusRepo = repository.NewDailyBonusRepository(db)
	c.RewardRepo = repository.NewRewardRepository(db)
	c.VoucherRepo = repository.NewVoucherRepository(db)
	c.ReferralRepo = repository.NewReferralRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	clock := service.RealClock()

	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo, clock)

	c.LedgerService = service.NewLedgerService(c.LedgerRepo, clock)
	c.LevelService = service.NewLevelService(c.LevelRepo, c.LedgerRepo, clock)
	c.DailyBonusService = service.NewDailyBonusService(
		c.DailyBonusRepo,
		c.LedgerRepo,
		c.LedgerService,
		c.LevelService,
		c.QueueClient,
		time.Duration(c.Config.Club.BonusCooldownHours)*time.Hour,
		time.Duration(c.Config.Club.BonusGraceHours)*time.Hour,
		clock,
	)
	c.AccountService = service.NewAccountService(c.LedgerService, c.LevelService, c.DailyBonusService, clock)
	c.RewardService = service.NewRewardService(c.RewardRepo)
	c.RewardAdminService = service.NewRewardAdminService(c.RewardRepo, clock)
	c.RedemptionService = service.NewRedemptionService(
		c.RewardRepo,
		c.VoucherRepo,
		c.LedgerRepo,
		c.LedgerService,
		c.QueueClient,
		clock,
	)
	c.VoucherService = service.NewVoucherService(c.VoucherRepo, c.LedgerService, clock)
	c.ReferralService = service.NewReferralService(c.ReferralRepo, c.LedgerRepo, c.LedgerService, clock)
	c.OrderEventService = service.NewOrderEventService(
		c.LedgerRepo,
		c.LedgerService,
		c.LevelService,
		c.ReferralService,
		c.QueueClient,
		c.Config.OrderWebhook.Secret,
		clock,
	)
	c.NotificationService = service.NewNotificationService(c.Config.Notify, c.LedgerRepo, c.UserRepo)
}

// Close 释放容器持有的资源
func (c *Container) Close() {
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			logger.Warnw("provider_close_queue_client_failed", "error", err)
		}
	}
}
