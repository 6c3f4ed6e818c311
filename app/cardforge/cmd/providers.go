package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/catalog"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/command"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/dao"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/event"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/handler"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/metrics"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/minigame"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/service"
	"github.com/lk2023060901/cardforge/pkg/app"
	"github.com/lk2023060901/cardforge/pkg/database/redis"
	"github.com/lk2023060901/cardforge/pkg/idgen"
	"github.com/lk2023060901/cardforge/pkg/logger"
	"github.com/lk2023060901/cardforge/pkg/mq/kafka"
	"github.com/lk2023060901/cardforge/pkg/notify/feishu"
	"github.com/lk2023060901/cardforge/pkg/prometheus"
	"github.com/lk2023060901/cardforge/pkg/security"
	"github.com/lk2023060901/cardforge/pkg/sentry"
	"github.com/lk2023060901/cardforge/pkg/web"
	"github.com/lk2023060901/cardforge/pkg/web/middleware"
)

const appName = "cardforge"

// auditIDSize 审计记录 ID 长度
const auditIDSize = 21

// forwardedEvents 转发到 Kafka 的事件
var forwardedEvents = []string{
	service.EventDropCompleted,
	service.EventUserBanned,
	service.EventUserUnbanned,
	service.EventCurrencyGranted,
	service.EventCardGranted,
	service.EventXPAdjusted,
	service.EventAudit,
}

// provideReporter 提供错误上报器，未配置 DSN 时为空实现
func provideReporter(cfg *Config) (sentry.Reporter, func(), error) {
	r, err := sentry.NewReporter(&cfg.Sentry)
	if err != nil {
		return nil, nil, err
	}
	return r, func() { r.Flush(cfg.Sentry.ShutdownTimeout) }, nil
}

// provideStore 按 storage.backend 打开存储
func provideStore(ctx context.Context, cfg *Config, l logger.Logger, m *metrics.CardMetrics) (dao.Store, func(), error) {
	store, err := dao.Open(ctx, cfg.Storage, &cfg.Postgres, l, m)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			l.Error("failed to close store", "backend", store.Backend(), "error", err)
		}
	}
	return store, cleanup, nil
}

// provideCurrencies 注册 default_currencies 中的货币
func provideCurrencies(cfg *Config) *catalog.CurrencyRegistry {
	r := catalog.NewCurrencyRegistry()
	r.RegisterDefaults(cfg.DefaultCurrencies...)
	return r
}

// provideCatalog 加载 catalog 指定的目录文件，未配置时目录为空
func provideCatalog(cfg *Config, currencies *catalog.CurrencyRegistry, l logger.Logger) (*catalog.Catalog, error) {
	cat := catalog.New()
	if cfg.Catalog == "" {
		l.Warn("no catalog configured, starting with an empty catalog")
		return cat, nil
	}
	if err := loadCatalogInto(cfg.Catalog, cat, currencies); err != nil {
		return nil, err
	}
	l.Info("catalog loaded", "path", cfg.Catalog, "cards", len(cat.Cards()), "packs", len(cat.Packs()))
	return cat, nil
}

// provideLocker 提供用户锁：redis 后端跨进程互斥，local 为进程内分段锁
func provideLocker(ctx context.Context, cfg *Config, l logger.Logger) (service.KeyLocker, func(), error) {
	if cfg.Lock.Backend != LockRedis {
		return service.NewStripedLocker(cfg.Lock.Stripes), func() {}, nil
	}
	client, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := client.Close(); err != nil {
			l.Error("failed to close redis client", "error", err)
		}
	}
	return service.NewRedisLocker(client, cfg.Lock.Redis, l), cleanup, nil
}

// provideRandom 配置了 rng_seed 时使用可复现的随机源
func provideRandom(cfg *Config) (service.RandomSource, error) {
	seed, err := cfg.Seed()
	if err != nil {
		return nil, err
	}
	return service.NewRandomSource(seed), nil
}

// provideHistoryIDs 掉落历史 ID
func provideHistoryIDs(cfg *Config) (idgen.Generator, error) {
	return idgen.NewSonyflake(cfg.MachineID)
}

// provideBus 创建事件总线并挂载 Kafka 与飞书转发
func provideBus(cfg *Config, l logger.Logger, m *metrics.CardMetrics, reporter sentry.Reporter) (*event.Bus, func(), error) {
	bus := event.NewBus(l, m)
	dispatcher, err := event.NewAsyncDispatcher(cfg.Events.Async, l)
	if err != nil {
		return nil, nil, err
	}

	var producer *kafka.Producer
	if cfg.Events.Kafka {
		producer, err = kafka.NewProducer(&cfg.Kafka, l)
		if err != nil {
			_ = dispatcher.Close()
			return nil, nil, err
		}
		sink := event.NewKafkaSink(producer, cfg.Kafka.Topic)
		for _, name := range forwardedEvents {
			bus.Subscribe(name, event.Isolate("kafka", dispatcher.Wrap("kafka", sink.Listener()), l, reporter))
		}
	}

	if cfg.Notify.Enabled() {
		adapter, err := feishu.NewAdapter(&cfg.Notify)
		if err != nil {
			_ = dispatcher.Close()
			if producer != nil {
				_ = producer.Close()
			}
			return nil, nil, err
		}
		sink := event.NewNotifySink(adapter, appName)
		bus.Subscribe(service.EventAudit, event.Isolate("notify", dispatcher.Wrap("notify", sink.Listener()), l, reporter))
	}

	cleanup := func() {
		// 先排空异步任务，再关闭生产者
		if err := dispatcher.Close(); err != nil {
			l.Warn("event dispatcher did not drain in time", "error", err)
		}
		if producer != nil {
			if err := producer.Close(); err != nil {
				l.Error("failed to close kafka producer", "error", err)
			}
		}
	}
	return bus, cleanup, nil
}

// provideDropService 掉落服务
func provideDropService(
	cfg *Config,
	cat *catalog.Catalog,
	currencies *catalog.CurrencyRegistry,
	store dao.Store,
	bus *event.Bus,
	locker service.KeyLocker,
	rng service.RandomSource,
	ids idgen.Generator,
	m *metrics.CardMetrics,
	l logger.Logger,
) *service.DropService {
	return service.NewDropService(service.DropDeps{
		Catalog:    cat,
		Currencies: currencies,
		Players:    store,
		History:    store,
		Events:     bus,
		Locker:     locker,
		Random:     rng,
		IDs:        ids,
		Metrics:    m,
	}, cfg.Drop, l)
}

// providePlayerService 玩家服务
func providePlayerService(store dao.Store, locker service.KeyLocker, cat *catalog.Catalog, l logger.Logger) *service.PlayerService {
	return service.NewPlayerService(store, locker, cat, l)
}

// provideAdminService 管理服务
func provideAdminService(
	cfg *Config,
	cat *catalog.Catalog,
	currencies *catalog.CurrencyRegistry,
	store dao.Store,
	bus *event.Bus,
	locker service.KeyLocker,
	m *metrics.CardMetrics,
	l logger.Logger,
) *service.AdminService {
	return service.NewAdminService(service.AdminDeps{
		Players:    store,
		Audit:      store,
		Catalog:    cat,
		Currencies: currencies,
		Events:     bus,
		Locker:     locker,
		AuditIDs:   idgen.NewNanoID(auditIDSize),
		Metrics:    m,
	}, cfg.Admin, l)
}

// provideJWT 未配置密钥时返回 nil，管理接口不挂载
func provideJWT(cfg *Config) (*security.JWTManager, error) {
	if cfg.JWT.SecretKey == "" {
		return nil, nil
	}
	return security.NewJWTManager(&cfg.JWT)
}

// provideMiniGames 小游戏注册表，按配置加入内置小游戏
func provideMiniGames(cfg *Config, l logger.Logger) (*minigame.Registry, error) {
	games := minigame.NewRegistry()
	if err := minigame.RegisterBuiltins(games, cfg.MiniGames); err != nil {
		return nil, err
	}
	if ids := games.IDs(); len(ids) > 0 {
		l.Info("mini-games registered", "games", ids)
	}
	return games, nil
}

// provideRouter 命令路由，未知命令回落到小游戏
func provideRouter(
	drops *service.DropService,
	players *service.PlayerService,
	admin *service.AdminService,
	cat *catalog.Catalog,
	games *minigame.Registry,
	rng service.RandomSource,
	l logger.Logger,
) *command.Router {
	return command.NewRouter(drops, players, admin, cat, l).WithMiniGames(games, rng)
}

// provideRateLimiter 掉落接口按用户限流
func provideRateLimiter(cfg *Config, l logger.Logger) *middleware.RateLimiter {
	rl := cfg.RateLimit
	rl.KeyFunc = func(c *gin.Context) string {
		return "user:" + c.Param("user_id")
	}
	return middleware.NewRateLimiter(l, &rl)
}

// provideWebServer 组装 HTTP 服务
func provideWebServer(
	cfg *Config,
	l logger.Logger,
	reporter sentry.Reporter,
	m *metrics.CardMetrics,
	prom *prometheus.Client,
	store dao.Store,
	cat *catalog.Catalog,
	currencies *catalog.CurrencyRegistry,
	games *minigame.Registry,
	drops *service.DropService,
	players *service.PlayerService,
	admin *service.AdminService,
	router *command.Router,
	jwt *security.JWTManager,
	limiter *middleware.RateLimiter,
) *web.Server {
	srv := web.NewServer(&cfg.HTTP, l, reporter)
	r := srv.Router()
	r.Use(middleware.Metrics(m))

	r.GET("/health", func(c *gin.Context) {
		web.Success(c, gin.H{"status": "ok", "storage": store.Backend()})
	})
	r.GET(prom.Config().Path, gin.WrapH(prom.Handler()))

	handler.NewPlayerHandler(drops, players, l).Register(r, middleware.RateLimit(limiter))
	handler.NewCatalogHandler(cat, currencies, games, store.Backend()).Register(r)
	handler.NewCommandHandler(router, l).Register(r)
	if jwt != nil {
		handler.NewAdminHandler(admin, l).Register(r, middleware.Auth(jwt, admin.Config().IsAdmin))
	} else {
		l.Warn("jwt secret_key is empty, admin api disabled")
	}
	return srv
}

// provideRetentionJob 历史数据清理任务
func provideRetentionJob(cfg *Config, store dao.Store, l logger.Logger) (*dao.RetentionJob, error) {
	return dao.NewRetentionJob(store, cfg.Retention, l)
}

// provideAppOptions 提供应用选项
func provideAppOptions(cfg *Config, l logger.Logger) []app.Option {
	return []app.Option{
		app.WithID(fmt.Sprintf("%s-%d", appName, cfg.MachineID)),
		app.WithName(appName),
		app.WithLogger(l),
		app.WithStopTimeout(cfg.HTTP.ShutdownTimeout),
	}
}

// provideAppComponents 提供应用组件
func provideAppComponents(
	srv *web.Server,
	job *dao.RetentionJob,
	limiter *middleware.RateLimiter,
) app.AppComponents {
	return app.AppComponents{
		Servers: []app.Server{srv, job},
		Closers: []app.Closer{limiter},
	}
}
