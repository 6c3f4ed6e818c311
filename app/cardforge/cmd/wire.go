//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/metrics"
	"github.com/lk2023060901/cardforge/pkg/app"
	"github.com/lk2023060901/cardforge/pkg/logger"
	"github.com/lk2023060901/cardforge/pkg/prometheus"
)

func InitApp(
	ctx context.Context,
	cfg *Config,
	l logger.Logger,
	m *metrics.CardMetrics,
	prom *prometheus.Client,
) (app.Application, func(), error) {
	panic(wire.Build(
		// 1. 基础框架 (BaseApp)
		app.ProviderSet,

		// 2. 错误上报
		provideReporter,

		// 3. 存储与用户锁
		provideStore,
		provideLocker,

		// 4. 目录与货币
		provideCurrencies,
		provideCatalog,

		// 5. 事件总线（Kafka、飞书转发）
		provideBus,

		// 6. 服务层
		provideRandom,
		provideHistoryIDs,
		provideDropService,
		providePlayerService,
		provideAdminService,
		provideMiniGames,
		provideRouter,

		// 7. 接口层
		provideJWT,
		provideRateLimiter,
		provideWebServer,

		// 8. 后台任务
		provideRetentionJob,

		// 9. 组装与应用配置
		provideAppOptions,
		provideAppComponents,
		app.InitApp,
	))
}
