package main

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-viper/mapstructure/v2"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/dao"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/event"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/minigame"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/service"
	"github.com/lk2023060901/cardforge/pkg/app"
	"github.com/lk2023060901/cardforge/pkg/config"
	"github.com/lk2023060901/cardforge/pkg/database/postgres"
	"github.com/lk2023060901/cardforge/pkg/database/redis"
	"github.com/lk2023060901/cardforge/pkg/logger"
	"github.com/lk2023060901/cardforge/pkg/mq/kafka"
	"github.com/lk2023060901/cardforge/pkg/notify/feishu"
	"github.com/lk2023060901/cardforge/pkg/prometheus"
	"github.com/lk2023060901/cardforge/pkg/security"
	"github.com/lk2023060901/cardforge/pkg/sentry"
	"github.com/lk2023060901/cardforge/pkg/web"
	"github.com/lk2023060901/cardforge/pkg/web/middleware"
)

const envPrefix = "CARDFORGE"

// 用户锁后端
const (
	LockLocal = "local"
	LockRedis = "redis"
)

// LockConfig 用户锁配置
type LockConfig struct {
	Backend string                  `mapstructure:"backend" validate:"omitempty,oneof=local redis"`
	Stripes int                     `mapstructure:"stripes"`
	Redis   service.RedisLockConfig `mapstructure:"redis"`
}

// EventsConfig 事件转发配置
type EventsConfig struct {
	// Kafka 为 true 时把全部业务事件转发到 kafka.topic
	Kafka bool              `mapstructure:"kafka"`
	Async event.AsyncConfig `mapstructure:"async"`
}

// Config CardForge 的完整配置
type Config struct {
	BotToken          string   `mapstructure:"bot_token"`
	Catalog           string   `mapstructure:"catalog"`
	DefaultCurrencies []string `mapstructure:"default_currencies"`
	// RNGSeed 为空时使用加密随机源
	RNGSeed   string `mapstructure:"rng_seed"`
	MachineID uint16 `mapstructure:"machine_id"`

	Storage   dao.Config          `mapstructure:"storage"`
	Admin     service.AdminConfig `mapstructure:"admin"`
	Drop      service.DropConfig  `mapstructure:"drop"`
	Lock      LockConfig          `mapstructure:"lock"`
	Retention dao.RetentionConfig `mapstructure:"retention"`
	Events    EventsConfig        `mapstructure:"events"`
	MiniGames minigame.Config     `mapstructure:"minigames"`

	Log       logger.Config              `mapstructure:"log"`
	HTTP      web.Config                 `mapstructure:"http"`
	RateLimit middleware.RateLimitConfig `mapstructure:"rate_limit"`
	Redis     redis.Config               `mapstructure:"redis"`
	Postgres  postgres.Config            `mapstructure:"postgres"`
	Kafka     kafka.Config               `mapstructure:"kafka"`
	Metrics   prometheus.Config          `mapstructure:"metrics"`
	Sentry    sentry.Config              `mapstructure:"sentry"`
	JWT       security.JWTConfig         `mapstructure:"jwt"`
	Notify    feishu.Config              `mapstructure:"notify"`
}

// envAliases 与自动映射规则不一致的环境变量
var envAliases = map[string]string{
	"admin.admin_ids":               "CARDFORGE_ADMIN_IDS",
	"admin.commands.ban":            "CARDFORGE_ADMIN_CMD_BAN",
	"admin.commands.unban":          "CARDFORGE_ADMIN_CMD_UNBAN",
	"admin.commands.grant_card":     "CARDFORGE_ADMIN_CMD_GRANT_CARD",
	"admin.commands.grant_currency": "CARDFORGE_ADMIN_CMD_GRANT_CURRENCY",
}

// envDefaults 让 viper 感知这些键，环境变量才能参与 Unmarshal
var envDefaults = map[string]any{
	"bot_token":          "",
	"catalog":            "",
	"default_currencies": "coins,gems",
	"rng_seed":           "",
	"machine_id":         1,

	"storage.backend":  dao.BackendMemory,
	"storage.dsn":      "",
	"storage.echo_sql": false,

	"admin.admin_ids":               "",
	"admin.enable_audit_logs":       true,
	"admin.audit_channel":           0,
	"admin.enable_ban":              true,
	"admin.commands.ban":            "ban",
	"admin.commands.unban":          "unban",
	"admin.commands.grant_card":     "grantcard",
	"admin.commands.grant_currency": "grantcurrency",

	"drop.base_cooldown":      3600,
	"drop.allow_duplicates":   true,
	"drop.duplicate_penalty":  0.0,
	"drop.max_cards":          1,
	"drop.rarity_weights":     "",
	"drop.duplicate_strategy": service.StrategyPenalty,
	"drop.dust_currency":      "dust",
	"drop.dust_amount":        0,
	"drop.default_pack":       "",

	"minigames.builtin":  false,
	"minigames.currency": "coins",

	"lock.backend":       LockLocal,
	"retention.enabled":  false,
	"events.kafka":       false,
	"http.addr":          ":8080",
	"log.level":          "info",
	"jwt.secret_key":     "",
	"sentry.dsn":         "",
	"notify.webhook_url": "",
}

func defaultConfig() *Config {
	return &Config{
		DefaultCurrencies: []string{"coins", "gems"},
		MachineID:         1,
		Storage:           dao.Config{Backend: dao.BackendMemory},
		Admin:             service.DefaultAdminConfig(),
		Drop:              service.DefaultDropConfig(),
		Lock:              LockConfig{Backend: LockLocal, Stripes: 256},
		Retention:         dao.DefaultRetentionConfig(),
		MiniGames:         minigame.DefaultConfig(),
		Log:               *logger.DefaultConfig(),
		HTTP:              *web.DefaultConfig(),
		RateLimit:         *middleware.DefaultRateLimitConfig(),
		Redis:             *redis.DefaultConfig(),
		Postgres:          *postgres.DefaultConfig(),
		Kafka:             *kafka.DefaultConfig(),
		Metrics:           *prometheus.DefaultConfig(),
		Sentry:            *sentry.DefaultConfig(),
		JWT:               *security.DefaultJWTConfig(),
		Notify:            *feishu.DefaultConfig(),
	}
}

// loadConfig 加载配置：环境变量 > 配置文件 > 默认值
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	_, err := app.LoadConfig(cfg, app.LoadOptions{
		ConfigPath: path,
		EnvPrefix:  envPrefix,
		EnvAliases: envAliases,
		Defaults:   envDefaults,
	}, config.WithDecodeHooks(rarityWeightsHook()))
	if err != nil {
		return nil, err
	}
	cfg.normalize()
	if err := config.NewValidator().Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalize 空的命令名回退为默认值
func (c *Config) normalize() {
	def := service.DefaultAdminConfig().Commands
	cmds := &c.Admin.Commands
	for _, pair := range []struct {
		field    *string
		fallback string
	}{
		{&cmds.Ban, def.Ban},
		{&cmds.Unban, def.Unban},
		{&cmds.GrantCard, def.GrantCard},
		{&cmds.GrantCurrency, def.GrantCurrency},
	} {
		if strings.TrimSpace(*pair.field) == "" {
			*pair.field = pair.fallback
		}
	}
	if c.Drop.RarityWeights == nil {
		c.Drop.RarityWeights = map[string]float64{}
	}
}

// Seed 解析随机种子，未配置时返回 nil
func (c *Config) Seed() (*uint64, error) {
	raw := strings.TrimSpace(c.RNGSeed)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid CARDFORGE_RNG_SEED %q", raw)
	}
	seed := uint64(n)
	return &seed, nil
}

// rarityWeightsHook 把 JSON 字符串解析为稀有度权重
func rarityWeightsHook() mapstructure.DecodeHookFunc {
	target := reflect.TypeOf(map[string]float64{})
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != target {
			return data, nil
		}
		return parseRarityWeights(data.(string))
	}
}

func parseRarityWeights(raw string) (map[string]float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]float64{}, nil
	}
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, errors.WithSecondaryError(errors.New("invalid JSON for CARDFORGE_DROP_RARITY_WEIGHTS"), err)
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, errors.New("CARDFORGE_DROP_RARITY_WEIGHTS must be a JSON object")
	}
	out := make(map[string]float64, len(obj))
	for k, v := range obj {
		switch x := v.(type) {
		case float64:
			out[k] = x
		case string:
			f, err := strconv.ParseFloat(x, 64)
			if err != nil {
				return nil, errors.Newf("CARDFORGE_DROP_RARITY_WEIGHTS: weight for %s is not a number", k)
			}
			out[k] = f
		default:
			return nil, errors.Newf("CARDFORGE_DROP_RARITY_WEIGHTS: weight for %s is not a number", k)
		}
	}
	return out, nil
}
