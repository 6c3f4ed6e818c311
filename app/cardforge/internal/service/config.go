package service

import "slices"

// 重复卡处理策略名称
const (
	StrategyPenalty = "penalty"
	StrategyDust    = "dust"
)

// DropConfig 掉落规则
type DropConfig struct {
	BaseCooldownSeconds int64              `mapstructure:"base_cooldown" validate:"gte=0"`
	AllowDuplicates     bool               `mapstructure:"allow_duplicates"`
	DuplicatePenalty    float64            `mapstructure:"duplicate_penalty" validate:"gte=0"`
	MaxCardsPerDrop     int                `mapstructure:"max_cards" validate:"gte=1"`
	RarityWeights       map[string]float64 `mapstructure:"rarity_weights"`

	DuplicateStrategy string `mapstructure:"duplicate_strategy" validate:"omitempty,oneof=penalty dust"`
	DustCurrency      string `mapstructure:"dust_currency"`
	DustAmount        int64  `mapstructure:"dust_amount" validate:"gte=0"`

	// DefaultPack 未指定卡包时使用，为空则取第一个注册的卡包
	DefaultPack string `mapstructure:"default_pack"`
}

// DefaultDropConfig 默认掉落规则
func DefaultDropConfig() DropConfig {
	return DropConfig{
		BaseCooldownSeconds: 3600,
		AllowDuplicates:     true,
		MaxCardsPerDrop:     1,
		DuplicateStrategy:   StrategyPenalty,
		DustCurrency:        "dust",
	}
}

// AdminCommands 管理命令名称
type AdminCommands struct {
	Ban           string `mapstructure:"ban"`
	Unban         string `mapstructure:"unban"`
	GrantCard     string `mapstructure:"grant_card"`
	GrantCurrency string `mapstructure:"grant_currency"`
}

// AdminConfig 管理功能配置
type AdminConfig struct {
	AdminIDs        []int64 `mapstructure:"admin_ids"`
	EnableAuditLogs bool    `mapstructure:"enable_audit_logs"`
	// AuditChannel 非 0 时审计记录同时以 admin.audit 事件发布
	AuditChannel int64         `mapstructure:"audit_channel"`
	EnableBan    bool          `mapstructure:"enable_ban"`
	Commands     AdminCommands `mapstructure:"commands"`
}

// DefaultAdminConfig 默认管理配置
func DefaultAdminConfig() AdminConfig {
	return AdminConfig{
		EnableAuditLogs: true,
		EnableBan:       true,
		Commands: AdminCommands{
			Ban:           "ban",
			Unban:         "unban",
			GrantCard:     "grantcard",
			GrantCurrency: "grantcurrency",
		},
	}
}

// IsAdmin 判断用户是否为管理员
func (c AdminConfig) IsAdmin(userID int64) bool {
	return slices.Contains(c.AdminIDs, userID)
}
