package dao

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/cardforge/pkg/logger"
	"github.com/robfig/cron/v3"
)

// RetentionConfig 历史数据清理配置
type RetentionConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Schedule 标准 5 段 cron 表达式或 @daily 之类的描述符
	Schedule   string        `mapstructure:"schedule"`
	HistoryTTL time.Duration `mapstructure:"history_ttl"`
	AuditTTL   time.Duration `mapstructure:"audit_ttl"`
}

// DefaultRetentionConfig 默认每天清理，历史保留 30 天，审计保留 90 天
func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		Schedule:   "@daily",
		HistoryTTL: 30 * 24 * time.Hour,
		AuditTTL:   90 * 24 * time.Hour,
	}
}

// RetentionJob 定时删除过期的掉落历史与审计日志，实现 app.Server
type RetentionJob struct {
	store  Store
	cfg    RetentionConfig
	cron   *cron.Cron
	logger logger.Logger
	now    func() time.Time
}

// NewRetentionJob 创建清理任务
func NewRetentionJob(store Store, cfg RetentionConfig, l logger.Logger) (*RetentionJob, error) {
	def := DefaultRetentionConfig()
	if cfg.Schedule == "" {
		cfg.Schedule = def.Schedule
	}
	if cfg.HistoryTTL <= 0 {
		cfg.HistoryTTL = def.HistoryTTL
	}
	if cfg.AuditTTL <= 0 {
		cfg.AuditTTL = def.AuditTTL
	}

	j := &RetentionJob{
		store:  store,
		cfg:    cfg,
		cron:   cron.New(),
		logger: l.Named("dao.retention"),
		now:    time.Now,
	}
	if _, err := j.cron.AddFunc(cfg.Schedule, j.run); err != nil {
		return nil, errors.Wrapf(err, "invalid retention schedule %q", cfg.Schedule)
	}
	return j, nil
}

// RunOnce 立即执行一次清理
func (j *RetentionJob) RunOnce(ctx context.Context) (PruneResult, error) {
	now := j.now().UTC()
	return j.store.Prune(ctx, now.Add(-j.cfg.HistoryTTL), now.Add(-j.cfg.AuditTTL))
}

func (j *RetentionJob) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	res, err := j.RunOnce(ctx)
	if err != nil {
		j.logger.Error("retention prune failed", "backend", j.store.Backend(), "error", err)
		return
	}
	j.logger.Info("retention prune finished",
		"backend", j.store.Backend(),
		"history_deleted", res.History,
		"audit_deleted", res.Audit,
	)
}

// Start 启动调度，不阻塞
func (j *RetentionJob) Start() error {
	if !j.cfg.Enabled {
		j.logger.Debug("retention job disabled")
		return nil
	}
	j.cron.Start()
	j.logger.Info("retention job started", "schedule", j.cfg.Schedule)
	return nil
}

// Stop 停止调度并等待正在执行的清理结束
func (j *RetentionJob) Stop() error {
	<-j.cron.Stop().Done()
	return nil
}
