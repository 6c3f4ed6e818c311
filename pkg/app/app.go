package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/lk2023060901/cardforge/pkg/logger"
	"golang.org/x/sync/errgroup"
)

var (
	ErrAppAlreadyRunning = errors.New("application is already running")
)

// Application 框架级应用接口
type Application interface {
	Run(ctx context.Context) error
	Shutdown() error
	Logger() logger.Logger
}

// Server 服务接口（HTTP、后台任务等），Start 不阻塞
type Server interface {
	Start() error
	Stop() error
}

// Closer 资源清理接口（Redis、DB、Kafka producer 等）
type Closer interface {
	Close() error
}

// BaseApp Application 的基础实现
type BaseApp struct {
	opts    Options
	logger  logger.Logger
	servers []Server
	closers []Closer

	mu      sync.Mutex
	started atomic.Bool
	closed  atomic.Bool
}

// NewBaseApp 创建 BaseApp
func NewBaseApp(opts ...Option) *BaseApp {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &BaseApp{
		opts:   o,
		logger: o.Logger.Named(o.Name),
	}
}

// Logger 应用主日志对象
func (a *BaseApp) Logger() logger.Logger {
	return a.logger
}

// Run 启动所有服务并阻塞，直到收到 SIGINT/SIGTERM 或 ctx 结束
func (a *BaseApp) Run(ctx context.Context) error {
	if !a.started.CompareAndSwap(false, true) {
		return ErrAppAlreadyRunning
	}

	info := GetInfo()
	a.logger.Info("application starting",
		"name", a.opts.Name,
		"version", info.Version,
		"commit", info.GitCommit,
		"build_date", info.BuildDate,
		"go_version", info.GoVersion,
		"id", a.opts.ID,
	)

	for _, srv := range a.servers {
		if err := srv.Start(); err != nil {
			a.logger.Error("failed to start server", "error", err)
			_ = a.Shutdown()
			return fmt.Errorf("start server: %w", err)
		}
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	if ctx.Err() != nil {
		a.logger.Info("context cancelled, shutting down")
	} else {
		a.logger.Info("received signal, shutting down")
	}
	return a.Shutdown()
}

// Shutdown 并行停止服务，超时后不再等待；随后按注册的逆序关闭资源
func (a *BaseApp) Shutdown() error {
	if !a.closed.CompareAndSwap(false, true) {
		return nil
	}

	a.mu.Lock()
	servers := append([]Server(nil), a.servers...)
	closers := append([]Closer(nil), a.closers...)
	a.mu.Unlock()

	a.logger.Info("application shutting down")

	var g errgroup.Group
	for _, srv := range servers {
		s := srv
		g.Go(func() error {
			if err := s.Stop(); err != nil {
				a.logger.Error("failed to stop server", "error", err)
				return err
			}
			return nil
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	var stopErr error
	select {
	case stopErr = <-done:
		a.logger.Info("all servers stopped")
	case <-time.After(a.opts.StopTimeout):
		a.logger.Warn("shutdown timeout, forcing exit", "timeout", a.opts.StopTimeout)
	}

	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			a.logger.Error("failed to close component", "error", err)
		}
	}

	a.logger.Info("application exited")
	_ = a.logger.Sync()
	return stopErr
}

// AppendServer 添加服务
func (a *BaseApp) AppendServer(srv ...Server) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.servers = append(a.servers, srv...)
}

// AppendCloser 添加资源清理组件
func (a *BaseApp) AppendCloser(closer ...Closer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closers = append(a.closers, closer...)
}

// ExitOnError 打印错误并以状态码 1 退出，供 main 使用
func ExitOnError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
