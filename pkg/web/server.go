package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/cardforge/pkg/logger"
	"github.com/lk2023060901/cardforge/pkg/sentry"
	"github.com/lk2023060901/cardforge/pkg/web/middleware"
)

// Server Web 服务，实现 app.Server
type Server struct {
	engine *gin.Engine
	config *Config
	logger logger.Logger

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// NewServer 创建 Web 服务并挂载基础中间件
func NewServer(cfg *Config, l logger.Logger, reporter sentry.Reporter) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if l == nil {
		l = logger.NewNoop()
	}
	if reporter == nil {
		reporter = sentry.NopReporter{}
	}

	gin.SetMode(cfg.Mode)
	engine := gin.New()

	l = l.Named("web")
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger(l))
	engine.Use(middleware.Recovery(l, reporter))
	if cfg.EnableCORS {
		engine.Use(middleware.CORS(cfg.CORSOrigins))
	}

	return &Server{
		engine: engine,
		config: cfg,
		logger: l,
	}
}

// Router 返回 Gin 引擎，用于注册路由
func (s *Server) Router() *gin.Engine {
	return s.engine
}

// Handler 返回 http.Handler 接口
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr 实际监听地址，未启动时返回配置值
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Addr
}

// Start 绑定端口后在后台提供服务
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		return ErrServerAlreadyStarted
	}

	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.server = &http.Server{
		Handler:        s.engine,
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	srv := s.server
	s.logger.Info("starting http server", "addr", ln.Addr().String())
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server stopped unexpectedly", "error", err)
		}
	}()
	return nil
}

// Stop 优雅关闭，超时后强制断开
func (s *Server) Stop() error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().ShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		_ = srv.Close()
		return err
	}
	s.logger.Info("http server stopped")
	return nil
}
