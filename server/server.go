// Package server 是 topcare 的 HTTP 接口：排序接口、搭配组装、行为上报、健康检查与指标。
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/feedback"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/outfit"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/logging"
)

// ItemGetter 按 ID 读取商品详情，catalog.Lookup 实现了它。
type ItemGetter interface {
	Get(ctx context.Context, id string) (*core.Item, error)
}

// PoolQuerier 拉取搭配候选池，catalog.SQLiteRepository 实现了它。
type PoolQuerier interface {
	Query(ctx context.Context, f core.Filters) ([]*core.Item, error)
}

// Options 服务配置。
type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// RateLimit 每个 IP 每个窗口的请求数，0 表示不限流
	RateLimit       int
	RateLimitWindow time.Duration

	// DefaultPoolSize 请求未指定 poolSize 时的候选数
	DefaultPoolSize int

	Logger *zerolog.Logger
}

// Server 持有各个组件并提供路由。
type Server struct {
	feed      core.PageSource
	items     ItemGetter
	pool      PoolQuerier
	assembler *outfit.Assembler
	sink      feedback.Sink

	opts     Options
	validate *validator.Validate
	log      *zerolog.Logger
}

// New 创建 Server。sink 为空时上报被丢弃。
func New(feed core.PageSource, items ItemGetter, pool PoolQuerier, assembler *outfit.Assembler, sink feedback.Sink, opts Options) *Server {
	if sink == nil {
		sink = feedback.NopSink{}
	}
	if assembler == nil {
		assembler = outfit.NewAssembler(nil)
	}
	if opts.DefaultPoolSize <= 0 {
		opts.DefaultPoolSize = 200
	}
	if opts.RateLimitWindow <= 0 {
		opts.RateLimitWindow = time.Minute
	}
	return &Server{
		feed:      feed,
		items:     items,
		pool:      pool,
		assembler: assembler,
		sink:      sink,
		opts:      opts,
		validate:  validator.New(),
		log:       logging.OrComponent(opts.Logger, "server"),
	}
}

// Router 返回完整的路由。
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.accessLog)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if s.opts.RateLimit > 0 {
			r.Use(httprate.Limit(
				s.opts.RateLimit,
				s.opts.RateLimitWindow,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
					writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "RATE_LIMITED", Message: "too many requests"})
				}),
			))
		}
		r.Use(metricsMiddleware)

		r.Get("/feed", s.handleFeed)
		r.Post("/outfits", s.handleOutfit)
		r.Post("/telemetry/{kind}", s.handleTelemetry)
	})
	return r
}

// ListenAndServe 启动服务，ctx 取消后优雅退出。
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.Router(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.opts.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.log.Info().Msg("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}
