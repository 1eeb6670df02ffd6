package main

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/catalog"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/config"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/config/builders"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/feedback"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/model"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/outfit"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pipeline"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/logging"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/rank"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/store"
)

// app 持有按配置组装好的组件。
type app struct {
	repo      *catalog.SQLiteRepository
	kv        core.KeyValueStore
	lookup    *catalog.Lookup
	engine    *catalog.Engine
	assembler *outfit.Assembler
	sink      feedback.Sink

	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	if a.repo, err = catalog.OpenSQLite(cfg.Catalog.DSN); err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.repo.Close)

	// Redis 可选：未配置时用进程内存储，拉黑列表与画像随进程丢失
	var l2 core.Store
	if cfg.Redis.Addr != "" {
		rs, err := store.NewRedisStore(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.kv, l2 = rs, rs
	} else {
		a.kv = store.NewMemoryStore()
	}
	a.closers = append(a.closers, a.kv.Close)

	a.lookup = catalog.NewLookup(a.repo, catalog.NewDetailCache(cfg.Catalog.CacheSize, cfg.Catalog.CacheTTL, l2))

	if a.engine, err = newEngine(cfg, a.repo, a.kv); err != nil {
		return nil, err
	}
	a.assembler = newAssembler(cfg)

	if a.sink, err = newSink(cfg); err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.sink.Close)
	return a, nil
}

func newEngine(cfg *config.Config, repo *catalog.SQLiteRepository, kv core.KeyValueStore) (*catalog.Engine, error) {
	var pcfg *pipeline.Config
	if p := cfg.Ranking.PipelinesPath; p != "" {
		var err error
		if pcfg, err = pipeline.LoadFromYAML(p); err != nil {
			return nil, fmt.Errorf("load pipelines: %w", err)
		}
	}
	ps, err := builders.BuildPipelines(pcfg, builders.Deps{
		Catalog: repo,
		Store:   kv,
		Hot:     kv,
		Logger:  logging.Component("pipeline"),
	})
	if err != nil {
		return nil, err
	}
	capability, err := rank.NewCapability(cfg.Ranking.CapabilityRule)
	if err != nil {
		return nil, fmt.Errorf("capability rule: %w", err)
	}
	opts := catalog.EngineOptions{
		Capability: capability,
		Profiles:   catalog.NewProfileStore(kv),
		Timeout:    cfg.Ranking.Timeout,
	}
	if ttl := cfg.Ranking.OrderCacheTTL; ttl > 0 {
		opts.Orders = kv
		opts.OrderTTL = ttl
	}
	return catalog.NewEngine(ps, opts)
}

// newAssembler 未配置打分服务时只用规则打分；配置后远程模型外面包一层限流与熔断。
func newAssembler(cfg *config.Config) *outfit.Assembler {
	var primary model.CompatModel
	if sc := cfg.Scoring; sc.Endpoint != "" {
		rpc := model.NewRPCCompatModel(sc.Endpoint, sc.Timeout)
		if sc.RatePerSecond > 0 {
			burst := sc.Burst
			if burst <= 0 {
				burst = 1
			}
			rpc.Limiter = rate.NewLimiter(rate.Limit(sc.RatePerSecond), burst)
		}
		primary = model.NewBreakerModel(rpc, sc.Breaker)
	}
	scorer := rank.NewCompatibilityScorer(primary)
	scorer.Timeout = cfg.Scoring.Timeout
	return outfit.NewAssembler(scorer)
}

func newSink(cfg *config.Config) (feedback.Sink, error) {
	sinks := feedback.Multi{feedback.LogSink{Logger: logging.Component("telemetry")}}
	if len(cfg.Kafka.Brokers) > 0 {
		kc, err := feedback.NewKafkaCollector(cfg.Kafka)
		if err != nil {
			return nil, fmt.Errorf("kafka collector: %w", err)
		}
		sinks = append(sinks, kc)
	}
	return sinks, nil
}

// Close 逆序关闭所有组件。
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
