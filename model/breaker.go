package model

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/logging"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/metrics"
)

// BreakerConfig 熔断参数。
type BreakerConfig struct {
	Name        string        `koanf:"name"`
	MaxRequests uint32        `koanf:"max_requests"` // half-open 时允许的并发探测数
	Interval    time.Duration `koanf:"interval"`     // closed 状态下的计数窗口
	Timeout     time.Duration `koanf:"timeout"`      // open -> half-open 的等待时间
	MinRequests uint32        `koanf:"min_requests"`
	FailureRate float64       `koanf:"failure_rate" validate:"gte=0,lte=1"`
}

// DefaultBreakerConfig 窗口 1 分钟内至少 10 次请求、失败率 >= 60% 时打开，30 秒后探测。
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:        "compat-model",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		MinRequests: 10,
		FailureRate: 0.6,
	}
}

// BreakerModel 给任意 CompatModel 加上熔断：熔断打开时直接失败，由上层走规则兜底。
type BreakerModel struct {
	inner CompatModel
	cb    *gobreaker.CircuitBreaker[core.Scores]
	name  string
}

// NewBreakerModel 包装 inner。
func NewBreakerModel(inner CompatModel, cfg BreakerConfig) *BreakerModel {
	def := DefaultBreakerConfig()
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = def.MinRequests
	}
	if cfg.FailureRate <= 0 {
		cfg.FailureRate = def.FailureRate
	}
	log := logging.Component("breaker")
	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[core.Scores](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureRate
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
	return &BreakerModel{inner: inner, cb: cb, name: cfg.Name}
}

func (m *BreakerModel) Name() string { return m.inner.Name() }

// State 返回当前熔断状态。
func (m *BreakerModel) State() gobreaker.State { return m.cb.State() }

func (m *BreakerModel) Score(ctx context.Context, base *core.Item, candidates []*core.Item) (core.Scores, error) {
	scores, err := m.cb.Execute(func() (core.Scores, error) {
		return m.inner.Score(ctx, base, candidates)
	})
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(m.name, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(m.name, "rejected").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(m.name, "failure").Inc()
	}
	return scores, err
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
