package rank

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/model"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/logging"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/metrics"
)

// 打分来源，写入 score_source Label。
const (
	SourceRemote   = "remote"
	SourceFallback = "fallback"
	SourceEmpty    = "empty"
)

// CompatibilityScorer 对同一 slot 的候选做搭配打分：优先远程模型，任何失败都由规则兜底。
// 对调用方而言 Score 永远不会失败。
type CompatibilityScorer struct {
	// Primary 远程模型，可为空（只用规则）
	Primary model.CompatModel

	// Fallback 兜底模型，默认 model.RuleModel
	Fallback model.CompatModel

	// Timeout 单次远程调用的上限，默认 core.DefaultScoreTimeout
	Timeout time.Duration

	Logger *zerolog.Logger
}

// NewCompatibilityScorer 创建打分器。
func NewCompatibilityScorer(primary model.CompatModel) *CompatibilityScorer {
	return &CompatibilityScorer{Primary: primary, Fallback: model.RuleModel{}}
}

// Score 返回每个候选的分数。
func (s *CompatibilityScorer) Score(ctx context.Context, base *core.Item, candidates []*core.Item) core.Scores {
	scores, _ := s.Resolve(ctx, base, candidates)
	return scores
}

// Resolve 返回分数以及分数来源（remote / fallback / empty）。
func (s *CompatibilityScorer) Resolve(ctx context.Context, base *core.Item, candidates []*core.Item) (core.Scores, string) {
	if len(candidates) == 0 {
		metrics.RecordScore(SourceEmpty, 0)
		return core.Scores{}, SourceEmpty
	}

	start := time.Now()
	if s.Primary != nil {
		timeout := s.Timeout
		if timeout <= 0 {
			timeout = core.DefaultScoreTimeout
		}
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		scores, err := s.Primary.Score(callCtx, base, candidates)
		cancel()
		if err == nil {
			metrics.RecordScore(SourceRemote, time.Since(start))
			return scores, SourceRemote
		}
		logging.With(ctx, *logging.OrComponent(s.Logger, "scorer")).Warn().
			Err(err).
			Str("model", s.Primary.Name()).
			Str("base_id", base.ID).
			Int("candidates", len(candidates)).
			Msg("remote scoring failed, using rule fallback")
	}

	scores := s.fallback(ctx, base, candidates)
	metrics.RecordScore(SourceFallback, time.Since(start))
	return scores, SourceFallback
}

func (s *CompatibilityScorer) fallback(ctx context.Context, base *core.Item, candidates []*core.Item) core.Scores {
	if s.Fallback != nil {
		if scores, err := s.Fallback.Score(ctx, base, candidates); err == nil {
			return scores
		}
	}
	scores, _ := model.RuleModel{}.Score(ctx, base, candidates)
	return scores
}
