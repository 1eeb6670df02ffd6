package core

import "time"

const (
	// DefaultPageSize 是 feed 默认每页条数
	DefaultPageSize = 20

	// MaxPageSize 是单页上限
	MaxPageSize = 100

	// DefaultScoreTimeout 是远程搭配打分的客户端超时
	DefaultScoreTimeout = 5 * time.Second

	// DefaultRankTimeout 是远程排序/检索的客户端超时
	DefaultRankTimeout = 5 * time.Second
)

// Defaults 提供各组件的默认值，可由配置层覆盖。
type Defaults interface {
	PageSize() int
	ScoreTimeout() time.Duration
	RankTimeout() time.Duration
}

// DefaultConfig 是 Defaults 的默认实现。
type DefaultConfig struct{}

func (DefaultConfig) PageSize() int               { return DefaultPageSize }
func (DefaultConfig) ScoreTimeout() time.Duration { return DefaultScoreTimeout }
func (DefaultConfig) RankTimeout() time.Duration  { return DefaultRankTimeout }
