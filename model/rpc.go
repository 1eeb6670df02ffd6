package model

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/classify"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
)

// ErrRateLimited 表示本地调用预算已用完，调用方应直接走兜底而不是等待。
var ErrRateLimited = errors.New("model: scoring rate limit exceeded")

// RPCCompatModel 通过 HTTP 调用外部 AI 搭配打分服务。
//
// 请求格式（JSON）：
//
//	{"baseItem": {"title": "...", "category": "...", "tags": [...], "color": "red", "style": "formal"},
//	 "items": [{"id": "i1", "title": "...", "category": "...", "tags": [...], "color": "...", "style": "..."}]}
//
// 响应格式（JSON）：
//
//	{"success": true, "scores": [{"itemId": "i1", "score": 87.5, "reason": "..."}]}
//
// 非 2xx、传输错误、无法解析的响应体、success=false 都以 error 返回，不做重试。
type RPCCompatModel struct {
	Endpoint string // 例如 "http://localhost:8080/api/outfit/score"
	Timeout  time.Duration // Client 为空时使用；<= 0 取默认超时
	Client   *http.Client

	// Limiter 可选；超出预算时立即返回 ErrRateLimited
	Limiter *rate.Limiter
}

// NewRPCCompatModel 创建远程打分模型，timeout 为 0 时使用默认值。
func NewRPCCompatModel(endpoint string, timeout time.Duration) *RPCCompatModel {
	if timeout <= 0 {
		timeout = core.DefaultScoreTimeout
	}
	return &RPCCompatModel{
		Endpoint: endpoint,
		Timeout:  timeout,
		Client:   &http.Client{Timeout: timeout},
	}
}

func (m *RPCCompatModel) Name() string { return "rpc" }

type wireBaseItem struct {
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Color    string   `json:"color"`
	Style    string   `json:"style"`
}

type wireCandidate struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Color    string   `json:"color"`
	Style    string   `json:"style"`
}

type scoreRequest struct {
	BaseItem wireBaseItem    `json:"baseItem"`
	Items    []wireCandidate `json:"items"`
}

type scoreResponse struct {
	Success bool `json:"success"`
	Scores  []struct {
		ItemID core.FlexID `json:"itemId"`
		Score  float64     `json:"score"`
		Reason string      `json:"reason"`
	} `json:"scores"`
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// BuildScoreRequest 构建请求体：color/style 由标题文本抽取。
func BuildScoreRequest(base *core.Item, candidates []*core.Item) any {
	req := scoreRequest{
		BaseItem: wireBaseItem{
			Title:    base.Title,
			Category: base.Category,
			Tags:     tagsOrEmpty(base.Tags),
			Color:    classify.ExtractColor(base.Title),
			Style:    classify.ExtractStyle(base.Title),
		},
		Items: make([]wireCandidate, 0, len(candidates)),
	}
	for _, c := range candidates {
		req.Items = append(req.Items, wireCandidate{
			ID:       c.ID,
			Title:    c.Title,
			Category: c.Category,
			Tags:     tagsOrEmpty(c.Tags),
			Color:    classify.ExtractColor(c.Title),
			Style:    classify.ExtractStyle(c.Title),
		})
	}
	return req
}

// Score 调用远程服务。远端分数会被限制在 [0,100]；不在候选列表中的 ID 被丢弃；
// 远端省略的候选不会出现在结果中。
func (m *RPCCompatModel) Score(ctx context.Context, base *core.Item, candidates []*core.Item) (core.Scores, error) {
	if len(candidates) == 0 {
		return core.Scores{}, nil
	}
	if m.Limiter != nil && !m.Limiter.Allow() {
		return nil, ErrRateLimited
	}
	client := m.Client
	if client == nil {
		timeout := m.Timeout
		if timeout <= 0 {
			timeout = core.DefaultScoreTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	data, err := json.Marshal(BuildScoreRequest(base, candidates))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.Endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rpc call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("rpc error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	var result scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !result.Success {
		return nil, errors.New("rpc error: success=false")
	}

	known := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		known[c.ID] = struct{}{}
	}
	scores := make(core.Scores, len(result.Scores))
	for _, s := range result.Scores {
		id := string(s.ItemID)
		if _, ok := known[id]; !ok {
			continue
		}
		scores[id] = clampScore(s.Score)
	}
	return scores, nil
}
