package recall

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/utils"
)

// RPCPageSource 通过 HTTP 调用远程排序/检索服务，实现 core.PageSource。
//
// 请求：GET {Endpoint}?mode=&seed=&page=&pageSize=&category=&size=...
// 响应：{"items":[...], "total":47, "hasMore":true, "seed":123, "mode":"trending"}
//
// 使用示例：
//
//	src := recall.NewRPCPageSource("http://localhost:8080/api/v1/feed", 5*time.Second)
//	session := feed.New(src, feed.Options{Mode: core.ModeTrending})
type RPCPageSource struct {
	// Endpoint 排序服务端点
	Endpoint string

	// Timeout 请求超时时间
	Timeout time.Duration

	// Client HTTP 客户端（可选）
	Client *http.Client
}

// NewRPCPageSource 创建远程分页源，timeout 为 0 时使用 core.DefaultRankTimeout。
func NewRPCPageSource(endpoint string, timeout time.Duration) *RPCPageSource {
	if timeout == 0 {
		timeout = core.DefaultRankTimeout
	}
	return &RPCPageSource{
		Endpoint: endpoint,
		Timeout:  timeout,
		Client:   &http.Client{Timeout: timeout},
	}
}

func (r *RPCPageSource) Name() string { return "recall.rpc" }

// FetchPage 实现 core.PageSource。传输错误、非 2xx、无法解析的响应都返回错误。
func (r *RPCPageSource) FetchPage(ctx context.Context, req core.PageRequest) (*core.Page, error) {
	if r.Endpoint == "" {
		return nil, fmt.Errorf("rpc page source endpoint is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	client := r.Client
	if client == nil {
		client = &http.Client{Timeout: r.Timeout}
	}

	sep := "?"
	if strings.Contains(r.Endpoint, "?") {
		sep = "&"
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, r.Endpoint+sep+req.Values().Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("rpc page call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("rpc page error: status=%d, body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var page core.Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if page.Items == nil {
		page.Items = []*core.Item{}
	}
	for _, it := range page.Items {
		if it == nil {
			continue
		}
		it.PutLabel("recall_source", utils.L("rpc", "recall"))
	}
	return &page, nil
}
