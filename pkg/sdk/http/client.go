package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/betbot/gooption/pkg/ratelimit"
)

// Client 只读 HTTP 客户端（订单源 / 价格源共用）。
// 本地令牌桶限速，避免高频轮询打爆上游公共接口。
type Client struct {
	client  *resty.Client
	limiter *ratelimit.TokenBucket
}

// NewClient 创建 HTTP 客户端。
// resty 会自动从环境变量读取代理配置（HTTP_PROXY, HTTPS_PROXY, http_proxy, https_proxy）。
func NewClient(host string, timeout time.Duration) *Client {
	if strings.HasSuffix(host, "/") {
		host = host[:len(host)-1]
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := resty.New().
		SetBaseURL(host).
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(10 * time.Second).
		SetRetryAfter(func(client *resty.Client, resp *resty.Response) (time.Duration, error) {
			// 如果遇到 429 限流，使用 Retry-After 头
			if resp.StatusCode() == http.StatusTooManyRequests {
				if retryAfter := resp.Header().Get("Retry-After"); retryAfter != "" {
					if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
						return seconds, nil
					}
				}
				return 10 * time.Second, nil
			}
			return 0, nil
		})

	// 每秒 10 个请求，短突发 20 个
	return &Client{
		client:  client,
		limiter: ratelimit.NewTokenBucket(20, 10),
	}
}

// newRequest 仅设置本次请求的默认 Header（不要再改 client 级 Header）
func (c *Client) newRequest(ctx context.Context) *resty.Request {
	r := c.client.R()
	if ctx != nil {
		r.SetContext(ctx)
	}
	r.SetHeader("Accept", "application/json")
	r.SetHeader("Connection", "keep-alive")
	r.SetHeader("User-Agent", "@betbot/gooption-sdk")
	return r
}

// GetBytes 发送 GET 请求并返回原始响应体。
// 非 2xx 或传输错误统一返回 error，由上层归类为“数据源不可用”。
func (c *Client) GetBytes(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limit wait")
	}

	r := c.newRequest(ctx)
	if len(params) > 0 {
		r.SetQueryParams(params)
	}

	resp, err := r.Get(endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "GET %s", endpoint)
	}
	if resp.IsError() {
		return nil, errors.Errorf("GET %s: status %d: %s", endpoint, resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	return resp.Body(), nil
}
