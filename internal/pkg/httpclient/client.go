package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"bookstore/internal/pkg/nacos"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// StatusError 表示下游返回了非 2xx 状态码。调用方（适配器）负责
// 根据状态码和响应体把它翻译成领域错误，不允许让它继续向上泄漏。
type StatusError struct {
	Service    string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("service %s returned status %d", e.Service, e.StatusCode)
}

// Client 是一个可追踪的服务间 HTTP 客户端。
// 目标地址优先通过 Nacos 解析，解析失败时退回配置里的静态地址。
type Client struct {
	Tracer     trace.Tracer
	HTTPClient *http.Client

	nacosClient *nacos.Client
	staticAddrs map[string]string
}

// NewClient 创建客户端。nacosClient 可以为 nil（纯静态地址模式）。
func NewClient(tracer trace.Tracer, nacosClient *nacos.Client, staticAddrs map[string]string) *Client {
	// 不给 http.Client 设置全局 Timeout，超时完全由每次请求的 context 控制
	httpClient := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
		},
	}
	return &Client{
		Tracer:      tracer,
		HTTPClient:  httpClient,
		nacosClient: nacosClient,
		staticAddrs: staticAddrs,
	}
}

// resolve 把服务名解析为 base URL。
func (c *Client) resolve(serviceName string) (string, error) {
	if c.nacosClient != nil {
		if ip, port, err := c.nacosClient.DiscoverServiceInstance(serviceName); err == nil {
			return fmt.Sprintf("http://%s:%d", ip, port), nil
		}
	}
	if addr, ok := c.staticAddrs[serviceName]; ok {
		return addr, nil
	}
	return "", fmt.Errorf("no address known for service %s", serviceName)
}

// GetJSON 对目标服务发起 GET 请求并把 2xx 响应体解码到 out。
func (c *Client) GetJSON(ctx context.Context, serviceName, path string, params url.Values, out interface{}) error {
	return c.doJSON(ctx, http.MethodGet, serviceName, path, params, nil, out)
}

// PostJSON 对目标服务发起 JSON POST 请求。body 和 out 均可为 nil。
func (c *Client) PostJSON(ctx context.Context, serviceName, path string, body interface{}, out interface{}) error {
	return c.doJSON(ctx, http.MethodPost, serviceName, path, nil, body, out)
}

func (c *Client) doJSON(ctx context.Context, method, serviceName, path string, params url.Values, body, out interface{}) error {
	ctx, span := c.Tracer.Start(ctx, fmt.Sprintf("call-%s", serviceName), trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	base, err := c.resolve(serviceName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	target, err := url.Parse(base + path)
	if err != nil {
		return err
	}
	if params != nil {
		target.RawQuery = params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	span.SetAttributes(
		attribute.String("http.url", target.String()),
		attribute.String("http.method", method),
		attribute.String("peer.service", serviceName),
	)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		statusErr := &StatusError{Service: serviceName, StatusCode: resp.StatusCode, Body: respBody}
		span.RecordError(statusErr)
		span.SetStatus(codes.Error, statusErr.Error())
		return statusErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			span.RecordError(err)
			return fmt.Errorf("decode response from %s: %w", serviceName, err)
		}
	}
	return nil
}
