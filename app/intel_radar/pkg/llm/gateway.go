package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/intel_radar/app/intel_radar/pkg/config"
)

// Generator 网关所需的最小对话模型接口，openai ChatModel 天然满足
type Generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// UpstreamError 上游瞬时故障重试耗尽
type UpstreamError struct {
	Attempts int
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("llm upstream unavailable after %d attempts: %v", e.Attempts, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ProtocolError 非瞬时故障（鉴权、响应体异常等），不重试
type ProtocolError struct {
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("llm protocol error: %v", e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

const (
	maxAttempts        = 3
	defaultBaseBackoff = time.Second
	defaultMaxBackoff  = 10 * time.Second
)

// Gateway 对外部 LLM API 的唯一出口。
// 每次调用前等待共享限流器，瞬时故障指数退避重试，最多 3 次。
// 除网络调用外无任何副作用，不做本地缓存。
type Gateway struct {
	cm          Generator
	limiter     *rate.Limiter
	baseBackoff time.Duration
	maxBackoff  time.Duration
}

// Option 网关可选项
type Option func(*Gateway)

// WithBackoff 覆盖退避参数（测试用）
func WithBackoff(base, max time.Duration) Option {
	return func(g *Gateway) {
		g.baseBackoff = base
		g.maxBackoff = max
	}
}

// NewGateway 创建网关。limiter 为空时不限速。
func NewGateway(cm Generator, limiter *rate.Limiter, opts ...Option) *Gateway {
	g := &Gateway{
		cm:          cm,
		limiter:     limiter,
		baseBackoff: defaultBaseBackoff,
		maxBackoff:  defaultMaxBackoff,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// NewChatModel 按配置初始化 openai 兼容模型
func NewChatModel(ctx context.Context, cfg config.LLMConfig) (model.ChatModel, error) {
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM 初始化失败: %w", err)
	}
	return cm, nil
}

// NewLimiter 按调用间隔构造共享限流器
func NewLimiter(cfg config.ConcurrencyConfig) *rate.Limiter {
	interval := cfg.CallInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Every(interval), burst)
}

// Call 发送一次对话请求并返回模型原始文本。
// 重试仅覆盖瞬时故障；其余失败立即以 ProtocolError 返回。
func (g *Gateway) Call(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []*schema.Message{
		{Role: schema.System, Content: systemPrompt},
		{Role: schema.User, Content: userPrompt},
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := g.backoff(ctx, attempt-1); err != nil {
				return "", err
			}
		}
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return "", err
			}
		}

		resp, err := g.cm.Generate(ctx, messages)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			if isTransient(err) {
				lastErr = err
				continue
			}
			return "", &ProtocolError{Err: err}
		}
		if resp == nil || strings.TrimSpace(resp.Content) == "" {
			return "", &ProtocolError{Err: fmt.Errorf("响应缺少内容字段")}
		}
		return strings.TrimSpace(resp.Content), nil
	}

	return "", &UpstreamError{Attempts: maxAttempts, Err: lastErr}
}

// backoff 第 retry 次重试前等待 min(base × 2^(retry-1), max)
func (g *Gateway) backoff(ctx context.Context, retry int) error {
	wait := g.baseBackoff << (retry - 1)
	if wait > g.maxBackoff {
		wait = g.maxBackoff
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// isTransient 判断上游错误是否值得重试
func isTransient(err error) bool {
	var ne net.Error
	if strings.Contains(err.Error(), "429") {
		return true
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "too many requests"),
		strings.Contains(msg, "overloaded"),
		strings.Contains(msg, "temporarily unavailable"),
		strings.Contains(msg, "service unavailable"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "connection refused"):
		return true
	}
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return false
}
