package ping_worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

//go:generate mockgen -source=ping_client.go -destination=mock_ping_client.go -package=ping_worker

const pingPath = "/__ping__"

type PingClient interface {
	// Ping probes {serverUrl}/__ping__. Every problem is reported inside PingResult, never as an error.
	Ping(ctx context.Context, serverUrl string) PingResult
}

type MemoryUsage struct {
	HeapUsed  float64 `json:"heapUsed" validate:"gte=0"`
	HeapTotal float64 `json:"heapTotal" validate:"gte=0"`
	Rss       float64 `json:"rss" validate:"gte=0"`
	External  float64 `json:"external" validate:"gte=0"`
}

type pingResponse struct {
	Status    string       `json:"status" validate:"required"`
	Timestamp any          `json:"timestamp"`
	Memory    *MemoryUsage `json:"memory" validate:"required"`
}

type PingResult struct {
	Success      bool
	StatusCode   *int
	ResponseTime time.Duration
	Memory       *MemoryUsage
	Error        error
	Timestamp    time.Time
}

type pingClient struct {
	client   *http.Client
	timeout  time.Duration
	validate *validator.Validate
	now      func() time.Time
}

func (p *pingClient) Ping(ctx context.Context, serverUrl string) PingResult {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := p.now()
	res := p.ping(ctx, strings.TrimRight(serverUrl, "/")+pingPath)
	res.Timestamp = p.now()
	res.ResponseTime = res.Timestamp.Sub(start)
	return res
}

func (p *pingClient) ping(ctx context.Context, requestUrl string) PingResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestUrl, nil)
	if err != nil {
		return PingResult{Error: fmt.Errorf("PingClient.Ping creating request: %w", err)}
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return PingResult{Error: fmt.Errorf("PingClient.Ping: %w", err)}
	}
	defer resp.Body.Close()

	statusCode := resp.StatusCode
	res := PingResult{StatusCode: &statusCode}
	if statusCode != http.StatusOK {
		res.Error = fmt.Errorf("PingClient.Ping: unexpected status %d", statusCode)
		return res
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		res.Error = fmt.Errorf("PingClient.Ping reading body: %w", err)
		return res
	}
	var payload pingResponse
	if err = json.Unmarshal(body, &payload); err != nil {
		res.Error = fmt.Errorf("PingClient.Ping decoding body: %w", err)
		return res
	}
	if err = p.validate.Struct(payload); err != nil {
		res.Error = fmt.Errorf("PingClient.Ping invalid payload: %w", err)
		return res
	}
	res.Success = true
	res.Memory = payload.Memory
	return res
}

func NewPingClient(timeout time.Duration) PingClient {
	return &pingClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout:  timeout,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
}
