package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"relay/internal/config"
)

type Config struct {
	PublisherURL   string        `env:"PUBLISHER_URL" envDefault:"http://localhost:8080/"`
	RequestCount   int           `env:"REQUEST_COUNT" envDefault:"100"`
	RequestsPerSec int           `env:"REQUESTS_PER_SEC" envDefault:"0"`
	Concurrency    int           `env:"CONCURRENCY" envDefault:"8"`
	ForwardRatio   float64       `env:"FORWARD_RATIO" envDefault:"0.5"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
}

type publishResponse struct {
	Message   string `json:"message"`
	EventID   string `json:"eventId"`
	Forwarded bool   `json:"forwarded"`
	Error     string `json:"error"`
}

type counters struct {
	forwarded atomic.Int64
	standard  atomic.Int64
	failed    atomic.Int64
}

func main() {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to parse environment variables: %v", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := &http.Client{Timeout: cfg.RequestTimeout}
	var c counters

	// default rate of 0 means no rate limiting
	var tick <-chan time.Time
	if cfg.RequestsPerSec > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(cfg.RequestsPerSec))
		defer ticker.Stop()
		tick = ticker.C
	}

	now := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Concurrency, 1))

	for i := 0; i < cfg.RequestCount; i++ {
		if tick != nil {
			select {
			case <-gctx.Done():
			case <-tick:
			}
		}
		if gctx.Err() != nil {
			break
		}

		forward := rand.Float64() < cfg.ForwardRatio
		i := i
		g.Go(func() error {
			resp, err := send(gctx, client, cfg.PublisherURL, request(i, forward))
			if err != nil {
				c.failed.Add(1)
				logger.Warn("publish failed", zap.Int("request", i), zap.Error(err))
				return nil
			}
			if resp.Forwarded != forward {
				c.failed.Add(1)
				logger.Error("forward flag mismatch", zap.Int("request", i), zap.String("eventId", resp.EventID))
				return nil
			}
			if resp.Forwarded {
				c.forwarded.Add(1)
			} else {
				c.standard.Add(1)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("error in goroutine", zap.Error(err))
	}

	logger.Info("load run complete",
		zap.Int64("forwarded", c.forwarded.Load()),
		zap.Int64("standard", c.standard.Load()),
		zap.Int64("failed", c.failed.Load()),
		zap.Duration("elapsed", time.Since(now)),
	)
}

func request(i int, forward bool) map[string]any {
	customers := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"}

	return map[string]any{
		"order_id":    fmt.Sprintf("ORD-%04d", i+1),
		"customer_id": customers[rand.Intn(len(customers))],
		"amount":      10.0 + rand.Float64()*990.0,
		"trace":       uuid.NewString(),
		"forward":     forward,
	}
}

func send(ctx context.Context, client *http.Client, url string, body map[string]any) (publishResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return publishResponse{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return publishResponse{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return publishResponse{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return publishResponse{}, fmt.Errorf("failed to read response: %w", err)
	}

	var out publishResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return publishResponse{}, fmt.Errorf("failed to decode response %q: %w", raw, err)
	}
	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("publisher returned %d: %s", resp.StatusCode, out.Error)
	}

	return out, nil
}
