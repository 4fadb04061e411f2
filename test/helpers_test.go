package test

import (
	"context"
	"strings"
	"sync"
	"testing"

	goVerify "github.com/MrEthical07/goVerify"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type recordingAdapter struct {
	mu       sync.Mutex
	messages []string
}

func (a *recordingAdapter) Send(_ context.Context, _ string, message string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, message)
	return nil
}

func (a *recordingAdapter) lastCode(t *testing.T) string {
	t.Helper()

	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.messages) == 0 {
		t.Fatal("no delivered messages")
	}

	message := a.messages[len(a.messages)-1]
	code := strings.TrimPrefix(message, "Your code: ")
	if code == message {
		t.Fatalf("unexpected message format: %q", message)
	}
	return code
}

func newIntegrationEngine(t *testing.T) (*goVerify.Engine, *recordingAdapter) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	cfg := goVerify.DefaultConfig()
	cfg.SMS.MinResendInterval = 0
	cfg.Email.Enabled = true
	cfg.Email.MinResendInterval = 0

	adapter := &recordingAdapter{}
	engine, err := goVerify.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithSMSAdapter(adapter).
		WithEmailAdapter(adapter).
		Build()
	if err != nil {
		t.Fatalf("engine build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, adapter
}
