package redis

import (
	"context"
	"testing"
	"time"
)

func TestOptions(t *testing.T) {
	opts := options(Config{Addr: "cache:6379", Password: "pw", DB: 2}, 300*time.Millisecond)

	if opts.Addr != "cache:6379" || opts.Password != "pw" || opts.DB != 2 {
		t.Errorf("options = %+v", opts)
	}
	for name, got := range map[string]time.Duration{
		"dial":  opts.DialTimeout,
		"read":  opts.ReadTimeout,
		"write": opts.WriteTimeout,
	} {
		if got != 300*time.Millisecond {
			t.Errorf("%s timeout = %v", name, got)
		}
	}
}

func TestConnect_Unreachable(t *testing.T) {
	client, err := Connect(context.Background(), Config{Addr: "127.0.0.1:1", Timeout: 100 * time.Millisecond})
	if err == nil {
		_ = client.Close()
		t.Fatal("expected a ping error")
	}
	if client != nil {
		t.Error("client should be nil on failure")
	}
}
