package mongo

import (
	"context"
	"testing"
	"time"
)

func TestConnect_Unreachable(t *testing.T) {
	client, db, err := Connect(context.Background(), Config{
		URI:      "mongodb://127.0.0.1:1/?connectTimeoutMS=100",
		Database: "users_service",
		Timeout:  200 * time.Millisecond,
	})
	if err == nil {
		_ = Disconnect(client, time.Second)
		t.Fatal("expected a ping error")
	}
	if client != nil || db != nil {
		t.Error("client and database should be nil on failure")
	}
}
