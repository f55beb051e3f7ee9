//go:build integration

package cache_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"reload-gateway/infra/cache"
)

func TestRedisIdempotencyStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate redis container: %v", err)
		}
	}()

	host, _ := container.Host(ctx)
	port, _ := container.MappedPort(ctx, "6379")

	client, err := cache.Connect(ctx, fmt.Sprintf("%s:%s", host, port.Port()))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	store := cache.NewRedisIdempotencyStore(client, time.Minute)

	ref, ok, err := store.Reserve(ctx, "key-1", "TXN-AAAA0001")
	if err != nil || !ok || ref != "TXN-AAAA0001" {
		t.Fatalf("expected first reservation to win, got %q %v %v", ref, ok, err)
	}

	ref, ok, err = store.Reserve(ctx, "key-1", "TXN-BBBB0002")
	if err != nil || ok || ref != "TXN-AAAA0001" {
		t.Fatalf("expected replay to return the first reference, got %q %v %v", ref, ok, err)
	}

	if err := store.Release(ctx, "key-1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, ok, _ := store.Reserve(ctx, "key-1", "TXN-CCCC0003"); !ok {
		t.Fatal("expected released key to be reservable again")
	}
}
