package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/verdantrow/storefront-backend/pkg/config"
)

type fakeStore struct {
	values map[string]string
}

func (f *fakeStore) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	if f.values == nil {
		f.values = map[string]string{}
	}
	f.values[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeStore) Get(_ context.Context, key string) *redis.StringCmd {
	if value, ok := f.values[key]; ok {
		return redis.NewStringResult(value, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (f *fakeStore) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var removed int64
	for _, key := range keys {
		if _, ok := f.values[key]; ok {
			delete(f.values, key)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func TestGetMapsMissingKeyToNotFound(t *testing.T) {
	client := &Client{store: &fakeStore{}}
	ctx := context.Background()

	_, found, err := client.Get(ctx, "storefront:cart")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatal("expected missing key to report not found")
	}

	if err := client.Set(ctx, "storefront:cart", `{"id":"abc"}`); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	value, found, err := client.Get(ctx, "storefront:cart")
	if err != nil || !found {
		t.Fatalf("expected stored value, found=%v err=%v", found, err)
	}
	if value != `{"id":"abc"}` {
		t.Fatalf("unexpected value %q", value)
	}

	if err := client.Del(ctx, "storefront:cart"); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, found, _ := client.Get(ctx, "storefront:cart"); found {
		t.Fatal("expected key to be deleted")
	}
}

func TestUninitializedClientErrors(t *testing.T) {
	client := &Client{}
	if _, _, err := client.Get(context.Background(), "k"); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
	if err := client.Set(context.Background(), "k", "v"); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error when neither url nor address is set")
	}

	opts, err := optionsFromConfig(config.RedisConfig{
		Address:      "localhost:6379",
		DB:           2,
		PoolSize:     7,
		MinIdleConns: 1,
		DialTimeout:  time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.DB != 2 || opts.PoolSize != 7 {
		t.Fatalf("options not carried over: %+v", opts)
	}

	opts, err = optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6380/3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.DB != 3 {
		t.Fatalf("url options not parsed: %+v", opts)
	}
}
