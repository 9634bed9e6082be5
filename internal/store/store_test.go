package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "u1", KeyUser); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}
	if err := s.Put(ctx, "u1", KeyUser, []byte(`{"name":"a"}`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, err := s.Get(ctx, "u1", KeyUser)
	if err != nil || string(got) != `{"name":"a"}` {
		t.Fatalf("Get() = %q, %v", got, err)
	}
	if _, err := s.Get(ctx, "u2", KeyUser); !errors.Is(err, ErrNotFound) {
		t.Fatalf("learners must not share keys; error = %v", err)
	}

	if err := s.Delete(ctx, "u1", KeyUser); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, "u1", KeyUser); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(after delete) error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "nobody", KeyUser); err != nil {
		t.Fatalf("Delete(missing) error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Update(ctx, "u1", KeyProgress, func(cur []byte) ([]byte, error) {
				n := 0
				if len(cur) > 0 {
					n, _ = strconv.Atoi(string(cur))
				}
				return []byte(strconv.Itoa(n + 1)), nil
			})
			if err != nil {
				t.Errorf("Update() error = %v", err)
			}
		}()
	}
	wg.Wait()
	got, err = s.Get(ctx, "u1", KeyProgress)
	if err != nil || string(got) != "20" {
		t.Fatalf("counter = %q, %v; want 20", got, err)
	}

	boom := errors.New("boom")
	if err := s.Update(ctx, "u1", KeyProgress, func([]byte) ([]byte, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("Update() error = %v, want boom", err)
	}
	if got, _ := s.Get(ctx, "u1", KeyProgress); string(got) != "20" {
		t.Fatalf("failed update changed value to %q", got)
	}

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}

func TestInMemoryStore(t *testing.T) {
	exerciseStore(t, NewInMemoryStore())
}

func TestBoltStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "aimaster.bolt")
	s, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("NewBoltStore() error = %v", err)
	}
	exerciseStore(t, s)
	if err := s.Put(context.Background(), "u9", KeyTheme, []byte(`{"id":"dark"}`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Get(context.Background(), "u9", KeyTheme)
	if err != nil || string(got) != `{"id":"dark"}` {
		t.Fatalf("persisted value = %q, %v", got, err)
	}
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := NewRedisStore(ctx, url, time.Minute)
	if err != nil {
		t.Fatalf("NewRedisStore() error = %v", err)
	}
	defer s.Close()
	for _, k := range []string{KeyUser, KeyProgress} {
		_ = s.Delete(ctx, "u1", k)
	}
	exerciseStore(t, s)
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := NewPostgresStore(ctx, url)
	if err != nil {
		t.Fatalf("NewPostgresStore() error = %v", err)
	}
	defer s.Close()
	for _, k := range []string{KeyUser, KeyProgress} {
		_ = s.Delete(ctx, "u1", k)
	}
	exerciseStore(t, s)
}

func TestResolveDriver(t *testing.T) {
	cases := []struct {
		opts Options
		want string
	}{
		{Options{}, DriverMemory},
		{Options{Driver: "auto", BoltPath: "/tmp/x.bolt"}, DriverBolt},
		{Options{RedisURL: "redis://localhost:6379/0", BoltPath: "/tmp/x.bolt"}, DriverRedis},
		{Options{DatabaseURL: "postgres://x", RedisURL: "redis://y"}, DriverPostgres},
		{Options{Driver: "Memory", DatabaseURL: "postgres://x"}, DriverMemory},
	}
	for _, tc := range cases {
		if got := ResolveDriver(tc.opts); got != tc.want {
			t.Fatalf("ResolveDriver(%+v) = %q, want %q", tc.opts, got, tc.want)
		}
	}
}

func TestNewStoreRejectsMisconfiguredDriver(t *testing.T) {
	if _, err := NewStore(context.Background(), Options{Driver: DriverRedis}); err == nil {
		t.Fatalf("expected error for redis without url")
	}
	if _, err := NewStore(context.Background(), Options{Driver: "etcd"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
	s, err := NewStore(context.Background(), Options{})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if _, ok := s.(*InMemoryStore); !ok {
		t.Fatalf("NewStore() = %T, want *InMemoryStore", s)
	}
}
