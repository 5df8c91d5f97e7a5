package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestNewClient(t *testing.T) {
	s := miniredis.RunT(t)

	ctx := context.Background()
	client, err := NewClient(ctx, ClientConfig{
		URL:         fmt.Sprintf("redis://%s/2", s.Addr()),
		PoolSize:    4,
		DialTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("expected client, got error: %v", err)
	}
	defer client.Close()

	if err := client.Set(ctx, "schedule:gen:svc-1", 1, 0).Err(); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if got, _ := s.DB(2).Get("schedule:gen:svc-1"); got != "1" {
		t.Fatalf("expected key in database 2, got %q", got)
	}
	if client.Options().PoolSize != 4 {
		t.Fatalf("expected pool size 4, got %d", client.Options().PoolSize)
	}
}

func TestOptions(t *testing.T) {
	tests := []struct {
		name      string
		cfg       ClientConfig
		wantPool  int
		wantRead  time.Duration
		wantWrite time.Duration
		wantDial  time.Duration
		wantErr   bool
	}{
		{
			name: "explicit settings override URL defaults",
			cfg: ClientConfig{
				URL:          "redis://localhost:6379/0",
				PoolSize:     20,
				DialTimeout:  2 * time.Second,
				ReadTimeout:  500 * time.Millisecond,
				WriteTimeout: 750 * time.Millisecond,
			},
			wantPool:  20,
			wantDial:  2 * time.Second,
			wantRead:  500 * time.Millisecond,
			wantWrite: 750 * time.Millisecond,
		},
		{
			name:     "URL query settings survive zero values",
			cfg:      ClientConfig{URL: "redis://localhost:6379/0?pool_size=7&read_timeout=4s"},
			wantPool: 7,
			wantRead: 4 * time.Second,
		},
		{
			name:    "invalid URL",
			cfg:     ClientConfig{URL: "://bad-url"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := Options(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if opts.PoolSize != tt.wantPool {
				t.Errorf("expected pool size %d, got %d", tt.wantPool, opts.PoolSize)
			}
			if opts.ReadTimeout != tt.wantRead {
				t.Errorf("expected read timeout %s, got %s", tt.wantRead, opts.ReadTimeout)
			}
			if tt.wantWrite > 0 && opts.WriteTimeout != tt.wantWrite {
				t.Errorf("expected write timeout %s, got %s", tt.wantWrite, opts.WriteTimeout)
			}
			if tt.wantDial > 0 && opts.DialTimeout != tt.wantDial {
				t.Errorf("expected dial timeout %s, got %s", tt.wantDial, opts.DialTimeout)
			}
		})
	}
}

func TestNewClientPingFailure(t *testing.T) {
	s := miniredis.RunT(t)
	url := fmt.Sprintf("redis://%s", s.Addr())
	s.Close()

	_, err := NewClient(context.Background(), ClientConfig{URL: url, DialTimeout: 200 * time.Millisecond})
	if err == nil {
		t.Fatalf("expected ping error when server is down")
	}
}
