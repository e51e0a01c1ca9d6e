package cache

import (
	"context"
	"testing"
	"time"

	"github.com/cupom-store/internal/config"
)

func TestDisabledCacheIsAlwaysMiss(t *testing.T) {
	if err := InitRedis(&config.RedisConfig{Enabled: false}); err != nil {
		t.Fatalf("init: %v", err)
	}
	if Enabled() {
		t.Fatalf("cache must be disabled")
	}
	ctx := context.Background()
	if err := SetSpecialDay(ctx, nil, time.Minute); err != nil {
		t.Fatalf("set on disabled cache: %v", err)
	}
	snapshot, hit, err := GetSpecialDay(ctx)
	if err != nil || hit || snapshot != nil {
		t.Fatalf("want miss got hit=%v snapshot=%v err=%v", hit, snapshot, err)
	}
	if err := InvalidateSpecialDay(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
}

func TestKeyPrefix(t *testing.T) {
	if got := Key("special_day:current"); got != prefix+":special_day:current" {
		t.Fatalf("unexpected key %s", got)
	}
	if got := Key("  "); got != prefix {
		t.Fatalf("want bare prefix got %s", got)
	}
}
