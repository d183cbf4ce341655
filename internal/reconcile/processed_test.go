package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemoryProcessed(t *testing.T) {
	store := NewMemoryProcessed()
	ctx := context.Background()

	seen, err := store.Seen(ctx, "rec-1")
	if err != nil || seen {
		t.Fatalf("fresh key must be unseen, got seen=%v err=%v", seen, err)
	}

	if err := store.Mark(ctx, "rec-1"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	seen, err = store.Seen(ctx, "rec-1")
	if err != nil || !seen {
		t.Fatalf("marked key must be seen, got seen=%v err=%v", seen, err)
	}
}

func TestRedisProcessed(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisProcessed(client, time.Hour)
	ctx := context.Background()

	if seen, _ := store.Seen(ctx, "rec-1"); seen {
		t.Fatalf("fresh key must be unseen")
	}
	if err := store.Mark(ctx, "rec-1"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if seen, _ := store.Seen(ctx, "rec-1"); !seen {
		t.Fatalf("marked key must be seen")
	}

	mr.FastForward(2 * time.Hour)
	if seen, _ := store.Seen(ctx, "rec-1"); seen {
		t.Fatalf("expired key must be unseen again")
	}
}
