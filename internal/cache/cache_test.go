package cache

import (
	"context"
	"testing"
	"time"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New("redis://localhost:6379")
	if err != nil {
		t.Skip("redis not available for testing")
	}
	return c
}

func TestKey_Deterministic(t *testing.T) {
	k1 := Key("???\n..?", "CAT\nDOG", 7)
	k2 := Key("???\n..?", "CAT\nDOG", 7)
	if k1 != k2 {
		t.Errorf("Key() not deterministic: %q != %q", k1, k2)
	}
}

func TestKey_DiffersOnSeed(t *testing.T) {
	k1 := Key("???", "CAT", 1)
	k2 := Key("???", "CAT", 2)
	if k1 == k2 {
		t.Error("Key() should differ when seed differs")
	}
}

func TestKey_DiffersOnGridOrDictionary(t *testing.T) {
	base := Key("???", "CAT", 0)
	if Key("..?", "CAT", 0) == base {
		t.Error("Key() should differ when grid text differs")
	}
	if Key("???", "DOG", 0) == base {
		t.Error("Key() should differ when dictionary text differs")
	}
}

func TestGridDictKey_MatchesNormalizedKey(t *testing.T) {
	got := GridDictKey([]string{"???", "..?"}, []string{"CAT", "DOG"}, 3)
	want := Key("???\n..?", "CAT\nDOG", 3)
	if got != want {
		t.Errorf("GridDictKey() = %q, want %q", got, want)
	}
}

func TestCache_SetGet(t *testing.T) {
	c := newTestCache(t)
	defer c.Close()

	ctx := context.Background()
	key := GridDictKey([]string{"???"}, []string{"CAT"}, 0)

	if err := c.Set(ctx, key, "CAT", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	val, hit, err := c.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !hit {
		t.Fatal("expected cache hit")
	}
	if val != "CAT" {
		t.Errorf("Get() = %q, want %q", val, "CAT")
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := newTestCache(t)
	defer c.Close()

	_, hit, err := c.Get(context.Background(), "nonexistent-key-12345")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if hit {
		t.Error("expected cache miss")
	}
}
