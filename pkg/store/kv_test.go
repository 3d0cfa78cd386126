package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestMemoryKVRoundTrip(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	if _, ok, err := kv.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}
	if err := kv.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := kv.Get(ctx, "k")
	if err != nil || !ok || v != "v" {
		t.Fatalf("get: v=%q ok=%v err=%v", v, ok, err)
	}
	if err := kv.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, "k"); ok {
		t.Fatalf("key should be gone after delete")
	}
	if err := kv.Delete(ctx, "k"); err != nil {
		t.Fatalf("deleting a missing key should not fail: %v", err)
	}
}

func TestRedisKVRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	kv := NewRedisKV(mr.Addr(), "", "scriptura")
	ctx := context.Background()

	if _, ok, err := kv.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}
	if err := kv.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := kv.Get(ctx, "k")
	if err != nil || !ok || v != "v" {
		t.Fatalf("get: v=%q ok=%v err=%v", v, ok, err)
	}
	// Keys are namespaced under the prefix.
	if !mr.Exists("scriptura:k") {
		t.Fatalf("expected prefixed key in redis")
	}
	if err := kv.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, "k"); ok {
		t.Fatalf("key should be gone after delete")
	}
}

func TestRedisKVReportsBackendErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	kv := NewRedisKV(mr.Addr(), "", "")
	mr.Close()

	if _, _, err := kv.Get(context.Background(), "k"); err == nil {
		t.Fatalf("expected error after redis shutdown")
	}
	if err := kv.Set(context.Background(), "k", "v"); err == nil {
		t.Fatalf("expected set error after redis shutdown")
	}
}
