package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/funvibe/loxide/internal/vm"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func compileBundle(t *testing.T, source string) *vm.Bundle {
	t.Helper()
	heap := vm.NewHeap()
	fn, err := vm.CompileScript(heap, source, vm.WithDiagnostics(nil))
	if err != nil {
		t.Fatalf("compile %q: %v", source, err)
	}
	b, err := vm.NewBundle(fn, "test.lox")
	if err != nil {
		t.Fatalf("NewBundle: %v", err)
	}
	return b
}

func TestCache_PutGet(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)
	source := `var greeting = "hi"; print greeting;`

	if _, ok, err := c.Get(ctx, source); err != nil || ok {
		t.Fatalf("expected miss on empty cache, got ok=%v err=%v", ok, err)
	}

	want := compileBundle(t, source)
	if err := c.Put(ctx, source, want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := c.Get(ctx, source)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got.BuildID != want.BuildID {
		t.Errorf("build id %s, want %s", got.BuildID, want.BuildID)
	}
	if string(got.Code) != string(want.Code) {
		t.Errorf("code mismatch: got %v, want %v", got.Code, want.Code)
	}
	if got.SourceFile != "test.lox" {
		t.Errorf("source file %q", got.SourceFile)
	}
}

func TestCache_ReplaceAndPurge(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)

	if err := c.Put(ctx, "print 1;", compileBundle(t, "print 1;")); err != nil {
		t.Fatal(err)
	}
	if err := c.Put(ctx, "print 1;", compileBundle(t, "print 1;")); err != nil {
		t.Fatal(err)
	}
	if err := c.Put(ctx, "print 2;", compileBundle(t, "print 2;")); err != nil {
		t.Fatal(err)
	}

	n, err := c.Len(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 entries, got %d", n)
	}

	if err := c.Purge(ctx); err != nil {
		t.Fatal(err)
	}
	if n, _ := c.Len(ctx); n != 0 {
		t.Errorf("expected empty cache after purge, got %d", n)
	}
}

func TestCache_CorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)
	source := "print 3;"

	_, err := c.db.ExecContext(ctx,
		`INSERT INTO bundles (key, build_id, source_file, data, created_at) VALUES (?, '', '', ?, 0)`,
		Key(source), []byte("garbage"))
	if err != nil {
		t.Fatal(err)
	}

	if _, ok, err := c.Get(ctx, source); err != nil || ok {
		t.Fatalf("expected miss for corrupt entry, got ok=%v err=%v", ok, err)
	}
	if n, _ := c.Len(ctx); n != 0 {
		t.Errorf("corrupt entry should be dropped, %d left", n)
	}
}

func TestKey(t *testing.T) {
	if Key("a") == Key("b") {
		t.Error("different sources share a key")
	}
	if Key("a") != Key("a") {
		t.Error("key is not deterministic")
	}
	if len(Key("")) != 64 {
		t.Errorf("expected hex sha256, got %q", Key(""))
	}
}
