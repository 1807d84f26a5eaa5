package storage_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"bet-books/internal/storage"
)

func exerciseMedium(t *testing.T, m storage.Medium) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := m.Get(ctx, "invoices"); err != nil || ok {
		t.Fatalf("expected absent key, got ok=%v err=%v", ok, err)
	}

	if err := m.Set(ctx, "invoices", "[]"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := m.Set(ctx, "invoices", `[{"number":134}]`); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	v, ok, err := m.Get(ctx, "invoices")
	if err != nil || !ok {
		t.Fatalf("expected key present, got ok=%v err=%v", ok, err)
	}
	if v != `[{"number":134}]` {
		t.Errorf("unexpected value %q", v)
	}

	if err := m.Remove(ctx, "invoices"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if err := m.Remove(ctx, "invoices"); err != nil {
		t.Fatalf("removing an absent key should not fail: %v", err)
	}
	if _, ok, _ := m.Get(ctx, "invoices"); ok {
		t.Errorf("expected key to be removed")
	}
}

func TestMemoryMedium(t *testing.T) {
	exerciseMedium(t, storage.NewMemoryMedium())
}

func TestMemoryMedium_Quota(t *testing.T) {
	ctx := context.Background()
	m := storage.NewMemoryMediumWithQuota(20)

	if err := m.Set(ctx, "ledger", "[]"); err != nil {
		t.Fatalf("small write should fit: %v", err)
	}
	err := m.Set(ctx, "documents", `[{"type":"invoice"}]`)
	if !errors.Is(err, storage.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if _, ok, _ := m.Get(ctx, "documents"); ok {
		t.Errorf("rejected write must not be stored")
	}
	// Overwriting a key only counts the new value.
	if err := m.Set(ctx, "ledger", "[1,2,3]"); err != nil {
		t.Errorf("overwrite within quota failed: %v", err)
	}
}

func TestFileMedium(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	m, err := storage.OpenFileMedium(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	exerciseMedium(t, m)
}

func TestFileMedium_PersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "storage.json")

	first, err := storage.OpenFileMedium(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := first.Set(ctx, "lastInvoiceNumber", "135"); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	second, err := storage.OpenFileMedium(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	v, ok, err := second.Get(ctx, "lastInvoiceNumber")
	if err != nil || !ok || v != "135" {
		t.Fatalf("expected 135 after reopen, got %q ok=%v err=%v", v, ok, err)
	}
}

func TestFileMedium_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := storage.OpenFileMedium(path); err == nil {
		t.Fatal("expected an error for a corrupt storage file")
	}
}
