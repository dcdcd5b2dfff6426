package store

import (
	"context"
	"testing"
)

func TestOpenMemory(t *testing.T) {
	repo, err := Open(context.Background(), Config{Driver: "memory"})
	if err != nil {
		t.Fatalf("Open(memory): %v", err)
	}
	defer repo.Close()
	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestOpenFS(t *testing.T) {
	repo, err := Open(context.Background(), Config{Driver: "fs", FSRoot: t.TempDir()})
	if err != nil {
		t.Fatalf("Open(fs): %v", err)
	}
	defer repo.Close()
	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestOpenDefaultsToFS(t *testing.T) {
	repo, err := Open(context.Background(), Config{FSRoot: t.TempDir()})
	if err != nil {
		t.Fatalf("Open with empty driver: %v", err)
	}
	repo.Close()
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "mongodb"}); err == nil {
		t.Fatal("Open(mongodb): expected error")
	}
}
