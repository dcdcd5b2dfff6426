package health

import (
	"context"
	"fmt"
	"testing"

	"github.com/ShubhamDalvi1999/authbridge/internal/jwt"
)

func okCheck(context.Context) error   { return nil }
func downCheck(context.Context) error { return fmt.Errorf("connection refused") }

func TestCheckReady(t *testing.T) {
	svc := NewHealthService(Deps{
		StoreCheck:       okCheck,
		CacheCheck:       okCheck,
		Issuer:           jwt.NewIssuer("health-test-secret-32-bytes-long", 0),
		GoogleConfigured: true,
	})

	res := svc.Check(context.Background())
	if res.Status != "ready" {
		t.Fatalf("status = %q, want ready", res.Status)
	}
	for _, name := range []string{"store", "token_signer", "cache", "google"} {
		if got := res.Components[name].Status; got != "ok" {
			t.Fatalf("component %s = %q, want ok", name, got)
		}
	}
	if got := res.Components["supabase"].Status; got != "disabled" {
		t.Fatalf("supabase = %q, want disabled", got)
	}
}

func TestCheckDegradedWhenCacheDown(t *testing.T) {
	svc := NewHealthService(Deps{
		StoreCheck: okCheck,
		CacheCheck: downCheck,
		Issuer:     jwt.NewIssuer("health-test-secret-32-bytes-long", 0),
	})

	res := svc.Check(context.Background())
	if res.Status != "degraded" {
		t.Fatalf("status = %q, want degraded", res.Status)
	}
	if res.Components["cache"].Status != "error" || res.Components["cache"].Message == "" {
		t.Fatalf("cache component = %+v", res.Components["cache"])
	}
}

func TestCheckUnavailableWhenStoreDown(t *testing.T) {
	svc := NewHealthService(Deps{
		StoreCheck: downCheck,
		CacheCheck: okCheck,
		Issuer:     jwt.NewIssuer("health-test-secret-32-bytes-long", 0),
	})

	if res := svc.Check(context.Background()); res.Status != "unavailable" {
		t.Fatalf("status = %q, want unavailable", res.Status)
	}
}

func TestCheckUnavailableWithoutIssuer(t *testing.T) {
	svc := NewHealthService(Deps{StoreCheck: okCheck})

	res := svc.Check(context.Background())
	if res.Status != "unavailable" {
		t.Fatalf("status = %q, want unavailable", res.Status)
	}
	if res.Components["token_signer"].Status != "error" {
		t.Fatalf("token_signer = %+v", res.Components["token_signer"])
	}
}
