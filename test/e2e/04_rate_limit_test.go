package e2e

import (
	"io"
	"testing"
)

func Test_RateLimit_Forgot(t *testing.T) {
	c := newHTTPClient()
	// email propio del test: el presupuesto es por (ip, email) y así no
	// pisamos el contador de ningún otro test
	addr := uniqueEmail("ratelimit")

	for i := 1; i <= forgotLimit; i++ {
		resp, err := postJSON(c, "/api/auth/password-reset/request", map[string]string{"email": addr})
		if err != nil {
			t.Fatal(err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode != 202 {
			t.Fatalf("request #%d status=%d", i, resp.StatusCode)
		}
	}

	// el siguiente dentro de la ventana debe rebotar
	resp, err := postJSON(c, "/api/auth/password-reset/request", map[string]string{"email": addr})
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 429 {
		t.Fatalf("request sobre el límite status=%d body=%s", resp.StatusCode, b)
	}
	if errCode(b) != "RATE_LIMIT_EXCEEDED" {
		t.Fatalf("code=%q", errCode(b))
	}
	if readHeader(resp, "Retry-After") == "" {
		t.Fatal("429 sin Retry-After")
	}

	// otro email desde la misma IP no comparte el contador
	resp2, err := postJSON(c, "/api/auth/password-reset/request", map[string]string{"email": uniqueEmail("ratelimit-other")})
	if err != nil {
		t.Fatal(err)
	}
	io.Copy(io.Discard, resp2.Body)
	resp2.Body.Close()
	if resp2.StatusCode != 202 {
		t.Fatalf("otro email status=%d", resp2.StatusCode)
	}
}
