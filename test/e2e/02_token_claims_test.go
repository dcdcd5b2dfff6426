package e2e

import (
	"testing"
)

func Test_Token_Claims_And_TTL(t *testing.T) {
	c := newHTTPClient()

	status, token, err := loginUser(c, seedUsername, seedPassword)
	if err != nil {
		t.Fatal(err)
	}
	if status != 200 {
		t.Fatalf("login status=%d", status)
	}

	hdr, pld, err := decodeJWT(token)
	if err != nil {
		t.Fatal(err)
	}

	if alg := asString(hdr["alg"]); alg != "HS256" {
		t.Fatalf("alg=%q", alg)
	}
	if sub := asString(pld["sub"]); sub != seedUsername {
		t.Fatalf("sub=%q, esperaba %q", sub, seedUsername)
	}
	if id := asString(pld["id"]); id == "" {
		t.Fatal("claim id vacío")
	}

	iat, ok1 := pld["iat"].(float64)
	exp, ok2 := pld["exp"].(float64)
	if !ok1 || !ok2 {
		t.Fatalf("iat/exp no numéricos: %v %v", pld["iat"], pld["exp"])
	}
	// TTL de 20 minutos exacto
	if ttl := exp - iat; ttl != 1200 {
		t.Fatalf("exp-iat=%v, esperaba 1200", ttl)
	}
}
