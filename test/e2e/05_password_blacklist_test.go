package e2e

import (
	"strings"
	"testing"
)

func Test_Signup_BlacklistedPassword(t *testing.T) {
	c := newHTTPClient()

	status, body, err := signupUser(c, uniqueName("banned"), bannedPasswords[0])
	if err != nil {
		t.Fatal(err)
	}
	if status != 422 || errCode(body) != "PASSWORD_TOO_WEAK" {
		t.Fatalf("status=%d code=%q body=%s", status, errCode(body), body)
	}
	if !strings.Contains(string(body), "blacklisted") {
		t.Fatalf("detail sin blacklisted: %s", body)
	}
}

func Test_Signup_ShortPassword(t *testing.T) {
	c := newHTTPClient()

	status, body, err := signupUser(c, uniqueName("short"), "abc12")
	if err != nil {
		t.Fatal(err)
	}
	if status != 422 || errCode(body) != "PASSWORD_TOO_WEAK" {
		t.Fatalf("status=%d code=%q", status, errCode(body))
	}
	if !strings.Contains(string(body), "too_short") {
		t.Fatalf("detail sin too_short: %s", body)
	}
}
