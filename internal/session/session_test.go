package session

import "testing"

func TestIssueAndVerifyTokenRoundtrip(t *testing.T) {
	Setup("test-secret")

	token, err := IssueToken("device-1", "session-1")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	claims, err := VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claims.DeviceID != "device-1" || claims.SessionID != "session-1" {
		t.Errorf("claims = %+v, want device-1/session-1", claims)
	}
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	Setup("secret-a")
	token, err := IssueToken("device-1", "session-1")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	Setup("secret-b")
	if _, err := VerifyToken(token); err == nil {
		t.Error("VerifyToken should reject a token signed with a different secret")
	}
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	Setup("test-secret")
	if _, err := VerifyToken("not-a-jwt"); err == nil {
		t.Error("VerifyToken should reject a malformed token string")
	}
}
