package auth

import (
	"errors"
	"testing"
	"time"
)

func testCodec(t *testing.T, at time.Time) *Codec {
	t.Helper()
	c, err := NewCodec("test-secret", WithCodecClock(func() time.Time { return at }))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c
}

func TestCodecIssueAndDecode(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := testCodec(t, now)

	token, err := c.Issue("ana@example.com", 7, RoleCustomer, KindAccess, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := c.Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if claims.Subject != "ana@example.com" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.UserID != 7 {
		t.Fatalf("unexpected userId: %d", claims.UserID)
	}
	if claims.Role != RoleCustomer {
		t.Fatalf("unexpected rol: %s", claims.Role)
	}
	if claims.Kind != KindAccess {
		t.Fatalf("unexpected type: %s", claims.Kind)
	}
	if !claims.ExpiresAt.Time.Equal(now.Add(time.Hour)) {
		t.Fatalf("exp should be iat+ttl, got %v", claims.ExpiresAt.Time)
	}
}

func TestCodecRejectsEmptySecret(t *testing.T) {
	if _, err := NewCodec("   "); err == nil {
		t.Fatal("expected error for blank secret")
	}
}

func TestCodecRejectsForeignSignature(t *testing.T) {
	now := time.Now()
	c := testCodec(t, now)
	other, err := NewCodec("another-secret")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	token, err := other.Issue("ana@example.com", 7, RoleCustomer, KindAccess, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := c.Decode(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestCodecTamperedToken(t *testing.T) {
	c := testCodec(t, time.Now())
	token, err := c.Issue("ana@example.com", 7, RoleCustomer, KindAccess, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	tampered := token[:len(token)-3] + "abc"
	if _, err := c.Decode(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestCodecExpiryIsSeparateFromSignature(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := testCodec(t, issued)
	token, err := c.Issue("ana@example.com", 7, RoleCustomer, KindAccess, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	late, err := NewCodec("test-secret", WithCodecClock(func() time.Time {
		return issued.Add(2 * time.Hour)
	}))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	// A well formed expired token still decodes; only IsExpired flips.
	if _, err := late.Decode(token); err != nil {
		t.Fatalf("expired token should decode: %v", err)
	}
	if !late.IsExpired(token) {
		t.Fatal("expected token to be expired")
	}
	if late.Validate(token, "ana@example.com") {
		t.Fatal("Validate must fail on expired token")
	}
	if c.IsExpired(token) {
		t.Fatal("token should not be expired at issue time")
	}
}

func TestCodecValidateSubjectMismatch(t *testing.T) {
	c := testCodec(t, time.Now())
	token, err := c.Issue("ana@example.com", 7, RoleCustomer, KindAccess, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if c.Validate(token, "otro@example.com") {
		t.Fatal("Validate must require the expected subject")
	}
	if !c.Validate(token, "ana@example.com") {
		t.Fatal("Validate should accept the issued subject")
	}
}

func TestIsRefreshKindFailsClosed(t *testing.T) {
	c := testCodec(t, time.Now())

	refresh, err := c.Issue("ana@example.com", 7, RoleCustomer, KindRefresh, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	access, err := c.Issue("ana@example.com", 7, RoleCustomer, KindAccess, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if !c.IsRefreshKind(refresh) {
		t.Fatal("refresh token should report refresh kind")
	}
	if c.IsRefreshKind(access) {
		t.Fatal("access token must not report refresh kind")
	}
	if c.IsRefreshKind("not-a-token") {
		t.Fatal("undecodable token must not report refresh kind")
	}
}

func TestCodecInfoProjection(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := testCodec(t, now)
	token, err := c.Issue("ana@example.com", 7, RoleStaff, KindAccess, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	info, err := c.Info(token)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info["username"] != "ana@example.com" {
		t.Fatalf("unexpected username: %v", info["username"])
	}
	if info["userId"] != int64(7) {
		t.Fatalf("unexpected userId: %v", info["userId"])
	}
	if info["rol"] != RoleStaff {
		t.Fatalf("unexpected rol: %v", info["rol"])
	}
	if info["expired"] != false {
		t.Fatalf("token should not be expired: %v", info["expired"])
	}
}

func TestCodecIssueRejectsBadInput(t *testing.T) {
	c := testCodec(t, time.Now())
	if _, err := c.Issue("", 1, RoleCustomer, KindAccess, time.Hour); err == nil {
		t.Fatal("expected error for empty subject")
	}
	if _, err := c.Issue("ana@example.com", 1, RoleCustomer, KindAccess, 0); err == nil {
		t.Fatal("expected error for non-positive ttl")
	}
}
