package auth

import (
	"errors"
	"testing"
	"time"
)

func newTestService(accessTTL, refreshTTL time.Duration) *JWTService {
	return NewJWTService(JWTConfig{
		SecretKey:       "unit-test-secret",
		AccessTokenExp:  accessTTL,
		RefreshTokenExp: refreshTTL,
		TokenIssuer:     "test",
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := newTestService(time.Hour, time.Hour)

	token, err := svc.GenerateAccessToken("openid-1")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	claims, err := svc.ValidateUserToken(token)
	if err != nil {
		t.Fatalf("ValidateUserToken() error = %v", err)
	}
	if claims.OpenID != "openid-1" || claims.TokenType != TokenTypeAccess {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	svc := newTestService(time.Hour, time.Hour)

	token, jti, expiresAt, err := svc.GenerateRefreshToken("openid-1")
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}
	if jti == "" {
		t.Fatal("jti is empty")
	}
	if until := time.Until(expiresAt); until < 59*time.Minute || until > time.Hour {
		t.Fatalf("expiresAt = %v, want about an hour out", expiresAt)
	}

	claims, err := svc.ValidateRefreshToken(token)
	if err != nil {
		t.Fatalf("ValidateRefreshToken() error = %v", err)
	}
	if claims.ID != jti {
		t.Fatalf("claims.ID = %q, want %q", claims.ID, jti)
	}
}

func TestTokenTypeSeparation(t *testing.T) {
	svc := newTestService(time.Hour, time.Hour)

	access, err := svc.GenerateAccessToken("openid-1")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	refresh, _, _, err := svc.GenerateRefreshToken("openid-1")
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}

	if _, err := svc.ValidateUserToken(refresh); !errors.Is(err, ErrWrongType) {
		t.Fatalf("ValidateUserToken(refresh) error = %v, want ErrWrongType", err)
	}
	if _, err := svc.ValidateRefreshToken(access); !errors.Is(err, ErrWrongType) {
		t.Fatalf("ValidateRefreshToken(access) error = %v, want ErrWrongType", err)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := newTestService(-time.Minute, time.Hour)

	token, err := svc.GenerateAccessToken("openid-1")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	if _, err := svc.ValidateUserToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("ValidateUserToken(expired) error = %v, want ErrExpiredToken", err)
	}
}

func TestWrongSecretRejected(t *testing.T) {
	token, err := newTestService(time.Hour, time.Hour).GenerateAccessToken("openid-1")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	other := NewJWTService(JWTConfig{SecretKey: "other-secret", AccessTokenExp: time.Hour, RefreshTokenExp: time.Hour})
	if _, err := other.ValidateUserToken(token); err == nil {
		t.Fatal("token signed with another secret validated")
	}
}

func TestAdminTokenRoundTrip(t *testing.T) {
	svc := newTestService(time.Hour, time.Hour)

	token, err := svc.GenerateAdminToken(3, "radio")
	if err != nil {
		t.Fatalf("GenerateAdminToken() error = %v", err)
	}

	claims, err := svc.ValidateAdminToken(token)
	if err != nil {
		t.Fatalf("ValidateAdminToken() error = %v", err)
	}
	if claims.AdminID != 3 || claims.Username != "radio" || claims.Role != AdminRole {
		t.Fatalf("claims = %+v", claims)
	}

	// A user token carries no admin role and must be rejected here.
	userToken, err := svc.GenerateAccessToken("openid-1")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if _, err := svc.ValidateAdminToken(userToken); err == nil {
		t.Fatal("user token accepted as admin token")
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{name: "valid bearer", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "missing header", header: "", wantErr: true},
		{name: "missing prefix", header: "abc.def.ghi", wantErr: true},
		{name: "wrong scheme", header: "Basic abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractBearerToken(tt.header)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractBearerToken() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("ExtractBearerToken() = %q, want %q", got, tt.want)
			}
		})
	}
}
