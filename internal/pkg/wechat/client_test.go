package wechat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SF-ND-NEW/miniapp-backend/internal/pkg/apperrors"
)

func TestCode2Session(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("appid") != "wx-app" || q.Get("secret") != "wx-secret" {
			t.Errorf("credentials = (%q, %q)", q.Get("appid"), q.Get("secret"))
		}
		if q.Get("js_code") != "the-code" || q.Get("grant_type") != "authorization_code" {
			t.Errorf("query = %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"openid": "openid-1", "session_key": "sk"}`))
	}))
	defer server.Close()

	client := NewClient(Config{AppID: "wx-app", Secret: "wx-secret", Endpoint: server.URL})

	openid, err := client.Code2Session(context.Background(), "the-code")
	if err != nil {
		t.Fatalf("Code2Session() error = %v", err)
	}
	if openid != "openid-1" {
		t.Fatalf("openid = %q, want openid-1", openid)
	}
}

func TestCode2SessionRejectedCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"errcode": 40029, "errmsg": "invalid code"}`))
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL})

	if _, err := client.Code2Session(context.Background(), "bad"); !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Fatalf("Code2Session() error = %v, want ErrInvalidCredentials", err)
	}
}

func TestCode2SessionMissingOpenID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"session_key": "sk"}`))
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL})

	if _, err := client.Code2Session(context.Background(), "code"); !errors.Is(err, apperrors.ErrExternalService) {
		t.Fatalf("Code2Session() error = %v, want ErrExternalService", err)
	}
}

func TestCode2SessionEmptyCode(t *testing.T) {
	client := NewClient(Config{})

	if _, err := client.Code2Session(context.Background(), ""); !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Fatalf("Code2Session(\"\") error = %v, want ErrValidationFailed", err)
	}
}
