package wechat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/SF-ND-NEW/miniapp-backend/internal/pkg/apperrors"
)

// DefaultEndpoint is the WeChat code2session endpoint
const DefaultEndpoint = "https://api.weixin.qq.com/sns/jscode2session"

// Config holds the miniapp credentials used for the code exchange
type Config struct {
	AppID    string
	Secret   string
	Endpoint string
}

// Client exchanges miniapp login codes for stable openids
type Client struct {
	config Config
	http   *http.Client
}

// NewClient creates a new WeChat client
func NewClient(config Config) *Client {
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}
	return &Client{
		config: config,
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

// sessionResponse is the jscode2session payload. ErrCode is zero on success.
type sessionResponse struct {
	OpenID     string `json:"openid"`
	SessionKey string `json:"session_key"`
	ErrCode    int    `json:"errcode"`
	ErrMsg     string `json:"errmsg"`
}

// Code2Session exchanges a login code for the user's openid.
// The openid is treated as opaque; no further validation happens here.
func (c *Client) Code2Session(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", apperrors.ErrValidationFailed
	}

	params := url.Values{}
	params.Set("appid", c.config.AppID)
	params.Set("secret", c.config.Secret)
	params.Set("js_code", code)
	params.Set("grant_type", "authorization_code")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build wechat request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: wechat login request failed: %v", apperrors.ErrExternalService, err)
	}
	defer resp.Body.Close()

	var session sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return "", fmt.Errorf("%w: failed to decode wechat response: %v", apperrors.ErrExternalService, err)
	}

	if session.ErrCode != 0 {
		return "", fmt.Errorf("%w: wechat login failed: %s", apperrors.ErrInvalidCredentials, session.ErrMsg)
	}

	if session.OpenID == "" {
		return "", fmt.Errorf("%w: wechat response missing openid", apperrors.ErrExternalService)
	}

	return session.OpenID, nil
}
