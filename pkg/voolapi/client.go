package voolapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const DefaultBaseURL = "https://api.vool.com"

// Client is the per-device cloud API contract. One instance per device id;
// the instance owns its bearer token and its persistent HTTP session.
type Client interface {
	// Authenticate obtains a fresh bearer token. Returns ErrInvalidAuth if
	// the service rejects the credentials, a transient error otherwise.
	Authenticate(ctx context.Context) error
	// GetDeviceStatus fetches the live status, re-authenticating at most
	// once if the stored token is missing or expired.
	GetDeviceStatus(ctx context.Context) (*DeviceStatus, error)
	DeviceID() string
	// Close releases the persistent session. Safe to call multiple times.
	Close()
}

type HTTPClient struct {
	baseURL  string
	email    string
	password string
	deviceID string
	timeout  time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	token   string
	session *http.Client
}

func CreateHTTPClient(baseURL, email, password, deviceID string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &HTTPClient{
		baseURL:  baseURL,
		email:    email,
		password: password,
		deviceID: deviceID,
		timeout:  timeout,
		logger:   logger.With(zap.String("device_id", deviceID)),
	}
}

func (c *HTTPClient) DeviceID() string {
	return c.deviceID
}

func (c *HTTPClient) Authenticate(ctx context.Context) error {
	token, err := c.login(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return nil
}

// login posts credentials to the auth endpoint on a fresh session. Any
// non-200 response is an auth rejection.
func (c *HTTPClient) login(ctx context.Context) (string, error) {
	body, err := json.Marshal(loginRequest{Email: c.email, Password: c.password})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	httpClient := &http.Client{Timeout: c.timeout}
	defer httpClient.CloseIdleConnections()

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("login rejected", zap.Int("status", resp.StatusCode))
		return "", fmt.Errorf("login status %d: %w", resp.StatusCode, ErrInvalidAuth)
	}
	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return "", fmt.Errorf("login: decode response: %w", err)
	}
	if lr.Token == "" {
		return "", fmt.Errorf("login: no token in response: %w", ErrInvalidAuth)
	}
	return lr.Token, nil
}

func (c *HTTPClient) GetDeviceStatus(ctx context.Context) (*DeviceStatus, error) {
	c.mu.Lock()
	expired := tokenExpired(c.token, time.Now())
	c.mu.Unlock()

	if expired {
		// single lazy re-auth; on failure no status call is made
		if err := c.Authenticate(ctx); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	token := c.token
	if c.session == nil {
		c.session = &http.Client{Timeout: c.timeout}
	}
	session := c.session
	c.mu.Unlock()

	url := fmt.Sprintf("%s/v2/devices/%s/status", c.baseURL, c.deviceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := session.Do(req)
	if err != nil {
		return nil, fmt.Errorf("device status: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var status DeviceStatus
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			return nil, fmt.Errorf("device status: decode response: %w", err)
		}
		return &status, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		c.logger.Warn("device status rejected", zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("device status %d: %w", resp.StatusCode, ErrInvalidAuth)
	default:
		c.logger.Warn("device status failed", zap.Int("status", resp.StatusCode))
		return nil, &StatusError{Code: resp.StatusCode}
	}
}

func (c *HTTPClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		c.session.CloseIdleConnections()
		c.session = nil
	}
}

// tokenExpired decodes the token claims without verifying the signature.
// The token is only a carrier here; the service vouches for it. A token
// that cannot be decoded or has no exp claim counts as expired.
func tokenExpired(token string, now time.Time) bool {
	if token == "" {
		return true
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return now.After(exp.Time)
}
