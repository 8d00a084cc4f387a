package voolapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func testTokenNoExp(t *testing.T) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

type apiStub struct {
	loginCalls  int
	statusCalls int

	loginStatus  int
	token        string
	statusStatus int
	statusBody   DeviceStatus
}

func (s *apiStub) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/auth/login":
			s.loginCalls++
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			var body loginRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.NotEmpty(t, body.Email)
			if s.loginStatus != http.StatusOK {
				w.WriteHeader(s.loginStatus)
				return
			}
			json.NewEncoder(w).Encode(loginResponse{Token: s.token})
		case "/v2/devices/dev-1/status":
			s.statusCalls++
			assert.Equal(t, "Bearer "+s.token, r.Header.Get("Authorization"))
			if s.statusStatus != http.StatusOK {
				w.WriteHeader(s.statusStatus)
				return
			}
			json.NewEncoder(w).Encode(s.statusBody)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func newStubClient(t *testing.T, stub *apiStub) (*HTTPClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(stub.handler(t))
	client := CreateHTTPClient(server.URL, "user@example.com", "hunter2", "dev-1", 2*time.Second, zap.NewNop())
	return client, server
}

func TestAuthenticateStoresToken(t *testing.T) {
	stub := &apiStub{loginStatus: http.StatusOK, token: testToken(t, time.Now().Add(time.Hour))}
	client, server := newStubClient(t, stub)
	defer server.Close()

	err := client.Authenticate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stub.loginCalls)
	assert.False(t, tokenExpired(client.token, time.Now()), "stored token has future exp")
}

func TestAuthenticateRejected(t *testing.T) {
	stub := &apiStub{loginStatus: http.StatusUnauthorized}
	client, server := newStubClient(t, stub)
	defer server.Close()

	err := client.Authenticate(context.Background())
	require.Error(t, err)
	assert.True(t, IsInvalidAuth(err))
}

func TestAuthenticateNetworkError(t *testing.T) {
	client := CreateHTTPClient("http://127.0.0.1:1", "user@example.com", "hunter2", "dev-1", 200*time.Millisecond, zap.NewNop())

	err := client.Authenticate(context.Background())
	require.Error(t, err)
	assert.False(t, IsInvalidAuth(err), "network error is transient, not invalid auth")
}

func TestGetDeviceStatusExpiredTokenReauthsOnce(t *testing.T) {
	stub := &apiStub{
		loginStatus:  http.StatusOK,
		token:        testToken(t, time.Now().Add(time.Hour)),
		statusStatus: http.StatusOK,
		statusBody:   TestDeviceStatus("2.0.1"),
	}
	client, server := newStubClient(t, stub)
	defer server.Close()

	client.token = testToken(t, time.Now().Add(-time.Hour))

	status, err := client.GetDeviceStatus(context.Background())
	require.NoError(t, err)
	require.NotNil(t, status)

	assert.Equal(t, 1, stub.loginCalls, "exactly one re-auth before the status call")
	assert.Equal(t, 1, stub.statusCalls)
	assert.Equal(t, "2.0.1", status.DeviceStatus.FirmwareVersion)
	require.NotNil(t, status.FirstConnector())
	require.NotNil(t, status.FirstConnector().ActivePowerKW)
	assert.InDelta(t, 7.4, *status.FirstConnector().ActivePowerKW, 0.001)
}

func TestGetDeviceStatusValidTokenSkipsLogin(t *testing.T) {
	stub := &apiStub{
		token:        testToken(t, time.Now().Add(time.Hour)),
		statusStatus: http.StatusOK,
		statusBody:   TestDeviceStatus("2.0.1"),
	}
	client, server := newStubClient(t, stub)
	defer server.Close()

	client.token = stub.token

	_, err := client.GetDeviceStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stub.loginCalls)
	assert.Equal(t, 1, stub.statusCalls)
}

func TestGetDeviceStatusFailedReauthSkipsStatusCall(t *testing.T) {
	stub := &apiStub{loginStatus: http.StatusUnauthorized}
	client, server := newStubClient(t, stub)
	defer server.Close()

	status, err := client.GetDeviceStatus(context.Background())
	require.Error(t, err)
	assert.Nil(t, status)
	assert.True(t, IsInvalidAuth(err))
	assert.Equal(t, 1, stub.loginCalls)
	assert.Equal(t, 0, stub.statusCalls, "no authenticated GET without a token")
}

func TestGetDeviceStatusTokenRejected(t *testing.T) {
	stub := &apiStub{
		token:        testToken(t, time.Now().Add(time.Hour)),
		statusStatus: http.StatusUnauthorized,
	}
	client, server := newStubClient(t, stub)
	defer server.Close()

	client.token = stub.token

	_, err := client.GetDeviceStatus(context.Background())
	require.Error(t, err)
	assert.True(t, IsInvalidAuth(err))
}

func TestGetDeviceStatusServerError(t *testing.T) {
	stub := &apiStub{
		token:        testToken(t, time.Now().Add(time.Hour)),
		statusStatus: http.StatusServiceUnavailable,
	}
	client, server := newStubClient(t, stub)
	defer server.Close()

	client.token = stub.token

	_, err := client.GetDeviceStatus(context.Background())
	require.Error(t, err)
	assert.False(t, IsInvalidAuth(err))

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
}

func TestCloseIsIdempotent(t *testing.T) {
	stub := &apiStub{
		token:        testToken(t, time.Now().Add(time.Hour)),
		statusStatus: http.StatusOK,
		statusBody:   TestDeviceStatus("2.0.1"),
	}
	client, server := newStubClient(t, stub)
	defer server.Close()

	client.token = stub.token

	// open the persistent session
	_, err := client.GetDeviceStatus(context.Background())
	require.NoError(t, err)
	require.NotNil(t, client.session)

	client.Close()
	assert.Nil(t, client.session)
	client.Close()

	// never opened: also a no-op
	fresh := CreateHTTPClient(server.URL, "a@b.c", "pw", "dev-1", time.Second, zap.NewNop())
	fresh.Close()
	fresh.Close()
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()

	assert.True(t, tokenExpired("", now), "missing token")
	assert.True(t, tokenExpired("not-a-jwt", now), "undecodable token")
	assert.True(t, tokenExpired(testTokenNoExp(t), now), "missing exp claim")
	assert.True(t, tokenExpired(testToken(t, now.Add(-time.Minute)), now), "past exp")
	assert.False(t, tokenExpired(testToken(t, now.Add(time.Minute)), now), "future exp")
}
