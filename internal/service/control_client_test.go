package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchControlFlags(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"message":"ok","data":{"panic_mode":false,"stop_spam":true,"mailing_enabled":true,"machine_enabled":true}}`))
	}))
	defer srv.Close()

	client := NewControlClient(srv.URL, "secret-token")
	flags, err := client.FetchControlFlags(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/api/machine/flags", gotPath)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.True(t, flags.StopSpam)
	assert.True(t, flags.MailingEnabled)
	assert.False(t, flags.PanicMode)
}

func TestFetchControlFlagsRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"machine not registered"}`))
	}))
	defer srv.Close()

	client := NewControlClient(srv.URL, "")
	_, err := client.FetchControlFlags(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "machine not registered")
}

func TestFetchControlFlagsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewControlClient(srv.URL, "")
	_, err := client.FetchControlFlags(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestFetchControlFlagsUnreachable(t *testing.T) {
	client := NewControlClient("http://127.0.0.1:1", "")
	_, err := client.FetchControlFlags(context.Background())
	assert.Error(t, err)
}

func TestFetchProfilePermission(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(`{"success":true,"data":{"ai_enabled":false,"reason":"no owner assigned","owner_name":""}}`))
	}))
	defer srv.Close()

	client := NewControlClient(srv.URL, "")
	perm, err := client.FetchProfilePermission(context.Background(), "alice 01")
	require.NoError(t, err)

	assert.Equal(t, "/api/profiles/alice%2001/ai-permission", gotPath)
	assert.False(t, perm.AIEnabled)
	assert.Equal(t, "no owner assigned", perm.Reason)
}

func TestFetchProfilePermissionNoToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"success":true,"data":{"ai_enabled":true}}`))
	}))
	defer srv.Close()

	client := NewControlClient(srv.URL, "")
	perm, err := client.FetchProfilePermission(context.Background(), "bella02")
	require.NoError(t, err)
	assert.True(t, perm.AIEnabled)
}
