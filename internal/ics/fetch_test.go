package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/calendar/ical/secret-token/basic.ics", 5*time.Second)
	body, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(body), "BEGIN:VCALENDAR")
}

func TestFetchNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/calendar/ical/secret-token/basic.ics", 5*time.Second)
	_, err := c.Fetch(context.Background())
	require.Error(t, err)

	var ferr *FetchError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, http.StatusForbidden, ferr.Status)
	assert.NotContains(t, err.Error(), "secret-token")
}

func TestFetchNetworkErrorRedactsURL(t *testing.T) {
	// Closed server: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL + "/calendar/ical/secret-token/basic.ics"
	srv.Close()

	c := NewClient(url, 2*time.Second)
	_, err := c.Fetch(context.Background())
	require.Error(t, err)

	var ferr *FetchError
	require.ErrorAs(t, err, &ferr)
	assert.NotContains(t, err.Error(), "secret-token")
}

func TestFetchEmptyURL(t *testing.T) {
	c := NewClient("", time.Second)
	_, err := c.Fetch(context.Background())
	var ferr *FetchError
	assert.ErrorAs(t, err, &ferr)
}

func TestRedactURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{
			"https://calendar.google.com/calendar/ical/abc123%40group/private-xyz/basic.ics",
			"https://calendar.google.com/...(redacted)",
		},
		{
			"https://example.com/feed.ics?token=abcd",
			"https://example.com/...(redacted)",
		},
		{"https://example.com", "https://example.com"},
		{"not-a-url", "feed://...(redacted)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RedactURL(tt.in))
	}
}
