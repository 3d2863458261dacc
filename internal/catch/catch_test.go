// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/catch-backup/internal/credentials"
	"github.com/pdiddy/catch-backup/internal/httputil"
	"github.com/pdiddy/catch-backup/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

const sampleNotesJSON = `{
  "notes": [
    {
      "id": "abc",
      "text": "Hello, World! 123\nsecond line",
      "created_at": "2020-01-02T03:04:05.123456Z",
      "modified_at": "2020-01-03T00:00:00.5Z",
      "reminder_at": "",
      "tags": ["work", "idea"],
      "location": {"features": [{"geometry": {"coordinates": [37.7749, -122.4194]}}]},
      "media": [{"src": "http://media.example/a", "content_type": "image/jpeg", "size": 2048}]
    },
    {
      "id": "def",
      "text": "no dates at all",
      "tags": [],
      "media": []
    }
  ]
}`

var testCreds = types.Credentials{Username: "alice", Password: "s3cret"}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantNil bool
		wantErr bool
	}{
		{"six fractional digits", "2011-08-03T14:22:01.123456Z", time.Date(2011, 8, 3, 14, 22, 1, 123456000, time.UTC), false, false},
		{"one fractional digit", "2011-08-03T14:22:01.5Z", time.Date(2011, 8, 3, 14, 22, 1, 500000000, time.UTC), false, false},
		{"empty is no value", "", time.Time{}, true, false},
		{"missing fraction", "2011-08-03T14:22:01Z", time.Time{}, false, true},
		{"seven fractional digits", "2011-08-03T14:22:01.1234567Z", time.Time{}, false, true},
		{"offset instead of Z", "2011-08-03T14:22:01.123+02:00", time.Time{}, false, true},
		{"date only", "2011-08-03", time.Time{}, false, true},
		{"out of range month", "2011-13-03T14:22:01.1Z", time.Time{}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrTimestampFormat)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %v, want %v", *got, tt.want)
		})
	}
}

func TestDecode(t *testing.T) {
	coll, err := Decode([]byte(sampleNotesJSON))
	require.NoError(t, err)
	require.Len(t, coll.Notes, 2)

	first := coll.Notes[0]
	assert.Equal(t, "abc", first.ID)
	require.NotNil(t, first.CreatedAt)
	assert.True(t, time.Date(2020, 1, 2, 3, 4, 5, 123456000, time.UTC).Equal(*first.CreatedAt))
	require.NotNil(t, first.ModifiedAt)
	assert.True(t, time.Date(2020, 1, 3, 0, 0, 0, 500000000, time.UTC).Equal(*first.ModifiedAt))
	assert.Nil(t, first.ReminderAt, "empty reminder must be no value, not zero time")
	assert.Equal(t, []string{"work", "idea"}, first.Tags)
	require.Len(t, first.Media, 1)
	assert.Equal(t, types.Media{Src: "http://media.example/a", ContentType: "image/jpeg", Size: 2048}, first.Media[0])

	lon, lat, ok := first.Coordinates()
	require.True(t, ok)
	assert.Equal(t, "-122.4194", lon)
	assert.Equal(t, "37.7749", lat)

	second := coll.Notes[1]
	assert.Equal(t, "def", second.ID)
	assert.Nil(t, second.CreatedAt)
	assert.Nil(t, second.ModifiedAt)
	assert.Nil(t, second.ReminderAt)
	assert.Nil(t, second.Location)
}

func TestDecodeMediaSize(t *testing.T) {
	tests := []struct {
		name string
		size string
		want int64
	}{
		{name: "integer", size: `2048`, want: 2048},
		{name: "float", size: `2048.0`, want: 2048},
		{name: "fraction truncated", size: `2048.9`, want: 2048},
		{name: "quoted integer", size: `"2048"`, want: 2048},
		{name: "quoted float", size: `"2048.0"`, want: 2048},
		{name: "exponent", size: `2.048e3`, want: 2048},
		{name: "null", size: `null`, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := `{"notes":[{"id":"m1","media":[{"src":"http://media.example/a","content_type":"image/png","size":` + tt.size + `}]}]}`
			coll, err := Decode([]byte(raw))
			require.NoError(t, err)
			require.Len(t, coll.Notes, 1)
			require.Len(t, coll.Notes[0].Media, 1)
			assert.Equal(t, tt.want, coll.Notes[0].Media[0].Size)
		})
	}
}

func TestDecodeNoteCountMatchesSource(t *testing.T) {
	var notes []map[string]any
	for i := 0; i < 25; i++ {
		notes = append(notes, map[string]any{
			"id":         fmt.Sprintf("n%02d", i),
			"created_at": "2021-05-06T07:08:09.000001Z",
		})
	}
	raw, err := json.Marshal(map[string]any{"notes": notes})
	require.NoError(t, err)

	coll, err := Decode(raw)
	require.NoError(t, err)
	require.Len(t, coll.Notes, 25)
	for i, n := range coll.Notes {
		assert.Equal(t, fmt.Sprintf("n%02d", i), n.ID, "order must be preserved")
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
		errMsg  string
	}{
		{
			name:    "malformed timestamp",
			raw:     `{"notes":[{"id":"x1","modified_at":"yesterday"}]}`,
			wantErr: ErrTimestampFormat,
			errMsg:  "note x1: modified_at",
		},
		{
			name:   "missing id",
			raw:    `{"notes":[{"text":"orphan"}]}`,
			errMsg: "has no id",
		},
		{
			name:   "non-numeric media size",
			raw:    `{"notes":[{"id":"x1","media":[{"src":"s","size":"big"}]}]}`,
			errMsg: "media size",
		},
		{
			name:   "invalid json",
			raw:    `{"notes":`,
			errMsg: "parsing notes response",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestBasicAuth(t *testing.T) {
	// base64("alice:s3cret")
	assert.Equal(t, "Basic YWxpY2U6czNjcmV0", BasicAuth(testCreds))
}

func TestFetchNotes(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/notes.json", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("full"))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "alice", user)
		assert.Equal(t, "s3cret", pass)
		assert.Equal(t, "catch-backup-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, sampleNotesJSON)
	}))
	defer ts.Close()

	c := NewClient(types.APIConfig{
		BaseURL:    ts.URL,
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "catch-backup-test"},
	})

	snap, err := c.FetchNotes(context.Background(), testCreds)
	require.NoError(t, err)
	assert.Equal(t, []byte(sampleNotesJSON), snap.Raw, "raw body must be kept byte for byte")
	assert.Len(t, snap.Collection.Notes, 2)
}

func TestFetchNotesStatusError(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	c := NewClient(types.APIConfig{BaseURL: ts.URL})
	snap, err := c.FetchNotes(context.Background(), testCreds)
	assert.Nil(t, snap)

	var se *HTTPStatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
	assert.Equal(t, "Unauthorized", se.Reason)
	assert.Equal(t, "401 response from server. Reason: Unauthorized", se.Error())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "client errors are not retried")
}

func TestFetchNotesRetriesUnavailable(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, sampleNotesJSON)
	}))
	defer ts.Close()

	c := NewClient(types.APIConfig{BaseURL: ts.URL + "/"})
	snap, err := c.FetchNotes(context.Background(), testCreds)
	require.NoError(t, err)
	assert.Len(t, snap.Collection.Notes, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFetchNotesRequiresCredentials(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer ts.Close()

	c := NewClient(types.APIConfig{BaseURL: ts.URL})

	_, err := c.FetchNotes(context.Background(), types.Credentials{Password: "pw"})
	assert.ErrorIs(t, err, credentials.ErrUsernameRequired)
	_, err = c.FetchNotes(context.Background(), types.Credentials{Username: "alice"})
	assert.ErrorIs(t, err, credentials.ErrPasswordRequired)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestFetchNotesMalformedTimestamp(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"notes":[{"id":"bad","created_at":"2020-01-02 03:04:05"}]}`)
	}))
	defer ts.Close()

	c := NewClient(types.APIConfig{BaseURL: ts.URL})
	_, err := c.FetchNotes(context.Background(), testCreds)
	assert.ErrorIs(t, err, ErrTimestampFormat)
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(types.APIConfig{})
	assert.Equal(t, DefaultBaseURL, c.BaseURL)
	assert.Equal(t, defaultUserAgent, c.UserAgent)
	assert.Equal(t, defaultTimeout, c.HTTPClient.Timeout)
}
