// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backup

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/catch-backup/pkg/types"
)

func at(year int, month time.Month, day, hour, min, sec, nsec int) *time.Time {
	t := time.Date(year, month, day, hour, min, sec, nsec, time.UTC)
	return &t
}

func TestNoteFilename(t *testing.T) {
	created := at(2020, 1, 2, 3, 4, 5, 0)
	tests := []struct {
		name string
		note types.Note
		want string
	}{
		{
			name: "punctuation stripped",
			note: types.Note{ID: "abc", Text: "Hello, World! 123", CreatedAt: created},
			want: "HelloWorld123-abc-20200102-030405.txt",
		},
		{
			name: "only first line used",
			note: types.Note{ID: "abc", Text: "Groceries\nmilk\neggs", CreatedAt: created},
			want: "Groceries-abc-20200102-030405.txt",
		},
		{
			name: "carriage return ends the line",
			note: types.Note{ID: "abc", Text: "Title\r\nbody", CreatedAt: created},
			want: "Title-abc-20200102-030405.txt",
		},
		{
			name: "truncated to 32 characters",
			note: types.Note{ID: "abc", Text: strings.Repeat("ab-", 20), CreatedAt: created},
			want: strings.Repeat("ab", 16) + "-abc-20200102-030405.txt",
		},
		{
			name: "empty text has no prefix",
			note: types.Note{ID: "abc", CreatedAt: created},
			want: "abc-20200102-030405.txt",
		},
		{
			name: "non-ascii only title has no prefix",
			note: types.Note{ID: "abc", Text: "¡¿… ñ ü!", CreatedAt: created},
			want: "abc-20200102-030405.txt",
		},
		{
			name: "blank first line has no prefix",
			note: types.Note{ID: "abc", Text: "\nSecond line", CreatedAt: created},
			want: "abc-20200102-030405.txt",
		},
		{
			name: "falls back to modified time",
			note: types.Note{ID: "abc", Text: "x", ModifiedAt: at(2021, 12, 31, 23, 59, 58, 0)},
			want: "x-abc-20211231-235958.txt",
		},
		{
			name: "falls back to epoch",
			note: types.Note{ID: "abc", Text: "x"},
			want: "x-abc-19700101-000000.txt",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NoteFilename(tt.note))
		})
	}
}

func TestMediaExtension(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"image/jpeg", ".jpg"},
		{"IMAGE/JPEG", ".jpg"},
		{"image/jpeg; name=photo", ".jpg"},
		{"image/png", ".png"},
		{"audio/mpeg", ".mp3"},
		{"text/plain", ".txt"},
		{"application/x-no-such-type", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, MediaExtension(tt.contentType))
		})
	}
}

func TestMediaFilename(t *testing.T) {
	assert.Equal(t, "abc-0.jpg", MediaFilename("abc", 0, "image/jpeg"))
	assert.Equal(t, "abc-3", MediaFilename("abc", 3, "application/x-no-such-type"))
}

func TestOriginalURL(t *testing.T) {
	got, err := originalURL("https://media.example/n/1")
	require.NoError(t, err)
	assert.Equal(t, "https://media.example/n/1?original=true", got)

	got, err = originalURL("https://media.example/n/1?sig=x")
	require.NoError(t, err)
	assert.Equal(t, "https://media.example/n/1?sig=x&original=true", got)

	got, err = originalURL("https://media.example/n/1?z=2&a=%2F&flag")
	require.NoError(t, err)
	assert.Equal(t, "https://media.example/n/1?z=2&a=%2F&flag&original=true", got)
}

func TestRenderNote(t *testing.T) {
	note := types.Note{
		ID:         "abc",
		Text:       "Hello\nworld",
		CreatedAt:  at(2020, 1, 2, 3, 4, 5, 123456000),
		ModifiedAt: at(2020, 1, 3, 0, 0, 0, 500000000),
		Tags:       []string{"work", "idea"},
		Location: &types.Location{Features: []types.Feature{{
			Geometry: types.Geometry{Coordinates: []json.Number{"37.7749", "-122.4194"}},
		}}},
	}

	got, err := RenderNote(note, []string{"out/media/abc-0.jpg", "out/media/abc-1.png"})
	require.NoError(t, err)

	want := "\n" +
		"Created Date: 2020-01-02T03:04:05.123456Z\n" +
		"Modified Date: 2020-01-03T00:00:00.500000Z\n" +
		"Longitude: -122.4194\n" +
		"Latitude: 37.7749\n" +
		"Tags: #work #idea\n" +
		"Attachments: out/media/abc-0.jpg out/media/abc-1.png\n" +
		"\n" +
		"Hello\nworld\n"
	assert.Equal(t, want, got)
}

func TestRenderNoteMissingValuesRenderEmpty(t *testing.T) {
	got, err := RenderNote(types.Note{ID: "bare", Location: &types.Location{}}, nil)
	require.NoError(t, err)

	want := "\n" +
		"Created Date: \n" +
		"Modified Date: \n" +
		"Longitude: \n" +
		"Latitude: \n" +
		"Tags: \n" +
		"Attachments: \n" +
		"\n" +
		"\n"
	assert.Equal(t, want, got)
}

func TestRenderNoteTextIsNotEscaped(t *testing.T) {
	got, err := RenderNote(types.Note{ID: "x", Text: "<b>a & b</b> {{.Text}}"}, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(got, "\n<b>a & b</b> {{.Text}}\n"))
}

func TestRenderTags(t *testing.T) {
	assert.Equal(t, "#work #idea", renderTags([]string{"work", "idea"}))
	assert.Equal(t, "", renderTags(nil))
}
