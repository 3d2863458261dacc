// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catch

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/catch-backup/pkg/types"
)

// TimestampLayout is the wire format of note timestamps, with a fractional
// part of one to six digits and a literal Z. Exports render timestamps with
// exactly six fractional digits.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// ErrTimestampFormat is wrapped by every TimestampFormatError.
var ErrTimestampFormat = errors.New("malformed timestamp")

// timestampPattern enforces the fractional part, which time.Parse treats as
// optional.
var timestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{1,6}Z$`)

// TimestampFormatError reports a timestamp that does not match
// TimestampLayout.
type TimestampFormatError struct {
	NoteID string
	Field  string
	Value  string
	Err    error
}

func (e *TimestampFormatError) Error() string {
	var b strings.Builder
	if e.NoteID != "" {
		fmt.Fprintf(&b, "note %s: ", e.NoteID)
	}
	if e.Field != "" {
		b.WriteString(e.Field + " ")
	}
	fmt.Fprintf(&b, "%q: %v", e.Value, ErrTimestampFormat)
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *TimestampFormatError) Unwrap() error { return ErrTimestampFormat }

// ParseTimestamp parses a wire timestamp. An empty string yields nil.
func ParseTimestamp(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if !timestampPattern.MatchString(s) {
		return nil, &TimestampFormatError{Value: s}
	}
	t, err := time.Parse("2006-01-02T15:04:05Z", s)
	if err != nil {
		return nil, &TimestampFormatError{Value: s, Err: err}
	}
	return &t, nil
}

// wireCollection mirrors the response body with timestamps still textual.
type wireCollection struct {
	Notes []wireNote `json:"notes"`
}

type wireNote struct {
	ID         string          `json:"id"`
	Text       string          `json:"text"`
	CreatedAt  *string         `json:"created_at"`
	ModifiedAt *string         `json:"modified_at"`
	ReminderAt *string         `json:"reminder_at"`
	Tags       []string        `json:"tags"`
	Location   *types.Location `json:"location"`
	Media      []wireMedia     `json:"media"`
}

type wireMedia struct {
	Src         string    `json:"src"`
	ContentType string    `json:"content_type"`
	Size        mediaSize `json:"size"`
}

// mediaSize is a byte count the service may send as an integer, a float or
// a quoted number. Fractions are truncated.
type mediaSize int64

func (s *mediaSize) UnmarshalJSON(b []byte) error {
	text := strings.TrimSpace(string(b))
	if text == "null" {
		*s = 0
		return nil
	}
	if strings.HasPrefix(text, `"`) {
		if err := json.Unmarshal(b, &text); err != nil {
			return err
		}
		text = strings.TrimSpace(text)
	}
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		*s = mediaSize(n)
		return nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("media size %s is not a number", b)
	}
	*s = mediaSize(f)
	return nil
}

// Decode parses a raw notes response and normalizes every note's
// timestamps. A malformed timestamp fails the whole decode.
func Decode(raw []byte) (types.Collection, error) {
	var wc wireCollection
	if err := json.Unmarshal(raw, &wc); err != nil {
		return types.Collection{}, fmt.Errorf("parsing notes response: %w", err)
	}

	coll := types.Collection{Notes: make([]types.Note, 0, len(wc.Notes))}
	for i, wn := range wc.Notes {
		n, err := normalizeNote(wn)
		if err != nil {
			return types.Collection{}, err
		}
		if n.ID == "" {
			return types.Collection{}, fmt.Errorf("parsing notes response: note %d has no id", i)
		}
		coll.Notes = append(coll.Notes, n)
	}
	return coll, nil
}

func normalizeNote(wn wireNote) (types.Note, error) {
	n := types.Note{
		ID:       wn.ID,
		Text:     wn.Text,
		Tags:     wn.Tags,
		Location: wn.Location,
	}
	if wn.Media != nil {
		n.Media = make([]types.Media, len(wn.Media))
		for i, m := range wn.Media {
			n.Media[i] = types.Media{Src: m.Src, ContentType: m.ContentType, Size: int64(m.Size)}
		}
	}

	fields := []struct {
		name string
		src  *string
		dst  **time.Time
	}{
		{"created_at", wn.CreatedAt, &n.CreatedAt},
		{"modified_at", wn.ModifiedAt, &n.ModifiedAt},
		{"reminder_at", wn.ReminderAt, &n.ReminderAt},
	}
	for _, f := range fields {
		if f.src == nil {
			continue
		}
		t, err := ParseTimestamp(*f.src)
		if err != nil {
			var tfe *TimestampFormatError
			if errors.As(err, &tfe) {
				tfe.NoteID = wn.ID
				tfe.Field = f.name
			}
			return types.Note{}, err
		}
		*f.dst = t
	}
	return n, nil
}
