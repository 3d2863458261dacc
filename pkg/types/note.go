// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"time"
)

// Credentials authenticate a single API request. They are never persisted.
type Credentials struct {
	Username string
	Password string
}

// Collection is the normalized notes payload, in the order the service
// returned it.
type Collection struct {
	Notes []Note `json:"notes" yaml:"notes"`
}

// Note is a single note with its timestamps parsed. A nil timestamp means
// the service sent no value.
type Note struct {
	// ID is the service identifier. It is always present.
	ID string `json:"id" yaml:"id"`

	// Text is the free-text body. The first line doubles as a title.
	Text string `json:"text" yaml:"text"`

	CreatedAt  *time.Time `json:"created_at" yaml:"created_at"`
	ModifiedAt *time.Time `json:"modified_at" yaml:"modified_at"`
	ReminderAt *time.Time `json:"reminder_at" yaml:"reminder_at"`

	// Tags lists the note's tags in service order, without the leading '#'.
	Tags []string `json:"tags" yaml:"tags"`

	// Location is the optional geotag of the note.
	Location *Location `json:"location,omitempty" yaml:"location,omitempty"`

	// Media lists attachments in service order. An attachment is identified
	// only by its position in this slice.
	Media []Media `json:"media" yaml:"media"`
}

// Location is the GeoJSON-like feature collection attached to a note.
type Location struct {
	Features []Feature `json:"features" yaml:"features"`
}

// Feature is one GeoJSON feature.
type Feature struct {
	Geometry Geometry `json:"geometry" yaml:"geometry"`
}

// Geometry holds a point. Coordinates keep their JSON text so they render
// with the precision the service sent.
type Geometry struct {
	Coordinates []json.Number `json:"coordinates" yaml:"coordinates"`
}

// Media references an attachment stored by the service.
type Media struct {
	Src         string `json:"src" yaml:"src"`
	ContentType string `json:"content_type" yaml:"content_type"`
	Size        int64  `json:"size" yaml:"size"`
}

// Coordinates returns the first feature's coordinate pair as rendered in
// exports. Longitude is taken from index 1 and latitude from index 0, which
// is the order exported files have always used. ok is false when the note
// has no usable point.
func (n Note) Coordinates() (longitude, latitude string, ok bool) {
	if n.Location == nil || len(n.Location.Features) == 0 {
		return "", "", false
	}
	c := n.Location.Features[0].Geometry.Coordinates
	if len(c) < 2 {
		return "", "", false
	}
	return c[1].String(), c[0].String(), true
}
