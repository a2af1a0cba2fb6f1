package entities

import (
	"encoding/json"
	"strings"
	"time"

	"wayfinder/domain/core/valueobjects"
	"wayfinder/domain/events"
	pkgerrors "wayfinder/pkg/errors"
)

// Map describes a floor-plan image. It is immutable once created.
type Map struct {
	id             valueobjects.MapID
	name           string
	width          int
	height         int
	pixelsPerMeter float64
	imageURL       string
	createdAt      time.Time

	events []events.DomainEvent
}

// NewMap creates a map descriptor
func NewMap(name string, width, height int, pixelsPerMeter float64, imageURL string) (*Map, error) {
	name = strings.TrimSpace(name)
	errs := pkgerrors.NewFieldErrors()
	if name == "" {
		errs.Add("name", "name is required")
	}
	if width <= 0 || height <= 0 {
		errs.Add("size", "width and height must be positive")
	}
	if pixelsPerMeter < 0 {
		errs.Add("pixels_per_meter", "pixels_per_meter cannot be negative")
	}
	if appErr := errs.AsAppError(); appErr != nil {
		return nil, appErr
	}

	now := time.Now().UTC()
	m := &Map{
		id:             valueobjects.NewMapID(),
		name:           name,
		width:          width,
		height:         height,
		pixelsPerMeter: pixelsPerMeter,
		imageURL:       imageURL,
		createdAt:      now,
	}
	m.events = append(m.events, events.NewMapCreated(m.id, name, now))
	return m, nil
}

// ReconstructMap rebuilds a map from stored data
func ReconstructMap(id valueobjects.MapID, name string, width, height int, pixelsPerMeter float64, imageURL string, createdAt time.Time) *Map {
	return &Map{
		id:             id,
		name:           name,
		width:          width,
		height:         height,
		pixelsPerMeter: pixelsPerMeter,
		imageURL:       imageURL,
		createdAt:      createdAt,
	}
}

func (m *Map) ID() valueobjects.MapID    { return m.id }
func (m *Map) Name() string              { return m.name }
func (m *Map) Width() int                { return m.width }
func (m *Map) Height() int               { return m.height }
func (m *Map) PixelsPerMeter() float64   { return m.pixelsPerMeter }
func (m *Map) ImageURL() string          { return m.imageURL }
func (m *Map) CreatedAt() time.Time      { return m.createdAt }

// Contains reports whether a point lies inside the image bounds
func (m *Map) Contains(p valueobjects.Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X <= float64(m.width) && p.Y <= float64(m.height)
}

// PixelsToMeters converts an image distance, returning false without a scale
func (m *Map) PixelsToMeters(px float64) (float64, bool) {
	if m.pixelsPerMeter <= 0 {
		return 0, false
	}
	return px / m.pixelsPerMeter, true
}

// Clone returns a detached copy without pending events
func (m *Map) Clone() *Map {
	return ReconstructMap(m.id, m.name, m.width, m.height, m.pixelsPerMeter, m.imageURL, m.createdAt)
}

// GetUncommittedEvents returns events raised since the last commit
func (m *Map) GetUncommittedEvents() []events.DomainEvent { return m.events }

// MarkEventsAsCommitted clears the pending events
func (m *Map) MarkEventsAsCommitted() { m.events = nil }

type mapJSON struct {
	ID             valueobjects.MapID `json:"id"`
	Name           string             `json:"name"`
	Width          int                `json:"width"`
	Height         int                `json:"height"`
	PixelsPerMeter float64            `json:"pixels_per_meter"`
	ImageURL       string             `json:"image_url"`
	CreatedAt      *time.Time         `json:"created_at,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (m *Map) MarshalJSON() ([]byte, error) {
	out := mapJSON{
		ID:             m.id,
		Name:           m.name,
		Width:          m.width,
		Height:         m.height,
		PixelsPerMeter: m.pixelsPerMeter,
		ImageURL:       m.imageURL,
	}
	if !m.createdAt.IsZero() {
		out.CreatedAt = &m.createdAt
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler
func (m *Map) UnmarshalJSON(data []byte) error {
	var in mapJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*m = Map{
		id:             in.ID,
		name:           in.Name,
		width:          in.Width,
		height:         in.Height,
		pixelsPerMeter: in.PixelsPerMeter,
		imageURL:       in.ImageURL,
	}
	if in.CreatedAt != nil {
		m.createdAt = *in.CreatedAt
	}
	return nil
}
