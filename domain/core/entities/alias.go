package entities

import (
	"encoding/json"
	"time"

	"wayfinder/domain/core/valueobjects"
	"wayfinder/domain/events"
	pkgerrors "wayfinder/pkg/errors"
)

// DefaultAliasLang is the language tag given to aliases created without one
const DefaultAliasLang = "vi"

// Alias binds a searchable name to a node
type Alias struct {
	id        valueobjects.AliasID
	nodeID    valueobjects.NodeID
	name      valueobjects.AliasName
	lang      string
	weight    float64
	createdAt time.Time

	events []events.DomainEvent
}

// NewAlias creates an alias for a node
func NewAlias(nodeID valueobjects.NodeID, name valueobjects.AliasName, lang string, weight float64) (*Alias, error) {
	if nodeID.IsZero() {
		return nil, pkgerrors.NewValidationError("node ID cannot be empty")
	}
	if name.Display() == "" {
		return nil, pkgerrors.NewValidationError("alias name cannot be empty")
	}
	if lang == "" {
		lang = DefaultAliasLang
	}
	if weight <= 0 {
		weight = 1
	}

	now := time.Now().UTC()
	a := &Alias{
		id:        valueobjects.NewAliasID(),
		nodeID:    nodeID,
		name:      name,
		lang:      lang,
		weight:    weight,
		createdAt: now,
	}
	a.events = append(a.events, events.NewAliasCreated(a.id, nodeID, name.Display(), now))
	return a, nil
}

// ReconstructAlias rebuilds an alias from stored data
func ReconstructAlias(id valueobjects.AliasID, nodeID valueobjects.NodeID, name valueobjects.AliasName, lang string, weight float64, createdAt time.Time) *Alias {
	return &Alias{
		id:        id,
		nodeID:    nodeID,
		name:      name,
		lang:      lang,
		weight:    weight,
		createdAt: createdAt,
	}
}

func (a *Alias) ID() valueobjects.AliasID     { return a.id }
func (a *Alias) NodeID() valueobjects.NodeID  { return a.nodeID }
func (a *Alias) Name() string                 { return a.name.Display() }
func (a *Alias) NormName() string             { return a.name.Normalized() }
func (a *Alias) Lang() string                 { return a.lang }
func (a *Alias) Weight() float64              { return a.weight }
func (a *Alias) CreatedAt() time.Time         { return a.createdAt }

// Clone returns a detached copy without pending events
func (a *Alias) Clone() *Alias {
	return ReconstructAlias(a.id, a.nodeID, a.name, a.lang, a.weight, a.createdAt)
}

// GetUncommittedEvents returns events raised since the last commit
func (a *Alias) GetUncommittedEvents() []events.DomainEvent { return a.events }

// MarkEventsAsCommitted clears the pending events
func (a *Alias) MarkEventsAsCommitted() { a.events = nil }

type aliasJSON struct {
	ID        valueobjects.AliasID `json:"id"`
	NodeID    valueobjects.NodeID  `json:"node_id"`
	Name      string               `json:"name"`
	NormName  string               `json:"norm_name"`
	Lang      string               `json:"lang"`
	Weight    float64              `json:"weight"`
	CreatedAt *time.Time           `json:"created_at,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (a *Alias) MarshalJSON() ([]byte, error) {
	out := aliasJSON{
		ID:       a.id,
		NodeID:   a.nodeID,
		Name:     a.name.Display(),
		NormName: a.name.Normalized(),
		Lang:     a.lang,
		Weight:   a.weight,
	}
	if !a.createdAt.IsZero() {
		out.CreatedAt = &a.createdAt
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler
func (a *Alias) UnmarshalJSON(data []byte) error {
	var in aliasJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*a = Alias{
		id:     in.ID,
		nodeID: in.NodeID,
		name:   valueobjects.ReconstructAliasName(in.Name, in.NormName),
		lang:   in.Lang,
		weight: in.Weight,
	}
	if in.CreatedAt != nil {
		a.createdAt = *in.CreatedAt
	}
	return nil
}
