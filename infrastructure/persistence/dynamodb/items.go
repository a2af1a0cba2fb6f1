package dynamodb

import (
	"time"

	"wayfinder/domain/core/entities"
	"wayfinder/domain/core/valueobjects"
)

// Single-table layout:
//
//	map    PK=MAP#<map>    SK=METADATA     GSI1PK=MAPS           GSI1SK=MAP#<map>
//	node   PK=MAP#<map>    SK=NODE#<node>  GSI1PK=NODE#<node>    GSI1SK=METADATA
//	edge   PK=MAP#<map>    SK=EDGE#<edge>  GSI1PK=EDGE#<edge>    GSI1SK=METADATA
//	alias  PK=NODE#<node>  SK=ALIAS#<id>   GSI1PK=ALIAS#<id>     GSI1SK=METADATA
//	lock   PK=LOCK#<key>   SK=LOCK
const (
	entityMap   = "MAP"
	entityNode  = "NODE"
	entityEdge  = "EDGE"
	entityAlias = "ALIAS"

	metadataSK = "METADATA"
	mapsGSI1PK = "MAPS"
	gsi1       = "GSI1"
)

func mapPK(id valueobjects.MapID) string     { return "MAP#" + id.String() }
func nodeKey(id valueobjects.NodeID) string  { return "NODE#" + id.String() }
func edgeKey(id valueobjects.EdgeID) string  { return "EDGE#" + id.String() }
func aliasKey(id valueobjects.AliasID) string { return "ALIAS#" + id.String() }

type mapItem struct {
	PK             string  `dynamodbav:"PK"`
	SK             string  `dynamodbav:"SK"`
	GSI1PK         string  `dynamodbav:"GSI1PK"`
	GSI1SK         string  `dynamodbav:"GSI1SK"`
	EntityType     string  `dynamodbav:"EntityType"`
	MapID          string  `dynamodbav:"MapID"`
	Name           string  `dynamodbav:"Name"`
	Width          int     `dynamodbav:"Width"`
	Height         int     `dynamodbav:"Height"`
	PixelsPerMeter float64 `dynamodbav:"PixelsPerMeter,omitempty"`
	ImageURL       string  `dynamodbav:"ImageURL,omitempty"`
	CreatedAt      string  `dynamodbav:"CreatedAt"`
}

type nodeItem struct {
	PK         string  `dynamodbav:"PK"`
	SK         string  `dynamodbav:"SK"`
	GSI1PK     string  `dynamodbav:"GSI1PK"`
	GSI1SK     string  `dynamodbav:"GSI1SK"`
	EntityType string  `dynamodbav:"EntityType"`
	NodeID     string  `dynamodbav:"NodeID"`
	MapID      string  `dynamodbav:"MapID"`
	Floor      int     `dynamodbav:"Floor"`
	X          float64 `dynamodbav:"X"`
	Y          float64 `dynamodbav:"Y"`
	IsLandmark bool    `dynamodbav:"IsLandmark"`
	CreatedAt  string  `dynamodbav:"CreatedAt"`
}

type pointItem struct {
	X float64 `dynamodbav:"x"`
	Y float64 `dynamodbav:"y"`
}

type edgeItem struct {
	PK            string      `dynamodbav:"PK"`
	SK            string      `dynamodbav:"SK"`
	GSI1PK        string      `dynamodbav:"GSI1PK"`
	GSI1SK        string      `dynamodbav:"GSI1SK"`
	EntityType    string      `dynamodbav:"EntityType"`
	EdgeID        string      `dynamodbav:"EdgeID"`
	MapID         string      `dynamodbav:"MapID"`
	Floor         int         `dynamodbav:"Floor"`
	StartNodeID   string      `dynamodbav:"StartNodeID"`
	EndNodeID     string      `dynamodbav:"EndNodeID"`
	Polyline      []pointItem `dynamodbav:"Polyline"`
	Weight        float64     `dynamodbav:"Weight"`
	Bidirectional bool        `dynamodbav:"Bidirectional"`
	CreatedAt     string      `dynamodbav:"CreatedAt"`
}

type aliasItem struct {
	PK         string  `dynamodbav:"PK"`
	SK         string  `dynamodbav:"SK"`
	GSI1PK     string  `dynamodbav:"GSI1PK"`
	GSI1SK     string  `dynamodbav:"GSI1SK"`
	EntityType string  `dynamodbav:"EntityType"`
	AliasID    string  `dynamodbav:"AliasID"`
	NodeID     string  `dynamodbav:"NodeID"`
	Name       string  `dynamodbav:"Name"`
	NormName   string  `dynamodbav:"NormName"`
	Lang       string  `dynamodbav:"Lang,omitempty"`
	Weight     float64 `dynamodbav:"Weight"`
	CreatedAt  string  `dynamodbav:"CreatedAt"`
}

func toMapItem(m *entities.Map) mapItem {
	return mapItem{
		PK:             mapPK(m.ID()),
		SK:             metadataSK,
		GSI1PK:         mapsGSI1PK,
		GSI1SK:         mapPK(m.ID()),
		EntityType:     entityMap,
		MapID:          m.ID().String(),
		Name:           m.Name(),
		Width:          m.Width(),
		Height:         m.Height(),
		PixelsPerMeter: m.PixelsPerMeter(),
		ImageURL:       m.ImageURL(),
		CreatedAt:      formatTime(m.CreatedAt()),
	}
}

func (i mapItem) toEntity() *entities.Map {
	return entities.ReconstructMap(
		valueobjects.MapID(i.MapID), i.Name, i.Width, i.Height, i.PixelsPerMeter, i.ImageURL, parseTime(i.CreatedAt),
	)
}

func toNodeItem(n *entities.Node) nodeItem {
	p := n.Position()
	return nodeItem{
		PK:         mapPK(n.MapID()),
		SK:         nodeKey(n.ID()),
		GSI1PK:     nodeKey(n.ID()),
		GSI1SK:     metadataSK,
		EntityType: entityNode,
		NodeID:     n.ID().String(),
		MapID:      n.MapID().String(),
		Floor:      n.Floor().Int(),
		X:          p.X,
		Y:          p.Y,
		IsLandmark: n.IsLandmark(),
		CreatedAt:  formatTime(n.CreatedAt()),
	}
}

func (i nodeItem) toEntity() *entities.Node {
	return entities.ReconstructNode(
		valueobjects.NodeID(i.NodeID),
		valueobjects.MapID(i.MapID),
		valueobjects.Floor(i.Floor),
		valueobjects.Point{X: i.X, Y: i.Y},
		i.IsLandmark,
		parseTime(i.CreatedAt),
	)
}

func toEdgeItem(e *entities.Edge) edgeItem {
	line := e.Polyline()
	points := make([]pointItem, len(line))
	for k, p := range line {
		points[k] = pointItem{X: p.X, Y: p.Y}
	}
	return edgeItem{
		PK:            mapPK(e.MapID()),
		SK:            edgeKey(e.ID()),
		GSI1PK:        edgeKey(e.ID()),
		GSI1SK:        metadataSK,
		EntityType:    entityEdge,
		EdgeID:        e.ID().String(),
		MapID:         e.MapID().String(),
		Floor:         e.Floor().Int(),
		StartNodeID:   e.StartNodeID().String(),
		EndNodeID:     e.EndNodeID().String(),
		Polyline:      points,
		Weight:        e.Weight(),
		Bidirectional: e.Bidirectional(),
		CreatedAt:     formatTime(e.CreatedAt()),
	}
}

func (i edgeItem) toEntity() *entities.Edge {
	line := make(valueobjects.Polyline, len(i.Polyline))
	for k, p := range i.Polyline {
		line[k] = valueobjects.Point{X: p.X, Y: p.Y}
	}
	return entities.ReconstructEdge(
		valueobjects.EdgeID(i.EdgeID),
		valueobjects.MapID(i.MapID),
		valueobjects.Floor(i.Floor),
		valueobjects.NodeID(i.StartNodeID),
		valueobjects.NodeID(i.EndNodeID),
		line,
		i.Weight,
		i.Bidirectional,
		parseTime(i.CreatedAt),
	)
}

func toAliasItem(a *entities.Alias) aliasItem {
	return aliasItem{
		PK:         nodeKey(a.NodeID()),
		SK:         aliasKey(a.ID()),
		GSI1PK:     aliasKey(a.ID()),
		GSI1SK:     metadataSK,
		EntityType: entityAlias,
		AliasID:    a.ID().String(),
		NodeID:     a.NodeID().String(),
		Name:       a.Name(),
		NormName:   a.NormName(),
		Lang:       a.Lang(),
		Weight:     a.Weight(),
		CreatedAt:  formatTime(a.CreatedAt()),
	}
}

func (i aliasItem) toEntity() *entities.Alias {
	return entities.ReconstructAlias(
		valueobjects.AliasID(i.AliasID),
		valueobjects.NodeID(i.NodeID),
		valueobjects.ReconstructAliasName(i.Name, i.NormName),
		i.Lang,
		i.Weight,
		parseTime(i.CreatedAt),
	)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
