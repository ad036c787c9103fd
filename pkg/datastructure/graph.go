package datastructure

import (
	"github.com/twpayne/go-polyline"
)

// Access bit masks shared by node and directed-edge access fields.
const (
	AccessAuto       uint32 = 1
	AccessPedestrian uint32 = 2
	AccessBicycle    uint32 = 4

	AccessAll = AccessAuto | AccessPedestrian | AccessBicycle
)

type Use uint8

const (
	UseRoad Use = iota
	UseRamp
	UseTransitConnection
	UseRail
	UseBus
)

func (u Use) String() string {
	switch u {
	case UseRoad:
		return "road"
	case UseRamp:
		return "ramp"
	case UseTransitConnection:
		return "transit_connection"
	case UseRail:
		return "rail"
	case UseBus:
		return "bus"
	default:
		return "unknown"
	}
}

type RoadClass uint8

const (
	RoadClassMotorway RoadClass = iota
	RoadClassTrunk
	RoadClassPrimary
	RoadClassSecondary
	RoadClassTertiary
	RoadClassUnclassified
	RoadClassResidential
	RoadClassServiceOther
)

type NodeType uint8

const (
	NodeTypeStreetIntersection NodeType = iota
	NodeTypeMultiUseTransitStop
)

type LatLng struct {
	Lat float64
	Lon float64
}

// NodeInfo is a graph node inside one tile. EdgeIndex/EdgeCount address the
// node's contiguous run of outbound edges in the tile's directed-edge array.
type NodeInfo struct {
	LatLng         LatLng
	EdgeIndex      uint32
	EdgeCount      uint32
	Access         uint32
	Type           NodeType
	StopIndex      uint32 // transit stop array position, transit nodes only
	TimezoneOffset uint32 // offset into the tile name list
	TrafficLight   bool
}

// DirectedEdge is one half of an undirected road segment, or a one-way
// transit/connection edge. EdgeInfoOffset points into the tile's shared
// edge-info array; paired edges share the same offset with Forward flipped.
type DirectedEdge struct {
	EndNode               GraphId
	EdgeInfoOffset        uint32
	LengthM               float32
	SpeedKmh              uint32
	Use                   Use
	ClassifiedRoad        RoadClass
	ForwardAccess         uint32
	ReverseAccess         uint32
	Forward               bool
	LineID                uint32 // transit edges only, 0 elsewhere
	SignRecord            bool
	HasAccessRestrictions bool
}

type SignType uint8

const (
	SignDestination SignType = iota
	SignDestinationRef
	SignMotorwayJunction
)

// Sign attaches guidance text to a directed edge by array index. The index
// is rewritten whenever edges move within the tile.
type Sign struct {
	EdgeIndex  uint32
	Type       SignType
	TextOffset uint32
}

type AccessRestrictionType uint8

const (
	RestrictionMaxHeight AccessRestrictionType = iota
	RestrictionMaxWeight
	RestrictionMaxLength
	RestrictionTimeDenied
)

// AccessRestriction limits travel over a directed edge by array index, same
// re-index discipline as Sign.
type AccessRestriction struct {
	EdgeIndex uint32
	Type      AccessRestrictionType
	Modes     uint32
	Value     uint64
}

// EdgeInfo is the shared per-segment record referenced by one or two
// directed edges: OSM way id, street-name offsets, and the shape encoded as
// a google polyline oriented in the forward edge's direction.
type EdgeInfo struct {
	WayID       int64
	NameOffsets []uint32
	ShapeBytes  []byte
}

func (e *EdgeInfo) Shape() []LatLng {
	coords, _, err := polyline.DecodeCoords(e.ShapeBytes)
	if err != nil {
		return nil
	}
	shape := make([]LatLng, len(coords))
	for i, c := range coords {
		shape[i] = LatLng{Lat: c[0], Lon: c[1]}
	}
	return shape
}

func (e *EdgeInfo) SetShape(shape []LatLng) {
	coords := make([][]float64, len(shape))
	for i, p := range shape {
		coords[i] = []float64{p.Lat, p.Lon}
	}
	e.ShapeBytes = polyline.EncodeCoords(coords)
}

func RoadTypeMaxSpeed(roadType string) uint32 {
	switch roadType {
	case "motorway":
		return 95
	case "trunk":
		return 85
	case "primary":
		return 75
	case "secondary":
		return 65
	case "tertiary":
		return 50
	case "unclassified":
		return 50
	case "residential":
		return 30
	case "service":
		return 20
	case "motorway_link":
		return 90
	case "trunk_link":
		return 80
	case "primary_link":
		return 70
	case "secondary_link":
		return 60
	case "tertiary_link":
		return 50
	case "living_street":
		return 20
	default:
		return 40
	}
}

func RoadTypeClass(roadType string) RoadClass {
	switch roadType {
	case "motorway", "motorway_link":
		return RoadClassMotorway
	case "trunk", "trunk_link":
		return RoadClassTrunk
	case "primary", "primary_link":
		return RoadClassPrimary
	case "secondary", "secondary_link":
		return RoadClassSecondary
	case "tertiary", "tertiary_link":
		return RoadClassTertiary
	case "unclassified":
		return RoadClassUnclassified
	case "residential", "living_street":
		return RoadClassResidential
	default:
		return RoadClassServiceOther
	}
}
