package osmparser

import (
	"strconv"
	"strings"

	"lintang/transitx/pkg/datastructure"

	"github.com/paulmach/osm"
)

var validRoadType = map[string]bool{
	"motorway":       true,
	"trunk":          true,
	"primary":        true,
	"secondary":      true,
	"tertiary":       true,
	"unclassified":   true,
	"residential":    true,
	"motorway_link":  true,
	"trunk_link":     true,
	"primary_link":   true,
	"secondary_link": true,
	"tertiary_link":  true,
	"living_street":  true,
	"road":           true,
	"service":        true,
	"track":          true,
}

// isWayUsedByCars filters the OSM way set down to the drivable road network.
func isWayUsedByCars(tagMap map[string]string) bool {
	if _, ok := tagMap["junction"]; ok {
		return true
	}

	if route, ok := tagMap["route"]; ok && route == "ferry" {
		return true
	}
	if ferry, ok := tagMap["ferry"]; ok && ferry == "yes" {
		return true
	}

	highway, okHW := tagMap["highway"]
	if !okHW {
		return false
	}

	if motorcar, ok := tagMap["motorcar"]; ok && motorcar == "no" {
		return false
	}
	if motorVehicle, ok := tagMap["motor_vehicle"]; ok && motorVehicle == "no" {
		return false
	}

	if access, ok := tagMap["access"]; ok {
		if !(access == "yes" || access == "permissive" || access == "designated" ||
			access == "delivery" || access == "destination") {
			return false
		}
	}

	if validRoadType[highway] {
		return true
	}

	if highway == "bicycle_road" {
		return tagMap["motorcar"] == "yes"
	}

	if highway == "construction" ||
		highway == "path" ||
		highway == "footway" ||
		highway == "cycleway" ||
		highway == "bridleway" ||
		highway == "pedestrian" ||
		highway == "bus_guideway" ||
		highway == "raceway" ||
		highway == "escape" ||
		highway == "steps" ||
		highway == "proposed" ||
		highway == "conveying" {
		return false
	}

	if oneway, ok := tagMap["oneway"]; ok {
		if oneway == "reversible" || oneway == "alternating" {
			return false
		}
	}

	_, ok := tagMap["maxspeed"]
	return ok
}

type wayAttrs struct {
	name             string
	roadType         string
	maxSpeedKmh      uint32
	oneWay           bool
	reversed         bool
	roundabout       bool
	destination      string
	destinationRef   string
	motorwayJunction bool
}

// parseWayAttrs extracts the routing attributes of one way. Unparseable or
// missing maxspeed values fall back to the per-road-type default.
func parseWayAttrs(way *osm.Way) wayAttrs {
	attrs := wayAttrs{}

	for _, tag := range way.Tags {
		switch {
		case tag.Key == "highway":
			attrs.roadType = tag.Value
			if tag.Value == "motorway_junction" {
				attrs.motorwayJunction = true
			}
		case strings.Contains(tag.Key, "oneway") && !strings.Contains(tag.Value, "no"):
			attrs.oneWay = true
			if strings.Contains(tag.Value, "-1") {
				attrs.reversed = true
			}
		case strings.Contains(tag.Key, "maxspeed"):
			if speed, err := strconv.ParseFloat(tag.Value, 64); err == nil && speed > 0 {
				attrs.maxSpeedKmh = uint32(speed)
			}
		case tag.Key == "junction" && strings.Contains(tag.Value, "roundabout"):
			attrs.roundabout = true
		case tag.Key == "name":
			attrs.name = tag.Value
		case tag.Key == "destination":
			attrs.destination = tag.Value
		case tag.Key == "destination:ref":
			attrs.destinationRef = tag.Value
		}
	}

	if attrs.maxSpeedKmh == 0 {
		attrs.maxSpeedKmh = datastructure.RoadTypeMaxSpeed(attrs.roadType)
	}
	return attrs
}
