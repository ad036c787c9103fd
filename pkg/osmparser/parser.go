package osmparser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"lintang/transitx/domain"
	"lintang/transitx/pkg/datastructure"
	"lintang/transitx/pkg/geo"
	"lintang/transitx/pkg/tilestore"
	"lintang/transitx/pkg/util"

	"github.com/k0kubun/go-ansi"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/schollz/progressbar/v3"
)

// Parser reads an OSM pbf extract and writes the road tile set at the
// hierarchy's local level.
type Parser struct {
	hierarchy *tilestore.TileHierarchy
	tileDir   string
	logger    *slog.Logger
}

func NewParser(hierarchy *tilestore.TileHierarchy, tileDir string, logger *slog.Logger) *Parser {
	return &Parser{
		hierarchy: hierarchy,
		tileDir:   tileDir,
		logger:    logger,
	}
}

// segment is one road graph edge between two graph nodes, shape oriented
// from -> to.
type segment struct {
	fromOSM osm.NodeID
	toOSM   osm.NodeID
	wayID   int64
	shape   []datastructure.LatLng
	attrs   wayAttrs
}

type pendingEdge struct {
	endNode        datastructure.GraphId
	wayID          int64
	shape          []datastructure.LatLng
	lengthM        float32
	speedKmh       uint32
	class          datastructure.RoadClass
	forward        bool
	name           string
	destination    string
	destinationRef string
	junction       bool
}

type tileAccum struct {
	base  datastructure.GraphId
	nodes []datastructure.NodeInfo
	edges map[uint32][]pendingEdge
}

// Parse builds the road tiles from the pbf at path. Returns the number of
// tiles written.
func (p *Parser) Parse(ctx context.Context, pbfPath string) (int, error) {
	start := time.Now()

	f, err := os.Open(pbfPath)
	if err != nil {
		return 0, domain.WrapErrorf(err, domain.ErrBadParamInput, "osmparser.Parse open %s", pbfPath)
	}
	defer f.Close()

	ways, nodeUsage, err := p.scanWays(ctx, f)
	if err != nil {
		return 0, err
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, domain.WrapErrorf(err, domain.ErrBadParamInput, "osmparser.Parse seek %s", pbfPath)
	}
	coords, trafficLights, err := p.scanNodes(ctx, f, nodeUsage)
	if err != nil {
		return 0, err
	}

	p.logger.Info("openstreetmap extract scanned",
		slog.String("file", pbfPath),
		slog.Int("ways", len(ways)),
		slog.Int("way_nodes", len(coords)),
		slog.Int("traffic_lights", len(trafficLights)))

	segments := splitWaySegments(ways, nodeUsage, coords)
	tiles := p.assembleTiles(segments, coords, trafficLights)

	written, err := p.writeTiles(tiles)
	if err != nil {
		return written, err
	}

	p.logger.Info("road tiles written",
		slog.Int("tiles", written),
		slog.Int("segments", len(segments)),
		slog.Duration("took", time.Since(start)))
	return written, nil
}

func roadBar(stage int, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(15),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan][%d/3][reset] %s", stage, description)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

// scanWays keeps the drivable ways and counts how many ways touch each node.
// Way endpoints get an extra count so they always become graph nodes.
func (p *Parser) scanWays(ctx context.Context, f *os.File) ([]*osm.Way, map[osm.NodeID]int32, error) {
	scanner := osmpbf.New(ctx, f, 3)
	defer scanner.Close()

	bar := roadBar(1, -1, "scanning openstreetmap ways...")

	var ways []*osm.Way
	nodeUsage := map[osm.NodeID]int32{}
	count := 0

	for scanner.Scan() {
		o := scanner.Object()
		if o.ObjectID().Type() != osm.TypeWay {
			continue
		}
		count++
		if count%50000 == 0 {
			bar.Add(50000)
		}

		way := o.(*osm.Way)
		if len(way.Nodes) < 2 || !isWayUsedByCars(way.TagMap()) {
			continue
		}

		ways = append(ways, way)
		for i, wn := range way.Nodes {
			nodeUsage[wn.ID]++
			if i == 0 || i == len(way.Nodes)-1 {
				nodeUsage[wn.ID]++
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, domain.WrapErrorf(err, domain.ErrBadParamInput, "osmparser.scanWays")
	}
	fmt.Println("")
	return ways, nodeUsage, nil
}

// scanNodes collects coordinates for every node referenced by a kept way,
// plus the traffic signal set.
func (p *Parser) scanNodes(ctx context.Context, f *os.File, nodeUsage map[osm.NodeID]int32) (map[osm.NodeID]datastructure.LatLng, map[osm.NodeID]bool, error) {
	scanner := osmpbf.New(ctx, f, 3)
	defer scanner.Close()

	bar := roadBar(2, -1, "scanning openstreetmap nodes...")

	coords := make(map[osm.NodeID]datastructure.LatLng, len(nodeUsage))
	trafficLights := map[osm.NodeID]bool{}
	count := 0

	for scanner.Scan() {
		o := scanner.Object()
		if o.ObjectID().Type() != osm.TypeNode {
			continue
		}
		count++
		if count%50000 == 0 {
			bar.Add(50000)
		}

		node := o.(*osm.Node)
		if _, ok := nodeUsage[node.ID]; !ok {
			continue
		}
		coords[node.ID] = datastructure.LatLng{Lat: node.Lat, Lon: node.Lon}
		if node.Tags.Find("highway") == "traffic_signals" {
			trafficLights[node.ID] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, domain.WrapErrorf(err, domain.ErrBadParamInput, "osmparser.scanNodes")
	}
	fmt.Println("")
	return coords, trafficLights, nil
}

// splitWaySegments cuts each way at its graph nodes: endpoints and nodes
// shared with another way. Interior nodes only contribute shape points.
func splitWaySegments(ways []*osm.Way, nodeUsage map[osm.NodeID]int32, coords map[osm.NodeID]datastructure.LatLng) []segment {
	var segments []segment

	for _, way := range ways {
		attrs := parseWayAttrs(way)

		var from osm.NodeID
		var shape []datastructure.LatLng
		started := false

		for _, wn := range way.Nodes {
			pos, ok := coords[wn.ID]
			if !ok {
				// node missing from the extract, the way is cut here
				started = false
				shape = nil
				continue
			}

			if !started {
				if nodeUsage[wn.ID] >= 2 {
					from = wn.ID
					shape = []datastructure.LatLng{pos}
					started = true
				}
				continue
			}

			shape = append(shape, pos)
			if nodeUsage[wn.ID] >= 2 {
				if wn.ID != from {
					segments = append(segments, segment{
						fromOSM: from,
						toOSM:   wn.ID,
						wayID:   int64(way.ID),
						shape:   shape,
						attrs:   attrs,
					})
				}
				from = wn.ID
				shape = []datastructure.LatLng{pos}
			}
		}
	}

	return segments
}

// assembleTiles assigns every graph node a tile-local id and buckets the
// directed edges under their start node.
func (p *Parser) assembleTiles(segments []segment, coords map[osm.NodeID]datastructure.LatLng, trafficLights map[osm.NodeID]bool) map[datastructure.GraphId]*tileAccum {
	local := p.hierarchy.LocalLevel()
	tiles := map[datastructure.GraphId]*tileAccum{}
	nodeIDs := map[osm.NodeID]datastructure.GraphId{}

	nodeID := func(osmID osm.NodeID) datastructure.GraphId {
		if id, ok := nodeIDs[osmID]; ok {
			return id
		}
		pos := coords[osmID]
		base := datastructure.NewGraphId(p.hierarchy.GetTileID(pos.Lat, pos.Lon, local.Level), local.Level, 0)
		accum, ok := tiles[base]
		if !ok {
			accum = &tileAccum{base: base, edges: map[uint32][]pendingEdge{}}
			tiles[base] = accum
		}
		id := base.WithIndex(uint32(len(accum.nodes)))
		accum.nodes = append(accum.nodes, datastructure.NodeInfo{
			LatLng:       pos,
			Access:       datastructure.AccessAll,
			Type:         datastructure.NodeTypeStreetIntersection,
			TrafficLight: trafficLights[osmID],
		})
		nodeIDs[osmID] = id
		return id
	}

	addEdge := func(from, to datastructure.GraphId, seg *segment, shape []datastructure.LatLng, forward bool) {
		accum := tiles[from.TileBase()]
		length := float32(geo.PolylineLengthMeters(shape))
		accum.edges[from.Index()] = append(accum.edges[from.Index()], pendingEdge{
			endNode:        to,
			wayID:          seg.wayID,
			shape:          shape,
			lengthM:        length,
			speedKmh:       seg.attrs.maxSpeedKmh,
			class:          datastructure.RoadTypeClass(seg.attrs.roadType),
			forward:        forward,
			name:           seg.attrs.name,
			destination:    seg.attrs.destination,
			destinationRef: seg.attrs.destinationRef,
			junction:       seg.attrs.motorwayJunction,
		})
	}

	for i := range segments {
		seg := &segments[i]
		from := nodeID(seg.fromOSM)
		to := nodeID(seg.toOSM)

		switch {
		case seg.attrs.oneWay && seg.attrs.reversed:
			reversed := append([]datastructure.LatLng(nil), seg.shape...)
			util.ReverseG(reversed)
			addEdge(to, from, seg, reversed, true)
		case seg.attrs.oneWay:
			addEdge(from, to, seg, seg.shape, true)
		default:
			addEdge(from, to, seg, seg.shape, true)
			addEdge(to, from, seg, seg.shape, false)
		}
	}

	return tiles
}

// writeTiles materializes each accumulated tile: contiguous per-node edge
// runs, shared edge infos, destination signs in edge index order.
func (p *Parser) writeTiles(tiles map[datastructure.GraphId]*tileAccum) (int, error) {
	bar := roadBar(3, len(tiles), "writing road tiles...")
	created := util.DaysFromPivot(time.Now())
	written := 0

	for base, accum := range tiles {
		path := filepath.Join(p.tileDir, tilestore.FileSuffix(base, ".gph"))
		builder := tilestore.NewGraphTileBuilder(path, base, created)

		edges := make([]datastructure.DirectedEdge, 0)
		for k := range accum.nodes {
			node := &accum.nodes[k]
			node.EdgeIndex = uint32(len(edges))

			for _, pe := range accum.edges[uint32(k)] {
				from := base.WithIndex(uint32(k))

				// both directions of a segment share one edge info, the
				// second direction reuses the offset with forward unset
				infoShape := pe.shape
				infoFrom, infoTo := from, pe.endNode
				if !pe.forward {
					infoShape = append([]datastructure.LatLng(nil), pe.shape...)
					util.ReverseG(infoShape)
					infoFrom, infoTo = pe.endNode, from
				}
				offset, _ := builder.AddEdgeInfo(pe.wayID, infoFrom, infoTo, infoShape, []string{pe.name})

				edgeIdx := uint32(len(edges))
				// guidance text follows the way's travel direction
				hasSign := pe.forward && (pe.destination != "" || pe.destinationRef != "" || pe.junction)
				edges = append(edges, datastructure.DirectedEdge{
					EndNode:        pe.endNode,
					EdgeInfoOffset: offset,
					LengthM:        pe.lengthM,
					SpeedKmh:       pe.speedKmh,
					Use:            datastructure.UseRoad,
					ClassifiedRoad: pe.class,
					ForwardAccess:  datastructure.AccessAll,
					ReverseAccess:  datastructure.AccessAll,
					Forward:        pe.forward,
					SignRecord:     hasSign,
				})

				if hasSign {
					if pe.destination != "" {
						builder.AddSign(datastructure.Sign{
							EdgeIndex:  edgeIdx,
							Type:       datastructure.SignDestination,
							TextOffset: builder.AddName(pe.destination),
						})
					}
					if pe.destinationRef != "" {
						builder.AddSign(datastructure.Sign{
							EdgeIndex:  edgeIdx,
							Type:       datastructure.SignDestinationRef,
							TextOffset: builder.AddName(pe.destinationRef),
						})
					}
					if pe.junction {
						builder.AddSign(datastructure.Sign{
							EdgeIndex:  edgeIdx,
							Type:       datastructure.SignMotorwayJunction,
							TextOffset: builder.AddName(pe.name),
						})
					}
				}
			}
			node.EdgeCount = uint32(len(edges)) - node.EdgeIndex
		}

		builder.SetNodes(accum.nodes)
		builder.SetDirectedEdges(edges)
		if err := builder.StoreTileData(); err != nil {
			return written, err
		}
		written++
		bar.Add(1)
	}
	fmt.Println("")
	return written, nil
}
