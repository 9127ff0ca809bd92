package geodata

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"git.fiblab.net/sim/accessibility/access"
	"git.fiblab.net/sim/accessibility/network"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

func readFeatures(r io.Reader) ([]*geojson.Feature, error) {
	var fc geojson.FeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return fc.Features, nil
}

func featureID(f *geojson.Feature, c Columns, i int) string {
	if c.ID != "" {
		if id := text(f.Properties[c.ID]); id != "" {
			return id
		}
	}
	if f.ID != "" {
		return f.ID
	}
	return strconv.Itoa(i)
}

// ReadAreasGeoJSON reads Polygon and MultiPolygon features.
func ReadAreasGeoJSON(r io.Reader, c Columns) ([]access.Area, error) {
	features, err := readFeatures(r)
	if err != nil {
		return nil, err
	}
	areas := make([]access.Area, 0, len(features))
	for i, f := range features {
		switch f.Geometry.(type) {
		case *geom.Polygon, *geom.MultiPolygon:
		default:
			return nil, fmt.Errorf("%w: area feature %d has geometry %T", ErrFormat, i, f.Geometry)
		}
		areas = append(areas, access.Area{
			ID:       featureID(f, c, i),
			Geometry: f.Geometry,
			Weight:   c.weight(f.Properties),
		})
	}
	log.Infof("read %d areas from geojson", len(areas))
	return areas, nil
}

// ReadPOIsGeoJSON reads Point features.
func ReadPOIsGeoJSON(r io.Reader, c Columns) ([]access.POI, error) {
	features, err := readFeatures(r)
	if err != nil {
		return nil, err
	}
	pois := make([]access.POI, 0, len(features))
	for i, f := range features {
		p, ok := f.Geometry.(*geom.Point)
		if !ok {
			return nil, fmt.Errorf("%w: poi feature %d has geometry %T", ErrFormat, i, f.Geometry)
		}
		pois = append(pois, access.POI{
			ID:     featureID(f, c, i),
			X:      p.X(),
			Y:      p.Y(),
			Weight: c.weight(f.Properties),
		})
	}
	log.Infof("read %d pois from geojson", len(pois))
	return pois, nil
}

// 边要素中不作为边属性的字段
var edgeKeyProps = map[string]bool{"u": true, "v": true, "key": true}

// ReadGraphGeoJSON reads a node/edge FeatureCollection: Point features are
// nodes identified by the "osmid" or "id" property (or the feature id), and
// every other feature is an edge with "u", "v" and optional "key" properties.
// Numeric edge properties become edge attributes.
func ReadGraphGeoJSON(r io.Reader) (*network.Graph, error) {
	features, err := readFeatures(r)
	if err != nil {
		return nil, err
	}
	g := network.NewGraph()
	// 先加入全部节点，再加入边
	for i, f := range features {
		p, ok := f.Geometry.(*geom.Point)
		if !ok {
			continue
		}
		id, ok := nodeID(f)
		if !ok {
			return nil, fmt.Errorf("%w: node feature %d has no integer id", ErrMissingProperty, i)
		}
		if err := g.AddNode(id, network.Point{X: p.X(), Y: p.Y()}); err != nil {
			return nil, err
		}
	}
	for i, f := range features {
		if _, ok := f.Geometry.(*geom.Point); ok {
			continue
		}
		u, okU := integer(f.Properties["u"])
		v, okV := integer(f.Properties["v"])
		if !okU || !okV {
			return nil, fmt.Errorf("%w: edge feature %d needs integer u and v", ErrMissingProperty, i)
		}
		key, _ := integer(f.Properties["key"])
		attrs := make(map[string]float64)
		for name, val := range f.Properties {
			if edgeKeyProps[name] {
				continue
			}
			if x, ok := number(val); ok {
				attrs[name] = x
			}
		}
		if _, err := g.AddEdge(u, v, int(key), attrs); err != nil {
			return nil, err
		}
	}
	log.Infof("read graph with %d nodes and %d edges from geojson", g.NumNodes(), g.NumEdges())
	return g, nil
}

func nodeID(f *geojson.Feature) (int64, bool) {
	for _, name := range []string{"osmid", "id"} {
		if id, ok := integer(f.Properties[name]); ok {
			return id, true
		}
	}
	return integer(f.ID)
}

// WriteGraphGeoJSON writes every edge as a LineString between its end nodes
// with u, v, key and all edge attributes as properties.
func WriteGraphGeoJSON(w io.Writer, g *network.Graph) error {
	keys := g.Edges()
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(keys))}
	for _, k := range keys {
		from, _ := g.Node(k.U)
		to, _ := g.Node(k.V)
		attrs, _ := g.EdgeAttrs(k)
		props := make(map[string]any, len(attrs)+3)
		for name, v := range attrs {
			props[name] = v
		}
		props["u"], props["v"], props["key"] = k.U, k.V, k.Key
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry:   geom.NewLineStringFlat(geom.XY, []float64{from.X, from.Y, to.X, to.Y}),
			Properties: props,
		})
	}
	return json.NewEncoder(w).Encode(fc)
}
