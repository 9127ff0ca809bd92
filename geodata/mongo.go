package geodata

import (
	"context"
	"fmt"
	"math"
	"sort"

	"git.fiblab.net/sim/accessibility/access"
	"git.fiblab.net/sim/accessibility/network"
	"github.com/samber/lo"
	"github.com/twpayne/go-geom"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// 单次BulkWrite的最大操作数
const bulkSize = 1000

// featureDoc is the stored form of an area, POI or graph node:
// {id, properties, geometry: <GeoJSON geometry>}.
type featureDoc struct {
	ID         bson.RawValue `bson:"id"`
	Properties bson.M        `bson:"properties"`
	Geometry   geometryDoc   `bson:"geometry"`
}

type geometryDoc struct {
	Type        string        `bson:"type"`
	Coordinates bson.RawValue `bson:"coordinates"`
}

// edgeDoc is the stored form of a graph edge.
type edgeDoc struct {
	U          int64  `bson:"u"`
	V          int64  `bson:"v"`
	Key        int    `bson:"key"`
	Properties bson.M `bson:"properties"`
}

func (d featureDoc) id(c Columns, i int) string {
	if c.ID != "" {
		if id := text(d.Properties[c.ID]); id != "" {
			return id
		}
	}
	if s, ok := d.ID.StringValueOK(); ok {
		return s
	}
	if v, ok := rawNumber(d.ID); ok {
		return text(v)
	}
	return fmt.Sprint(i)
}

func rawNumber(v bson.RawValue) (float64, bool) {
	if i, ok := v.Int32OK(); ok {
		return float64(i), true
	}
	if i, ok := v.Int64OK(); ok {
		return float64(i), true
	}
	return v.DoubleOK()
}

func xy1(c geom.Coord) (geom.Coord, error) {
	if len(c) < 2 {
		return nil, fmt.Errorf("%w: coordinate %v", ErrFormat, c)
	}
	return c[:2], nil
}

func xy2(cs []geom.Coord) ([]geom.Coord, error) {
	out := make([]geom.Coord, len(cs))
	for i, c := range cs {
		var err error
		if out[i], err = xy1(c); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func xy3(css [][]geom.Coord) ([][]geom.Coord, error) {
	out := make([][]geom.Coord, len(css))
	for i, cs := range css {
		var err error
		if out[i], err = xy2(cs); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (d geometryDoc) decode() (geom.T, error) {
	switch d.Type {
	case "Point":
		var c geom.Coord
		if err := d.Coordinates.Unmarshal(&c); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		c, err := xy1(c)
		if err != nil {
			return nil, err
		}
		return geom.NewPoint(geom.XY).SetCoords(c)
	case "Polygon":
		var cs [][]geom.Coord
		if err := d.Coordinates.Unmarshal(&cs); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		cs, err := xy3(cs)
		if err != nil {
			return nil, err
		}
		return geom.NewPolygon(geom.XY).SetCoords(cs)
	case "MultiPolygon":
		var css [][][]geom.Coord
		if err := d.Coordinates.Unmarshal(&css); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		out := make([][][]geom.Coord, len(css))
		for i, cs := range css {
			var err error
			if out[i], err = xy3(cs); err != nil {
				return nil, err
			}
		}
		return geom.NewMultiPolygon(geom.XY).SetCoords(out)
	default:
		return nil, fmt.Errorf("%w: unsupported geometry type %q", ErrFormat, d.Type)
	}
}

func findAll[T any](ctx context.Context, coll *mongo.Collection) ([]T, error) {
	cursor, err := coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", coll.Name(), err)
	}
	var docs []T
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	return docs, nil
}

func LoadAreasMongo(ctx context.Context, coll *mongo.Collection, c Columns) ([]access.Area, error) {
	docs, err := findAll[featureDoc](ctx, coll)
	if err != nil {
		return nil, err
	}
	areas := make([]access.Area, 0, len(docs))
	for i, d := range docs {
		g, err := d.Geometry.decode()
		if err != nil {
			return nil, fmt.Errorf("area %d: %w", i, err)
		}
		switch g.(type) {
		case *geom.Polygon, *geom.MultiPolygon:
		default:
			return nil, fmt.Errorf("%w: area %d has geometry %s", ErrFormat, i, d.Geometry.Type)
		}
		areas = append(areas, access.Area{ID: d.id(c, i), Geometry: g, Weight: c.weight(d.Properties)})
	}
	log.Infof("loaded %d areas from %s", len(areas), coll.Name())
	return areas, nil
}

func LoadPOIsMongo(ctx context.Context, coll *mongo.Collection, c Columns) ([]access.POI, error) {
	docs, err := findAll[featureDoc](ctx, coll)
	if err != nil {
		return nil, err
	}
	pois := make([]access.POI, 0, len(docs))
	for i, d := range docs {
		g, err := d.Geometry.decode()
		if err != nil {
			return nil, fmt.Errorf("poi %d: %w", i, err)
		}
		p, ok := g.(*geom.Point)
		if !ok {
			return nil, fmt.Errorf("%w: poi %d has geometry %s", ErrFormat, i, d.Geometry.Type)
		}
		pois = append(pois, access.POI{ID: d.id(c, i), X: p.X(), Y: p.Y(), Weight: c.weight(d.Properties)})
	}
	log.Infof("loaded %d pois from %s", len(pois), coll.Name())
	return pois, nil
}

// LoadGraphMongo reads nodes (Point feature documents with an integer id) and
// edges ({u, v, key, properties}) from two collections.
func LoadGraphMongo(ctx context.Context, nodes, edges *mongo.Collection) (*network.Graph, error) {
	nodeDocs, err := findAll[featureDoc](ctx, nodes)
	if err != nil {
		return nil, err
	}
	edgeDocs, err := findAll[edgeDoc](ctx, edges)
	if err != nil {
		return nil, err
	}
	g := network.NewGraph()
	for i, d := range nodeDocs {
		id, ok := rawNumber(d.ID)
		if !ok || id != math.Trunc(id) {
			return nil, fmt.Errorf("%w: node %d has no integer id", ErrMissingProperty, i)
		}
		geo, err := d.Geometry.decode()
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		p, ok := geo.(*geom.Point)
		if !ok {
			return nil, fmt.Errorf("%w: node %d has geometry %s", ErrFormat, i, d.Geometry.Type)
		}
		if err := g.AddNode(int64(id), network.Point{X: p.X(), Y: p.Y()}); err != nil {
			return nil, err
		}
	}
	for _, d := range edgeDocs {
		attrs := make(map[string]float64, len(d.Properties))
		for name, val := range d.Properties {
			if x, ok := number(val); ok {
				attrs[name] = x
			}
		}
		if _, err := g.AddEdge(d.U, d.V, d.Key, attrs); err != nil {
			return nil, err
		}
	}
	log.Infof("loaded graph with %d nodes and %d edges from %s", g.NumNodes(), g.NumEdges(), nodes.Name())
	return g, nil
}

func bulkUpsert(ctx context.Context, coll *mongo.Collection, models []mongo.WriteModel) error {
	for _, chunk := range lo.Chunk(models, bulkSize) {
		if _, err := coll.BulkWrite(ctx, chunk, options.BulkWrite().SetOrdered(false)); err != nil {
			return fmt.Errorf("bulk write to %s: %w", coll.Name(), err)
		}
	}
	return nil
}

// SaveScoresMongo upserts {id, score} documents, in id order.
func SaveScoresMongo(ctx context.Context, coll *mongo.Collection, scores map[string]float64) error {
	ids := lo.Keys(scores)
	sort.Strings(ids)
	models := lo.Map(ids, func(id string, _ int) mongo.WriteModel {
		return mongo.NewUpdateOneModel().
			SetFilter(bson.D{{Key: "id", Value: id}}).
			SetUpdate(bson.D{{Key: "$set", Value: bson.D{{Key: "score", Value: scores[id]}}}}).
			SetUpsert(true)
	})
	if err := bulkUpsert(ctx, coll, models); err != nil {
		return err
	}
	log.Infof("saved %d scores to %s", len(ids), coll.Name())
	return nil
}

// SaveEdgeAttrMongo upserts {u, v, key, <attr>} for every edge of g.
func SaveEdgeAttrMongo(ctx context.Context, coll *mongo.Collection, g *network.Graph, attr string) error {
	keys := g.Edges()
	models := lo.Map(keys, func(k network.EdgeKey, _ int) mongo.WriteModel {
		v, _ := g.EdgeAttr(k, attr)
		return mongo.NewUpdateOneModel().
			SetFilter(bson.D{{Key: "u", Value: k.U}, {Key: "v", Value: k.V}, {Key: "key", Value: k.Key}}).
			SetUpdate(bson.D{{Key: "$set", Value: bson.D{{Key: attr, Value: v}}}}).
			SetUpsert(true)
	})
	if err := bulkUpsert(ctx, coll, models); err != nil {
		return err
	}
	log.Infof("saved %s of %d edges to %s", attr, len(keys), coll.Name())
	return nil
}
