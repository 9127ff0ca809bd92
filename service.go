package main

import (
	"context"
	"fmt"
	"os"

	"git.fiblab.net/sim/accessibility/access"
	"git.fiblab.net/sim/accessibility/geodata"
	"git.fiblab.net/sim/accessibility/network"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AccessService loads inputs and stores results for one run. Files are read
// by extension; {db}.{col} paths go through a mongo client created on first
// use.
type AccessService struct {
	mongoURI string
	client   *mongo.Client
}

func NewAccessService(mongoURI string) *AccessService {
	return &AccessService{mongoURI: mongoURI}
}

func (s *AccessService) lazyClient(ctx context.Context) (*mongo.Client, error) {
	if s.client != nil {
		return s.client, nil
	}
	if s.mongoURI == "" {
		return nil, fmt.Errorf("mongo_uri is required for collection paths")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.mongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	s.client = client
	return client, nil
}

func (s *AccessService) coll(ctx context.Context, db, coll string) (*mongo.Collection, error) {
	client, err := s.lazyClient(ctx)
	if err != nil {
		return nil, err
	}
	return client.Database(db).Collection(coll), nil
}

// LoadGraph reads a GeoJSON graph file, or node and edge collections
// {col} and {col}_edges.
func (s *AccessService) LoadGraph(ctx context.Context, p *Path) (*network.Graph, error) {
	if p == nil {
		return nil, fmt.Errorf("graph path is required")
	}
	if p.IsFile() {
		if p.Format() != "geojson" {
			return nil, fmt.Errorf("unsupported graph file %s", p)
		}
		f, err := os.Open(p.File)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return geodata.ReadGraphGeoJSON(f)
	}
	nodes, err := s.coll(ctx, p.GetDb(), p.GetColl())
	if err != nil {
		return nil, err
	}
	edges, err := s.coll(ctx, p.GetDb(), p.GetColl()+"_edges")
	if err != nil {
		return nil, err
	}
	return geodata.LoadGraphMongo(ctx, nodes, edges)
}

func (s *AccessService) LoadAreas(ctx context.Context, p *Path, c geodata.Columns) ([]access.Area, error) {
	if p == nil {
		return nil, fmt.Errorf("areas path is required")
	}
	if !p.IsFile() {
		coll, err := s.coll(ctx, p.GetDb(), p.GetColl())
		if err != nil {
			return nil, err
		}
		return geodata.LoadAreasMongo(ctx, coll, c)
	}
	switch p.Format() {
	case "geojson":
		f, err := os.Open(p.File)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return geodata.ReadAreasGeoJSON(f, c)
	case "shapefile":
		return geodata.ReadAreasShapefile(p.File, c)
	default:
		return nil, fmt.Errorf("unsupported areas file %s", p)
	}
}

func (s *AccessService) LoadPOIs(ctx context.Context, p *Path, c geodata.Columns) ([]access.POI, error) {
	if p == nil {
		return nil, fmt.Errorf("pois path is required")
	}
	if !p.IsFile() {
		coll, err := s.coll(ctx, p.GetDb(), p.GetColl())
		if err != nil {
			return nil, err
		}
		return geodata.LoadPOIsMongo(ctx, coll, c)
	}
	switch p.Format() {
	case "geojson":
		f, err := os.Open(p.File)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return geodata.ReadPOIsGeoJSON(f, c)
	case "shapefile":
		return geodata.ReadPOIsShapefile(p.File, c)
	case "csv":
		f, err := os.Open(p.File)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return geodata.ReadPOIsCSV(f, c)
	default:
		return nil, fmt.Errorf("unsupported pois file %s", p)
	}
}

// WriteScores stores scores to a CSV file or a collection.
func (s *AccessService) WriteScores(ctx context.Context, p *Path, scores map[string]float64) error {
	if p == nil {
		return fmt.Errorf("output path is required")
	}
	if !p.IsFile() {
		coll, err := s.coll(ctx, p.GetDb(), p.GetColl())
		if err != nil {
			return err
		}
		return geodata.SaveScoresMongo(ctx, coll, scores)
	}
	if p.Format() != "csv" {
		return fmt.Errorf("scores output must be .csv, got %s", p)
	}
	f, err := os.Create(p.File)
	if err != nil {
		return err
	}
	if err := geodata.WriteScoresCSV(f, scores); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteLoad stores the load attribute of every edge to a GeoJSON file or a
// collection.
func (s *AccessService) WriteLoad(ctx context.Context, p *Path, g *network.Graph) error {
	if p == nil {
		return fmt.Errorf("output path is required")
	}
	if !p.IsFile() {
		coll, err := s.coll(ctx, p.GetDb(), p.GetColl())
		if err != nil {
			return err
		}
		return geodata.SaveEdgeAttrMongo(ctx, coll, g, access.LoadAttr)
	}
	if p.Format() != "geojson" {
		return fmt.Errorf("load output must be .geojson, got %s", p)
	}
	f, err := os.Create(p.File)
	if err != nil {
		return err
	}
	if err := geodata.WriteGraphGeoJSON(f, g); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *AccessService) Close() {
	if s.client != nil {
		if err := s.client.Disconnect(context.Background()); err != nil {
			log.Warnf("disconnect mongo: %v", err)
		}
		s.client = nil
	}
}
