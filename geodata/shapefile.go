package geodata

import (
	"fmt"
	"strconv"
	"strings"

	"git.fiblab.net/sim/accessibility/access"
	"github.com/jonas-p/go-shp"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

type shapeRecord struct {
	index int
	shape shp.Shape
	props map[string]any
}

// readShapefile returns every record with its attributes keyed by lower-case
// field name.
func readShapefile(path string) ([]shapeRecord, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile %s: %w", path, err)
	}
	defer reader.Close()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.ToLower(strings.TrimRight(f.String(), "\x00"))
	}
	var records []shapeRecord
	for reader.Next() {
		n, shape := reader.Shape()
		props := make(map[string]any, len(names))
		for i, name := range names {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			if val != "" {
				props[name] = val
			}
		}
		records = append(records, shapeRecord{index: n, shape: shape, props: props})
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("read shapefile %s: %w", path, err)
	}
	return records, nil
}

func (r shapeRecord) id(c Columns) string {
	if c.ID != "" {
		if id := text(r.props[strings.ToLower(c.ID)]); id != "" {
			return id
		}
	}
	return strconv.Itoa(r.index)
}

func (r shapeRecord) weight(c Columns) float64 {
	c.Weight = strings.ToLower(c.Weight)
	return c.weight(r.props)
}

// ReadAreasShapefile reads polygon records. Rings are grouped into polygons by
// orientation: clockwise rings are shells and counter-clockwise rings are
// holes of the shell that contains them.
func ReadAreasShapefile(path string, c Columns) ([]access.Area, error) {
	records, err := readShapefile(path)
	if err != nil {
		return nil, err
	}
	areas := make([]access.Area, 0, len(records))
	skipped := 0
	for _, r := range records {
		p, ok := r.shape.(*shp.Polygon)
		if !ok {
			skipped++
			continue
		}
		g := polygonToMultiPolygon(p)
		if g == nil {
			skipped++
			continue
		}
		areas = append(areas, access.Area{ID: r.id(c), Geometry: g, Weight: r.weight(c)})
	}
	if skipped > 0 {
		log.Warnf("skipped %d non-polygon records in %s", skipped, path)
	}
	log.Infof("read %d areas from %s", len(areas), path)
	return areas, nil
}

// ReadPOIsShapefile reads point records.
func ReadPOIsShapefile(path string, c Columns) ([]access.POI, error) {
	records, err := readShapefile(path)
	if err != nil {
		return nil, err
	}
	pois := make([]access.POI, 0, len(records))
	skipped := 0
	for _, r := range records {
		p, ok := r.shape.(*shp.Point)
		if !ok {
			skipped++
			continue
		}
		pois = append(pois, access.POI{ID: r.id(c), X: p.X, Y: p.Y, Weight: r.weight(c)})
	}
	if skipped > 0 {
		log.Warnf("skipped %d non-point records in %s", skipped, path)
	}
	log.Infof("read %d pois from %s", len(pois), path)
	return pois, nil
}

func polygonToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}
	var shells [][][]float64
	var holes [][]float64
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		ring := make([]float64, 0, 2*(end-start))
		for _, pt := range p.Points[start:end] {
			ring = append(ring, pt.X, pt.Y)
		}
		if len(ring) < 8 {
			log.Debugf("skip ring %d with %d points", i, len(ring)/2)
			continue
		}
		if xy.IsRingCounterClockwise(geom.XY, ring) && len(shells) > 0 {
			holes = append(holes, ring)
		} else {
			shells = append(shells, [][]float64{ring})
		}
	}
	for _, h := range holes {
		owner := len(shells) - 1
		for j, s := range shells {
			if xy.IsPointInRing(geom.XY, geom.Coord{h[0], h[1]}, s[0]) {
				owner = j
				break
			}
		}
		shells[owner] = append(shells[owner], h)
	}

	mp := geom.NewMultiPolygon(geom.XY)
	for _, s := range shells {
		flat := make([]float64, 0)
		ends := make([]int, 0, len(s))
		for _, ring := range s {
			flat = append(flat, ring...)
			ends = append(ends, len(flat))
		}
		if err := mp.Push(geom.NewPolygonFlat(geom.XY, flat, ends)); err != nil {
			log.Debugf("skip malformed polygon part: %v", err)
		}
	}
	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
