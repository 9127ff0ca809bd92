package geodata

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"git.fiblab.net/sim/accessibility/access"
	"github.com/samber/lo"
)

// WriteScoresCSV writes an area_id,score table sorted by area id.
func WriteScoresCSV(w io.Writer, scores map[string]float64) error {
	ids := lo.Keys(scores)
	sort.Strings(ids)
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"area_id", "score"}); err != nil {
		return err
	}
	for _, id := range ids {
		if err := cw.Write([]string{id, strconv.FormatFloat(scores[id], 'g', -1, 64)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadPOIsCSV reads POIs from a table with a header row holding x and y
// columns (case-insensitive) plus the columns named in c.
func ReadPOIsCSV(r io.Reader, c Columns) ([]access.POI, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %w", ErrFormat, err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	xi, okX := col["x"]
	yi, okY := col["y"]
	if !okX || !okY {
		return nil, fmt.Errorf("%w: need x and y columns, got %v", ErrMissingProperty, header)
	}
	var pois []access.POI
	for row := 0; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrFormat, row, err)
		}
		props := make(map[string]any, len(rec))
		for name, i := range col {
			props[name] = rec[i]
		}
		x, okX := number(rec[xi])
		y, okY := number(rec[yi])
		if !okX || !okY {
			return nil, fmt.Errorf("%w: row %d has invalid coordinates", ErrFormat, row)
		}
		lower := Columns{ID: strings.ToLower(c.ID), Weight: strings.ToLower(c.Weight)}
		id := strconv.Itoa(row)
		if lower.ID != "" && text(props[lower.ID]) != "" {
			id = text(props[lower.ID])
		}
		pois = append(pois, access.POI{ID: id, X: x, Y: y, Weight: lower.weight(props)})
	}
	log.Infof("read %d pois from csv", len(pois))
	return pois, nil
}
