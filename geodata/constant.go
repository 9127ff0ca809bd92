// Package geodata loads areas, POIs and road graphs from GeoJSON, shapefiles
// and MongoDB, and writes accessibility scores and edge load back out.
package geodata

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "geodata")

var (
	ErrFormat          = errors.New("malformed input")
	ErrMissingProperty = errors.New("missing property")
)

// Columns names the feature properties (or dbf fields) to read.
type Columns struct {
	// 空表示使用要素id（GeoJSON）或记录序号（shapefile）
	ID string `yaml:"id"`
	// 空表示权重为1；配置后缺失或无法解析的值记为NaN
	Weight string `yaml:"weight"`
}

func (c Columns) weight(props map[string]any) float64 {
	if c.Weight == "" {
		return 1
	}
	if v, ok := number(props[c.Weight]); ok {
		return v
	}
	return math.NaN()
}

// number converts a decoded property value to float64.
func number(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

func integer(v any) (int64, bool) {
	switch v := v.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return i, err == nil
	}
	f, ok := number(v)
	if !ok || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}

func text(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	b, _ := json.Marshal(v)
	return string(b)
}
