package geodata_test

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"git.fiblab.net/sim/accessibility/geodata"
	"git.fiblab.net/sim/accessibility/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyOf(u, v int64, key int) network.EdgeKey {
	return network.EdgeKey{U: u, V: v, Key: key}
}

func TestWriteScoresCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, geodata.WriteScoresCSV(&buf, map[string]float64{"b": 0.25, "a": 3, "c,d": 0}))
	assert.Equal(t, "area_id,score\na,3\nb,0.25\n\"c,d\",0\n", buf.String())
}

func TestReadPOIsCSV(t *testing.T) {
	const in = "Name,X,Y,capacity\nclinic,1.5,2,10\nschool, 3,4,\n"
	pois, err := geodata.ReadPOIsCSV(strings.NewReader(in), geodata.Columns{ID: "name", Weight: "Capacity"})
	require.NoError(t, err)
	require.Len(t, pois, 2)
	assert.Equal(t, "clinic", pois[0].ID)
	assert.Equal(t, 1.5, pois[0].X)
	assert.Equal(t, 10.0, pois[0].Weight)
	assert.Equal(t, "school", pois[1].ID)
	assert.Equal(t, 3.0, pois[1].X)
	assert.True(t, math.IsNaN(pois[1].Weight))

	_, err = geodata.ReadPOIsCSV(strings.NewReader("a,b\n1,2\n"), geodata.Columns{})
	assert.ErrorIs(t, err, geodata.ErrMissingProperty)
	_, err = geodata.ReadPOIsCSV(strings.NewReader("x,y\n1,north\n"), geodata.Columns{})
	assert.ErrorIs(t, err, geodata.ErrFormat)
}
