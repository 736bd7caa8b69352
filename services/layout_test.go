package services

import (
	"os"
	"path/filepath"
	"testing"

	"wms-core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLayout = `
name: sample
floors:
  - index: 0
    name: ground
    width: 7
    height: 5
    zones:
      - name: front
        kind: walkable
        rects: [{x0: 0, y0: 0, x1: 6, y1: 0}]
      - name: rack-a
        kind: storage
        rects: [{x0: 1, y0: 1, x1: 5, y1: 1}]
      - name: rack-b
        kind: storage
        hazmat_safe: true
        rects: [{x0: 1, y0: 3, x1: 5, y1: 3}]
    exits: [{x: 0, y: 0}]
tuning:
  search_radius: 2
  scoring:
    fast_multiplier: 0.25
`

func TestParseLayoutKeepsDefaultTuning(t *testing.T) {
	layout, err := ParseLayout([]byte(sampleLayout))
	require.NoError(t, err)

	assert.Equal(t, "sample", layout.Name)
	require.Len(t, layout.Floors, 1)
	assert.True(t, layout.Floors[0].Zones[2].HazmatSafe)
	assert.False(t, layout.CreatedAt.IsZero())

	def := models.DefaultTuning()
	assert.Equal(t, 2, layout.Tuning.SearchRadius)
	assert.InDelta(t, 0.25, layout.Tuning.Scoring.FastMultiplier, 1e-9)
	assert.InDelta(t, def.Scoring.SlowMultiplier, layout.Tuning.Scoring.SlowMultiplier, 1e-9)
	assert.InDelta(t, def.TravelSpeed, layout.Tuning.TravelSpeed, 1e-9)
	assert.Equal(t, def.FloorChangeCost, layout.Tuning.FloorChangeCost)
	assert.Equal(t, def.Override.MinJustificationLength, layout.Tuning.Override.MinJustificationLength)
}

func TestParseLayoutRejects(t *testing.T) {
	tests := map[string]string{
		"unknown field":   "name: x\ncolour: red\nfloors: []\n",
		"not yaml":        "floors: [",
		"no floors":       "name: empty\n",
		"bad tuning":      sampleLayout + "  travel_speed: 0\n",
		"bad radius":      "name: r\nfloors:\n  - {index: 0, width: 2, height: 2}\ntuning:\n  search_radius: 0\n",
		"duplicate floor": "name: d\nfloors:\n  - {index: 0, width: 2, height: 2}\n  - {index: 0, width: 3, height: 3}\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseLayout([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalidLayout)
		})
	}
}

func TestLoadLayoutFile(t *testing.T) {
	_, err := LoadLayout(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "layout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleLayout), 0o644))
	layout, err := LoadLayout(path)
	require.NoError(t, err)
	assert.Equal(t, "sample", layout.Name)
}

func TestMarshalLayoutRoundTrip(t *testing.T) {
	opts := DefaultLayoutOptions()
	opts.Name = "roundtrip"
	opts.Seed = 7
	layout, err := GenerateLayout(opts)
	require.NoError(t, err)

	data, err := MarshalLayout(layout)
	require.NoError(t, err)
	parsed, err := ParseLayout(data)
	require.NoError(t, err)

	assert.Equal(t, layout.Name, parsed.Name)
	assert.Equal(t, layout.Tuning, parsed.Tuning)
	assert.Equal(t, layout.Floors[0].Obstacles, parsed.Floors[0].Obstacles)
	assert.Equal(t, layout.Floors[0].Exits, parsed.Floors[0].Exits)

	a := newTestWarehouse(t, layout)
	b := newTestWarehouse(t, parsed)
	assert.Equal(t, a.Summaries(), b.Summaries())
}
