package datastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGraphIdFields(t *testing.T) {
	t.Run("round trip level tile index", func(t *testing.T) {
		g := NewGraphId(756425, 3, 128)
		assert.Equal(t, uint8(3), g.Level())
		assert.Equal(t, uint32(756425), g.TileID())
		assert.Equal(t, uint32(128), g.Index())
	})

	t.Run("max field values", func(t *testing.T) {
		g := NewGraphId(maxTileID, maxLevel, maxIndex)
		assert.Equal(t, uint8(maxLevel), g.Level())
		assert.Equal(t, uint32(maxTileID), g.TileID())
		assert.Equal(t, uint32(maxIndex), g.Index())
	})

	t.Run("tile base zeroes index", func(t *testing.T) {
		g := NewGraphId(42, 2, 999)
		base := g.TileBase()
		assert.Equal(t, uint32(0), base.Index())
		assert.Equal(t, g.Level(), base.Level())
		assert.Equal(t, g.TileID(), base.TileID())
		assert.Equal(t, base, NewGraphId(42, 2, 0))
	})

	t.Run("with index keeps tile and level", func(t *testing.T) {
		g := NewGraphId(42, 2, 7)
		h := g.WithIndex(1000)
		assert.Equal(t, uint32(1000), h.Index())
		assert.Equal(t, g.TileBase(), h.TileBase())
	})
}

func TestGraphIdValidity(t *testing.T) {
	assert.False(t, InvalidGraphId().IsValid())
	assert.True(t, NewGraphId(0, 0, 0).IsValid())
	assert.True(t, NewGraphId(756425, 3, 0).IsValid())
}

func TestGraphIdString(t *testing.T) {
	assert.Equal(t, "2/42/7", NewGraphId(42, 2, 7).String())
}
