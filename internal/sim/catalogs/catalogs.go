package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BlockID indexes the closed block palette. The zero value is always air.
type BlockID = uint16

const (
	Air BlockID = iota
	Dirt
	Grass
	Cobble
	Bricks
	Wood
	Planks
	Leaves
	Sand
	Gravel
)

// TextureLayers is the number of layers in the block texture array.
const TextureLayers = 12

// Face selects one of the six cube faces. The order matches the per-face
// texture tables: top, bottom, left, right, front, back.
type Face int

const (
	FaceTop Face = iota
	FaceBottom
	FaceLeft
	FaceRight
	FaceFront
	FaceBack
)

type BlockDef struct {
	ID          BlockID   `json:"id"`
	Name        string    `json:"name"`
	Solid       bool      `json:"solid"`
	Transparent bool      `json:"transparent"`
	Breakable   bool      `json:"breakable"`
	Faces       [6]uint32 `json:"faces"`
}

// BlockCatalog is the authoritative table of block properties. Lookups never
// fail: an unknown id falls back to the air definition.
type BlockCatalog struct {
	Defs       map[BlockID]BlockDef
	Palette    []BlockID
	DefsDigest string
}

func (c *BlockCatalog) def(id BlockID) BlockDef {
	if d, ok := c.Defs[id]; ok {
		return d
	}
	return BlockDef{ID: Air, Name: "air", Transparent: true}
}

func (c *BlockCatalog) Known(id BlockID) bool {
	_, ok := c.Defs[id]
	return ok
}

func (c *BlockCatalog) IsSolid(id BlockID) bool { return c.def(id).Solid }

func (c *BlockCatalog) IsTransparent(id BlockID) bool { return c.def(id).Transparent }

func (c *BlockCatalog) IsBreakable(id BlockID) bool { return c.def(id).Breakable }

// TextureLayer resolves the atlas layer for one face of a block.
func (c *BlockCatalog) TextureLayer(id BlockID, f Face) uint32 {
	if f < FaceTop || f > FaceBack {
		return 0
	}
	return c.def(id).Faces[f]
}

// Opaque reports whether a voxel of this type hides the face of a neighboring
// voxel. Air and transparent blocks never do.
func (c *BlockCatalog) Opaque(id BlockID) bool {
	d := c.def(id)
	return d.Solid && !d.Transparent
}

func uniform(layer uint32) [6]uint32 {
	return [6]uint32{layer, layer, layer, layer, layer, layer}
}

// defaultBlockDefs is the compiled-in palette. Face layer assignments follow
// the shared texture atlas layout (12 layers, layer 0 reserved).
func defaultBlockDefs() []BlockDef {
	return []BlockDef{
		{ID: Air, Name: "air", Transparent: true},
		{ID: Dirt, Name: "dirt", Solid: true, Breakable: true, Faces: uniform(1)},
		{ID: Grass, Name: "grass", Solid: true, Breakable: true, Faces: [6]uint32{2, 1, 3, 3, 3, 3}},
		{ID: Cobble, Name: "cobble", Solid: true, Breakable: true, Faces: uniform(4)},
		{ID: Bricks, Name: "bricks", Solid: true, Breakable: true, Faces: uniform(7)},
		{ID: Wood, Name: "wood", Solid: true, Breakable: true, Faces: [6]uint32{10, 10, 11, 11, 11, 11}},
		{ID: Planks, Name: "planks", Solid: true, Breakable: true, Faces: uniform(5)},
		{ID: Leaves, Name: "leaves", Solid: true, Transparent: true, Breakable: true, Faces: uniform(9)},
		{ID: Sand, Name: "sand", Solid: true, Breakable: true, Faces: uniform(6)},
		{ID: Gravel, Name: "gravel", Solid: true, Breakable: true, Faces: uniform(8)},
	}
}

const blockSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "name"],
    "properties": {
      "id": {"type": "integer", "minimum": 0, "maximum": 65535},
      "name": {"type": "string", "minLength": 1},
      "solid": {"type": "boolean"},
      "transparent": {"type": "boolean"},
      "breakable": {"type": "boolean"},
      "faces": {
        "type": "array",
        "items": {"type": "integer", "minimum": 0},
        "minItems": 6,
        "maxItems": 6
      }
    },
    "additionalProperties": false
  }
}`

// Default returns the compiled-in block catalog.
func Default() *BlockCatalog {
	c, err := fromDefs(defaultBlockDefs())
	if err != nil {
		// The compiled-in table is validated by tests; this cannot happen at runtime.
		panic(err)
	}
	return c
}

// Load builds the block catalog, overriding the compiled-in defaults with
// blocks.json from the given path when it exists. The override is validated
// against the embedded schema before use.
func Load(path string) (*BlockCatalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	schema, err := jsonschema.CompileString("blocks.schema.json", blockSchema)
	if err != nil {
		return nil, fmt.Errorf("blocks schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("blocks.json: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("blocks.json: %w", err)
	}

	var defs []BlockDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("blocks.json: %w", err)
	}
	c, err := fromDefs(defs)
	if err != nil {
		return nil, fmt.Errorf("blocks.json: %w", err)
	}
	return c, nil
}

func fromDefs(defs []BlockDef) (*BlockCatalog, error) {
	out := &BlockCatalog{Defs: map[BlockID]BlockDef{}}
	for _, d := range defs {
		if _, dup := out.Defs[d.ID]; dup {
			return nil, fmt.Errorf("duplicate block id %d", d.ID)
		}
		out.Defs[d.ID] = d
	}
	air, ok := out.Defs[Air]
	if !ok {
		return nil, fmt.Errorf("missing air (id 0)")
	}
	if air.Solid {
		return nil, fmt.Errorf("air must not be solid")
	}

	ids := make([]BlockID, 0, len(out.Defs))
	for id := range out.Defs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out.Palette = ids

	canon, _ := json.Marshal(orderedDefs(out))
	sum := sha256.Sum256(canon)
	out.DefsDigest = hex.EncodeToString(sum[:])
	return out, nil
}

func orderedDefs(c *BlockCatalog) []BlockDef {
	out := make([]BlockDef, 0, len(c.Palette))
	for _, id := range c.Palette {
		out = append(out, c.Defs[id])
	}
	return out
}
