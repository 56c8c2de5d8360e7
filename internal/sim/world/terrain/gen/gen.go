// Package gen holds the continuous noise fields terrain generation samples.
// Everything here is a pure function of (seed, tuning, world coordinate);
// the same inputs always produce the same outputs.
package gen

import (
	"github.com/aquilax/go-perlin"

	"github.com/offdroid/cobble/internal/sim/tuning"
	"github.com/offdroid/cobble/internal/sim/world/logic/mathx"
)

// Fields bundles the noise generators for one world seed. A Fields value is
// immutable after construction and safe to sample from any order of calls.
type Fields struct {
	cfg tuning.Generator

	height *perlin.Perlin
	detail *perlin.Perlin
	sand   *perlin.Perlin

	seed int64
}

func NewFields(seed int64, cfg tuning.Generator) *Fields {
	n := int32(cfg.Octaves)
	return &Fields{
		cfg:    cfg,
		height: perlin.NewPerlin(cfg.Alpha, cfg.Beta, n, seed),
		detail: perlin.NewPerlin(cfg.Alpha, cfg.Beta, n, seed+1),
		sand:   perlin.NewPerlin(cfg.Alpha, cfg.Beta, n, seed+2),
		seed:   seed,
	}
}

// HeightAt returns the terrain surface height for a world column. The result
// is always at least 1 so the bedrock floor is never exposed as the surface.
func (f *Fields) HeightAt(wx, wz int) int {
	x := float64(wx)
	z := float64(wz)

	base := f.height.Noise2D(x*f.cfg.HeightScale, z*f.cfg.HeightScale)
	fine := f.detail.Noise2D(x*f.cfg.DetailScale, z*f.cfg.DetailScale)

	h := f.cfg.BaseHeight + int(f.cfg.Amplitude*(base+0.25*fine))
	if h < 1 {
		h = 1
	}
	return h
}

// SandyAt reports whether a column belongs to a sand band. Mirrors the mix
// field of the original terrain: a low-frequency noise split at a fixed
// threshold.
func (f *Fields) SandyAt(wx, wz int) bool {
	v := f.sand.Noise2D(float64(wx)*f.cfg.SandScale, float64(wz)*f.cfg.SandScale)
	return v > 0.35
}

// TreeAt reports whether a tree trunk roots at this column. Tree placement is
// hash-gated rather than noise-gated so density control stays exact.
func (f *Fields) TreeAt(wx, wz int) bool {
	if f.cfg.TreePermille <= 0 {
		return false
	}
	return mathx.Hash2(f.seed+6, wx, wz)%1000 < uint64(f.cfg.TreePermille)
}

// TreeHeight returns the trunk height for a tree at this column, in [3, 5].
func (f *Fields) TreeHeight(wx, wz int) int {
	return 3 + int(mathx.Hash2(f.seed+13, wx, wz)%3)
}

// LeafAt decides whether a leaf voxel survives inside the canopy blob around
// a trunk top. dx, dy, dz are offsets from the canopy center.
func (f *Fields) LeafAt(wx, wy, wz, dx, dy, dz int) bool {
	r2 := dx*dx + dy*dy + dz*dz
	if r2 > 9 {
		return false
	}
	if r2 <= 3 {
		return true
	}
	// Carve the blob edge so canopies are not uniform spheres.
	return mathx.Hash3(f.seed+7, wx, wy, wz)%1000 < 550
}
