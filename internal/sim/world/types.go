package world

import (
	"github.com/offdroid/cobble/internal/sim/catalogs"
)

// Vec3i is an integer world or chunk-local coordinate.
type Vec3i struct {
	X int
	Y int
	Z int
}

func (v Vec3i) Add(o Vec3i) Vec3i {
	return Vec3i{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// ChunkKey addresses one chunk in the store.
type ChunkKey struct {
	CX int
	CY int
	CZ int
}

func (k ChunkKey) offset(dir Vec3i) ChunkKey {
	return ChunkKey{CX: k.CX + dir.X, CY: k.CY + dir.Y, CZ: k.CZ + dir.Z}
}

// faceDirs enumerates the six axis-aligned face directions together with the
// catalog face used for texture lookup. The normal axis mapping matches the
// atlas convention: front faces -X, back faces +X, left faces -Z, right +Z.
var faceDirs = [6]struct {
	Normal Vec3i
	Face   catalogs.Face
}{
	{Normal: Vec3i{Y: 1}, Face: catalogs.FaceTop},
	{Normal: Vec3i{Y: -1}, Face: catalogs.FaceBottom},
	{Normal: Vec3i{X: -1}, Face: catalogs.FaceFront},
	{Normal: Vec3i{X: 1}, Face: catalogs.FaceBack},
	{Normal: Vec3i{Z: -1}, Face: catalogs.FaceLeft},
	{Normal: Vec3i{Z: 1}, Face: catalogs.FaceRight},
}
