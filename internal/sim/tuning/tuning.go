package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	Game      Game      `yaml:"game"`
	World     World     `yaml:"world"`
	Physics   Physics   `yaml:"physics"`
	Generator Generator `yaml:"generator"`
}

type Game struct {
	Creative         bool `yaml:"creative"`
	BreakableBedrock bool `yaml:"breakable_bedrock"`
}

type World struct {
	Seed       int64 `yaml:"seed"`
	ChunkSize  int   `yaml:"chunk_size"`
	LoadRadius int   `yaml:"load_radius"`
	TickRateHz int   `yaml:"tick_rate_hz"`
}

type Physics struct {
	Gravity     float64 `yaml:"gravity"`
	WalkSpeed   float64 `yaml:"walk_speed"`
	SprintSpeed float64 `yaml:"sprint_speed"`
	SneakSpeed  float64 `yaml:"sneak_speed"`
	JumpSpeed   float64 `yaml:"jump_speed"`
	Reach       float64 `yaml:"reach"`

	PlayerWidth  float64 `yaml:"player_width"`
	PlayerHeight float64 `yaml:"player_height"`
}

type Generator struct {
	Alpha        float64 `yaml:"alpha"`
	Beta         float64 `yaml:"beta"`
	Octaves      int     `yaml:"octaves"`
	HeightScale  float64 `yaml:"height_scale"`
	DetailScale  float64 `yaml:"detail_scale"`
	SandScale    float64 `yaml:"sand_scale"`
	BaseHeight   int     `yaml:"base_height"`
	Amplitude    float64 `yaml:"amplitude"`
	TreePermille int     `yaml:"tree_permille"`
}

// Defaults mirrors the shipped cobble.yaml. A missing config file is not an
// error; the engine runs on these values.
func Defaults() Tuning {
	return Tuning{
		Game: Game{
			Creative:         true,
			BreakableBedrock: false,
		},
		World: World{
			Seed:       1337,
			ChunkSize:  32,
			LoadRadius: 1,
			TickRateHz: 30,
		},
		Physics: Physics{
			Gravity:      24.0,
			WalkSpeed:    4.5,
			SprintSpeed:  7.5,
			SneakSpeed:   1.8,
			JumpSpeed:    8.0,
			Reach:        6.0,
			PlayerWidth:  0.6,
			PlayerHeight: 1.8,
		},
		Generator: Generator{
			Alpha:        2.0,
			Beta:         2.0,
			Octaves:      3,
			HeightScale:  0.01,
			DetailScale:  0.05,
			SandScale:    0.006,
			BaseHeight:   8,
			Amplitude:    14.0,
			TreePermille: 12,
		},
	}
}

// Load reads tuning from a yaml file. A missing file yields Defaults; a file
// that exists but does not parse is an error.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("cobble.yaml: %w", err)
	}
	return t.normalized(), nil
}

func (t Tuning) normalized() Tuning {
	if t.World.ChunkSize < 8 {
		t.World.ChunkSize = 8
	}
	if t.World.LoadRadius < 1 {
		t.World.LoadRadius = 1
	}
	if t.World.TickRateHz <= 0 {
		t.World.TickRateHz = 30
	}
	if t.Physics.Reach <= 0 {
		t.Physics.Reach = 6.0
	}
	if t.Generator.Octaves <= 0 {
		t.Generator.Octaves = 3
	}
	return t
}
