package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Logging    LoggingConfig     `yaml:"logging"`
	Scene      SceneConfig       `yaml:"scene"`
	Physics    PhysicsConfig     `yaml:"physics"`
	Spawn      SpawnConfig       `yaml:"spawn"`
	Viewpoints []ViewpointConfig `yaml:"viewpoints"`
	TickRate   int               `yaml:"tick_rate"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type SceneConfig struct {
	Layout  string `yaml:"layout"`
	Members string `yaml:"members"`
	Watch   bool   `yaml:"watch"`
}

type PhysicsConfig struct {
	Gravity        float64 `yaml:"gravity"`
	JumpHeight     float64 `yaml:"jump_height"`
	Damping        float64 `yaml:"damping"`
	Acceleration   float64 `yaml:"acceleration"`
	Radius         float64 `yaml:"radius"`
	StandingHeight float64 `yaml:"standing_height"`
}

type SpawnConfig struct {
	Position [3]float64 `yaml:"position"`
	Yaw      float64    `yaml:"yaw"`
}

type ViewpointConfig struct {
	Name     string     `yaml:"name"`
	Position [3]float64 `yaml:"position"`
	Target   [3]float64 `yaml:"target"`
}

const (
	DefaultTickRate = 60
	DefaultLayout   = "configs/chamber.yaml"
	DefaultMembers  = "configs/members.yaml"
)

func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Format: "console", File: "logs/parliament.log"},
		Scene:   SceneConfig{Layout: DefaultLayout, Members: DefaultMembers},
		Spawn:   SpawnConfig{Position: [3]float64{0, 1.6, -8}},
		Viewpoints: []ViewpointConfig{
			{Name: "gallery", Position: [3]float64{0, 12, -16}, Target: [3]float64{0, 0, 0}},
			{Name: "speaker", Position: [3]float64{0, 4, 11}, Target: [3]float64{0, 1, 0}},
			{Name: "above", Position: [3]float64{0, 24, 0.1}, Target: [3]float64{0, 0, 0}},
		},
		TickRate: DefaultTickRate,
	}
}

func Load(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills only the fields left empty in the file. Physics zeros
// are resolved later by physics.Params.WithDefaults.
func (c *Config) applyDefaults() {
	d := Default()
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = d.Logging.Format
	}
	if c.Scene.Layout == "" {
		c.Scene.Layout = d.Scene.Layout
	}
	if c.Scene.Members == "" {
		c.Scene.Members = d.Scene.Members
	}
	if c.TickRate <= 0 {
		c.TickRate = d.TickRate
	}
	if c.Spawn.Position == ([3]float64{}) {
		c.Spawn = d.Spawn
	}
	if len(c.Viewpoints) == 0 {
		c.Viewpoints = d.Viewpoints
	}
}

func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Viewpoints))
	for i, vp := range c.Viewpoints {
		if vp.Name == "" {
			return fmt.Errorf("viewpoints[%d]: name is empty", i)
		}
		if seen[vp.Name] {
			return fmt.Errorf("viewpoints[%d]: duplicate name %q", i, vp.Name)
		}
		seen[vp.Name] = true
		if vp.Position == vp.Target {
			return fmt.Errorf("viewpoint %q: position equals target", vp.Name)
		}
	}
	if c.Physics.Gravity < 0 || c.Physics.JumpHeight < 0 || c.Physics.Radius < 0 || c.Physics.StandingHeight < 0 {
		return fmt.Errorf("physics: values must not be negative")
	}
	return nil
}
