package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/automoto/transformsync/shared/netconfig"
	"github.com/yohamta/donburi/ecs"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// SyncConfig controls which components are synchronized and how the observer
// tunes its render delay.
type SyncConfig struct {
	SyncPosition bool `yaml:"syncPosition"`
	SyncRotation bool `yaml:"syncRotation"`
	SyncScale    bool `yaml:"syncScale"`

	// Render delay bounds in milliseconds
	OffsetMinMs     int `yaml:"offsetMinMs"`
	OffsetMaxMs     int `yaml:"offsetMaxMs"`
	InitialOffsetMs int `yaml:"initialOffsetMs"` // Clamped into [OffsetMinMs, OffsetMaxMs]

	TickRate   int `yaml:"tickRate"`   // Authority production ticks per second
	RenderRate int `yaml:"renderRate"` // Observer frames per second
	InboxSize  int `yaml:"inboxSize"`  // Pending arrivals per observer before drops
}

// Mask returns the component selection as a wire-level mask.
func (c SyncConfig) Mask() netconfig.SyncMask {
	return netconfig.NewSyncMask(c.SyncPosition, c.SyncRotation, c.SyncScale)
}

// ClampOffset restricts ms to the configured bounds.
func (c SyncConfig) ClampOffset(ms int) int {
	return max(c.OffsetMinMs, min(ms, c.OffsetMaxMs))
}

// TickInterval is the period of the authority production tick.
func (c SyncConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// RenderInterval is the period of the observer render tick.
func (c SyncConfig) RenderInterval() time.Duration {
	return time.Second / time.Duration(c.RenderRate)
}

// Validate rejects settings that would break the controller or the tick loops.
func (c SyncConfig) Validate() error {
	if c.OffsetMinMs < 1 {
		return fmt.Errorf("offsetMinMs must be >= 1, got %d: %w", c.OffsetMinMs, ErrInvalidConfig)
	}
	if c.OffsetMaxMs < c.OffsetMinMs {
		return fmt.Errorf("offsetMaxMs (%d) must be >= offsetMinMs (%d): %w",
			c.OffsetMaxMs, c.OffsetMinMs, ErrInvalidConfig)
	}
	if c.Mask() == 0 {
		return fmt.Errorf("at least one of position, rotation or scale must be synced: %w", ErrInvalidConfig)
	}
	if c.TickRate <= 0 {
		return fmt.Errorf("tickRate must be positive, got %d: %w", c.TickRate, ErrInvalidConfig)
	}
	if c.RenderRate <= 0 {
		return fmt.Errorf("renderRate must be positive, got %d: %w", c.RenderRate, ErrInvalidConfig)
	}
	if c.InboxSize <= 0 {
		return fmt.Errorf("inboxSize must be positive, got %d: %w", c.InboxSize, ErrInvalidConfig)
	}
	return nil
}

// MotionConfig drives the scripted movement of demo objects on the authority.
type MotionConfig struct {
	Distance   float64 `yaml:"distance"`   // Units travelled per leg
	LegSeconds float64 `yaml:"legSeconds"` // Duration of one leg
	Hold       float64 `yaml:"holdSeconds"`
	Spin       float64 `yaml:"spin"` // Radians of yaw added per leg
}

// ServerConfig contains authority server options.
type ServerConfig struct {
	Port        uint   `yaml:"port"`
	Name        string `yaml:"name"`
	Objects     int    `yaml:"objects"` // Number of demo objects to spawn
	MetricsAddr string `yaml:"metricsAddr"`
}

// ClientConfig contains observer options.
type ClientConfig struct {
	Address     string        `yaml:"address"`
	MetricsAddr string        `yaml:"metricsAddr"`
	Duration    time.Duration `yaml:"duration"` // Zero runs until interrupted

	// Loopback simulation
	Loopback    bool          `yaml:"loopback"`
	DropRate    float64       `yaml:"dropRate"`
	Latency     time.Duration `yaml:"latency"`
	LogInterval time.Duration `yaml:"logInterval"`
}

// File is the on-disk layout accepted by Load.
type File struct {
	Sync   SyncConfig   `yaml:"sync"`
	Motion MotionConfig `yaml:"motion"`
	Server ServerConfig `yaml:"server"`
	Client ClientConfig `yaml:"client"`
}

// Global configuration instances
var Sync SyncConfig
var Motion MotionConfig
var Server ServerConfig
var Client ClientConfig

// LayerDefault is the ECS layer every tracked object lives on.
const LayerDefault ecs.LayerID = 0

func init() {
	Sync = DefaultSync()

	Motion = MotionConfig{
		Distance:   10,
		LegSeconds: 2,
		Hold:       1.5,
		Spin:       1.5707963267948966, // Quarter turn
	}

	Server = ServerConfig{
		Port:        7373,
		Name:        "transformsync",
		Objects:     1,
		MetricsAddr: ":9373",
	}

	Client = ClientConfig{
		Address:     "localhost:7373",
		MetricsAddr: "",
		DropRate:    0.05,
		Latency:     80 * time.Millisecond,
		LogInterval: time.Second,
	}
}

// DefaultSync returns the stock synchronization settings.
func DefaultSync() SyncConfig {
	return SyncConfig{
		SyncPosition:    true,
		SyncRotation:    true,
		SyncScale:       true,
		OffsetMinMs:     1,
		OffsetMaxMs:     3000,
		InitialOffsetMs: 100,
		TickRate:        60,
		RenderRate:      60,
		InboxSize:       256,
	}
}
