package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Load overlays the YAML file at path onto the global configuration. Keys
// missing from the file keep their current values.
func Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return Decode(data)
}

// Decode overlays YAML data onto the global configuration.
func Decode(data []byte) error {
	f := File{Sync: Sync, Motion: Motion, Server: Server, Client: Client}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	if err := f.Sync.Validate(); err != nil {
		return err
	}
	Sync, Motion, Server, Client = f.Sync, f.Motion, f.Server, f.Client
	return nil
}

// BindSyncFlags registers the synchronization options on fs, writing into c.
func BindSyncFlags(fs *pflag.FlagSet, c *SyncConfig) {
	fs.BoolVar(&c.SyncPosition, "sync-position", c.SyncPosition, "Synchronize position")
	fs.BoolVar(&c.SyncRotation, "sync-rotation", c.SyncRotation, "Synchronize rotation")
	fs.BoolVar(&c.SyncScale, "sync-scale", c.SyncScale, "Synchronize scale")
	fs.IntVar(&c.OffsetMinMs, "offset-min", c.OffsetMinMs, "Minimum render delay (ms)")
	fs.IntVar(&c.OffsetMaxMs, "offset-max", c.OffsetMaxMs, "Maximum render delay (ms)")
	fs.IntVar(&c.InitialOffsetMs, "offset-initial", c.InitialOffsetMs, "Render delay at session start (ms)")
	fs.IntVar(&c.TickRate, "tickrate", c.TickRate, "Authority sync ticks per second")
	fs.IntVar(&c.RenderRate, "renderrate", c.RenderRate, "Observer render frames per second")
	fs.IntVar(&c.InboxSize, "inbox", c.InboxSize, "Pending snapshots per object before drops")
}

// ReapplySyncFlags parses args a second time into Sync so that flags given on
// the command line override values loaded from a file. Unrelated flags are
// skipped.
func ReapplySyncFlags(args []string) error {
	fs := pflag.NewFlagSet("sync", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.Usage = func() {}
	BindSyncFlags(fs, &Sync)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("sync flags: %w", err)
	}
	return Sync.Validate()
}
