package config

import "time"

// Sync configures the replicator and the connectivity watcher.
type Sync struct {
	ProbeInterval time.Duration `env:"SYNC_PROBE_INTERVAL" envDefault:"15s"`
	DrainOnStart  bool          `env:"SYNC_DRAIN_ON_START" envDefault:"true"`
	TaskBuffer    int           `env:"SYNC_TASK_BUFFER" envDefault:"256"`
}
