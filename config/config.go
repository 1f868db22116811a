// Package config carries the cluster-tunable knobs FastCopy reads at
// startup: the four dfs.fastcopy.* / dfs.replication.min keys from the
// external configuration surface, plus the fixed pool sizes and retry
// cadences the reference implementation hard-codes as defaults.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable named in the external configuration surface.
// The zero value is not usable as is (its pool sizes and timeouts are
// zero); Default() returns the HDFS-style defaults for every field below.
type Config struct {
	// FileWaitTime bounds both per-file block-pool drain and the commit
	// poll loop. dfs.fastcopy.file.wait_time, default 30m.
	FileWaitTime time.Duration `yaml:"file_wait_time"`
	// MinReplication is the number of good replicas a block needs to be
	// considered durable. dfs.replication.min, default 1.
	MinReplication int `yaml:"min_replication"`
	// MaxDatanodeErrors quarantines a datanode once its error count
	// exceeds this. dfs.fastcopy.max.datanode.errors, default 5.
	MaxDatanodeErrors int `yaml:"max_datanode_errors"`
	// BlockPoolSize is the per-file replica fan-out concurrency.
	// dfs.fastcopy.blockRPC.pool_size, default 5.
	BlockPoolSize int `yaml:"block_pool_size"`

	// FilePoolSize is the top-level number of files copied concurrently.
	// Not an HDFS config key; exposed as the -t/--threads CLI flag.
	FilePoolSize int `yaml:"file_pool_size"`

	// AllocateRetries/AllocateBackoff govern the "not replicated yet"
	// retry loop in FileCopyJob.allocateBlock.
	AllocateRetries int           `yaml:"allocate_retries"`
	AllocateBackoff time.Duration `yaml:"allocate_backoff"`

	// CommitPollInterval is the sleep between "complete" retries.
	CommitPollInterval time.Duration `yaml:"commit_poll_interval"`

	// LeaseRenewInterval is the cadence of LeaseRenewer's keep-alive.
	LeaseRenewInterval time.Duration `yaml:"lease_renew_interval"`
}

// Default returns the HDFS-style defaults documented in spec.md §6.
func Default() Config {
	return Config{
		FileWaitTime:       30 * time.Minute,
		MinReplication:     1,
		MaxDatanodeErrors:  5,
		BlockPoolSize:      5,
		FilePoolSize:       5,
		AllocateRetries:    10,
		AllocateBackoff:    time.Second,
		CommitPollInterval: 5 * time.Second,
		LeaseRenewInterval: 30 * time.Second,
	}
}

// Load reads a YAML config file, overlaying only the keys present onto
// Default(). A missing path is not an error: callers get the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}
