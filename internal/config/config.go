// Package config loads the node's YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"relaychat/internal/utils"
)

const FileName = "config.yaml"

type DHTConfig struct {
	Enabled        bool     `yaml:"enabled"`
	BootstrapPeers []string `yaml:"bootstrap_peers,omitempty"`
}

type Config struct {
	Nickname       string    `yaml:"nickname"`
	DataDir        string    `yaml:"data_dir"`
	ListenAddrs    []string  `yaml:"listen_addrs"`
	LogPort        int       `yaml:"log_port"` // 0 disables the remote logger
	DHT            DHTConfig `yaml:"dht"`
	Theme          string    `yaml:"theme"`
	SendQueueSize  int       `yaml:"send_queue_size"`
	PeerWriteQueue int       `yaml:"peer_write_queue"`
}

func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".relaychat"
	}
	return filepath.Join(home, ".relaychat")
}

func Defaults() *Config {
	return &Config{
		Nickname: "anonymous",
		DataDir:  DefaultDataDir(),
		ListenAddrs: []string{
			"/ip4/0.0.0.0/tcp/4001",
			"/ip4/0.0.0.0/udp/4001/quic-v1",
		},
		LogPort:        0,
		Theme:          "default",
		SendQueueSize:  256,
		PeerWriteQueue: 64,
	}
}

// Path returns the config file location inside dataDir.
func Path(dataDir string) string {
	return filepath.Join(dataDir, FileName)
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, utils.ConfigError("failed to read config file").WithDetails(err.Error())
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, utils.ConfigError("failed to parse config YAML").WithDetails(err.Error())
	}
	if cfg.DataDir == "" {
		cfg.DataDir = filepath.Dir(path)
	}
	return cfg, nil
}

func (c *Config) Save(path string) error {
	if !utils.IsYAMLFile(path) {
		return utils.ConfigError("config file must end in .yaml or .yml").WithDetails(path)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func (c *Config) Validate() error {
	if err := utils.ValidateName("nickname", c.Nickname); err != nil {
		return utils.ConfigError("invalid nickname").WithDetails(err.Error())
	}
	if c.DataDir == "" {
		return utils.ConfigError("data_dir must be set")
	}
	if len(c.ListenAddrs) == 0 {
		return utils.ConfigError("at least one listen address is required")
	}
	if c.LogPort < 0 || c.LogPort > 65535 {
		return utils.ConfigError("log_port out of range").WithDetails(fmt.Sprintf("%d", c.LogPort))
	}
	if c.SendQueueSize <= 0 {
		return utils.ConfigError("send_queue_size must be positive")
	}
	if c.PeerWriteQueue <= 0 {
		return utils.ConfigError("peer_write_queue must be positive")
	}
	return nil
}
