package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

func ReadFile(filepath string) (*BaseConfig, error) {
	cfg := DefaultBaseConfig

	if _, err := toml.DecodeFile(filepath, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

type BaseConfig struct {
	DB        DB        `toml:"db"`
	Sequencer Sequencer `toml:"sequencer"`
	Engine    Engine    `toml:"engine"`
	Timeout   Timeout   `toml:"timeout"`
	Tokens    []Token   `toml:"tokens"`
}

var DefaultBaseConfig = BaseConfig{
	DB:        defaultDB,
	Sequencer: defaultSequencer,
	Engine:    defaultEngine,
	Timeout:   defaultTimeout,
}

// ApplyEnvOverrides lets deployment environments inject DB credentials
// without writing them into the config file.
func (cfg *BaseConfig) ApplyEnvOverrides() {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.DB.Host = host
	}

	if username := os.Getenv("DB_USERNAME"); username != "" {
		cfg.DB.Username = username
	}

	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.DB.Password = password
	}
}

type DB struct {
	// Enabled turns the receipt store on. With it off the engine runs
	// fully in memory.
	Enabled          bool   `toml:"enabled"`
	Host             string `toml:"host"`
	Port             int    `toml:"port"`
	Username         string `toml:"username"`
	Password         string `toml:"password"`
	DBName           string `toml:"db_name"`
	LogQueries       bool   `toml:"log_queries"`
	DropTableAtStart bool   `toml:"drop_table_at_start"`
	// HistoryDrop, in seconds, prunes receipts older than the interval.
	// 0 keeps everything.
	HistoryDrop uint64 `toml:"history_drop"`
}

var defaultDB = DB{
	Host: "localhost",
	Port: 5432,
}

type Sequencer struct {
	// Window bounds how far above an account's watermark a sequence
	// number may be admitted speculatively.
	Window uint64 `toml:"window"`
}

var defaultSequencer = Sequencer{
	Window: 64,
}

type Engine struct {
	MaxConcurrency int    `toml:"max_concurrency"`
	QueueSize      int    `toml:"queue_size"`
	RPCListenAddr  string `toml:"rpc_listen_addr"`
}

var defaultEngine = Engine{
	MaxConcurrency: 8,
	QueueSize:      256,
	RPCListenAddr:  "localhost:8545",
}

type Timeout struct {
	BackoffMaxElapsedTimeSeconds uint64 `toml:"backoff_max_elapsed_time_seconds"`
	RequestTimeoutMillis         uint64 `toml:"request_timeout_millis"`
}

var defaultTimeout = Timeout{
	BackoffMaxElapsedTimeSeconds: 300,
	RequestTimeoutMillis:         3000,
}

// Token declares a contract to register at startup, with its airdrop list
// of hex addresses receiving the initial balance.
type Token struct {
	ID             string   `toml:"id"`
	Airdrop        []string `toml:"airdrop"`
	InitialBalance uint64   `toml:"initial_balance"`
}
