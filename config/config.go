package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	DefaultHDPath = "m/44'/118'/0'/0/0"

	// MaxMemoCharacters mirrors the auth module default max_memo_characters.
	MaxMemoCharacters = 256
)

type Config struct {
	Chain     ChainConfig     `mapstructure:"chain"`
	Key       KeyConfig       `mapstructure:"key"`
	TxRelayer TxRelayerConfig `mapstructure:"tx-relayer"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`

	Database      Database `mapstructure:"database"`
	SequenceStore string   `mapstructure:"sequenceStore"`
	SequenceDBDir string   `mapstructure:"sequenceDBDir"`
}

// Backing stores for the persisted account sequences.
const (
	SequenceStoreLevelDB = "leveldb"
	SequenceStoreMysql   = "mysql"
)

type Database struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// DSN returns the go-sql-driver/mysql data source name.
func (d Database) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.Username, d.Password, d.Host, d.Port, d.DBName)
}

// ChainConfig describes the destination chain. It is passed by value into
// the submission core and never read from disk there.
type ChainConfig struct {
	ID            string  `mapstructure:"id"`
	RPCAddr       string  `mapstructure:"rpcAddr"`
	GRPCAddr      string  `mapstructure:"grpcAddr"`
	AccountPrefix string  `mapstructure:"accountPrefix"`
	GasPrice      string  `mapstructure:"gasPrice"`
	GasAdjustment float64 `mapstructure:"gasAdjustment"`
	MaxGas        uint64  `mapstructure:"maxGas"`
	FeeGranter    string  `mapstructure:"feeGranter"`
	Memo          string  `mapstructure:"memo"`

	RPCTimeout   time.Duration `mapstructure:"rpcTimeout"`
	PollInterval time.Duration `mapstructure:"pollInterval"`
}

type KeyConfig struct {
	Mnemonic   string `mapstructure:"mnemonic"`
	PrivKeyHex string `mapstructure:"privKeyHex"`
	HDPath     string `mapstructure:"hdPath"`
}

type TxRelayerConfig struct {
	BatchSize    int           `mapstructure:"batchSize"`
	MaxRetries   uint          `mapstructure:"maxRetries"`
	RetryDelay   time.Duration `mapstructure:"retryDelay"`
	IdleInterval time.Duration `mapstructure:"idleInterval"`
}

type MetricsConfig struct {
	ListenAddr string `mapstructure:"listenAddr"`
}

func (cfg *ChainConfig) Validate() error {
	if cfg.ID == "" {
		return fmt.Errorf("chain id cannot be empty")
	}
	if cfg.RPCAddr == "" {
		return fmt.Errorf("rpcAddr cannot be empty")
	}
	if cfg.GRPCAddr == "" {
		return fmt.Errorf("grpcAddr cannot be empty")
	}
	if cfg.AccountPrefix == "" {
		return fmt.Errorf("accountPrefix cannot be empty")
	}
	if _, err := sdk.ParseDecCoin(cfg.GasPrice); err != nil {
		return fmt.Errorf("invalid gasPrice %q: %w", cfg.GasPrice, err)
	}
	if cfg.GasAdjustment < 1 {
		return fmt.Errorf("gasAdjustment must be at least 1, got %f", cfg.GasAdjustment)
	}
	if cfg.MaxGas == 0 {
		return fmt.Errorf("maxGas cannot be 0")
	}
	if len(cfg.Memo) > MaxMemoCharacters {
		return fmt.Errorf("memo is %d characters, max %d", len(cfg.Memo), MaxMemoCharacters)
	}
	if cfg.RPCTimeout <= 0 {
		return fmt.Errorf("rpcTimeout must be positive")
	}
	if cfg.PollInterval <= 0 || cfg.PollInterval > cfg.RPCTimeout {
		return fmt.Errorf("pollInterval must be positive and not larger than rpcTimeout")
	}

	return nil
}

func (cfg *KeyConfig) Validate() error {
	if cfg.Mnemonic == "" && cfg.PrivKeyHex == "" {
		return fmt.Errorf("either mnemonic or privKeyHex must be set")
	}
	if cfg.Mnemonic != "" && cfg.PrivKeyHex != "" {
		return fmt.Errorf("mnemonic and privKeyHex are mutually exclusive")
	}

	return nil
}

func (cfg *TxRelayerConfig) Validate() error {
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("batchSize must be positive")
	}
	if cfg.MaxRetries == 0 {
		return fmt.Errorf("maxRetries cannot be 0")
	}

	return nil
}

func (cfg *Config) Validate() error {
	cfg.fillDefaultValueIfNotSet()
	if err := cfg.Chain.Validate(); err != nil {
		return err
	}

	if err := cfg.Key.Validate(); err != nil {
		return err
	}

	if err := cfg.TxRelayer.Validate(); err != nil {
		return err
	}

	switch cfg.SequenceStore {
	case SequenceStoreLevelDB, SequenceStoreMysql:
	default:
		return fmt.Errorf("unknown sequenceStore %q, expected %s or %s", cfg.SequenceStore, SequenceStoreLevelDB, SequenceStoreMysql)
	}

	return nil
}

func (cfg *Config) fillDefaultValueIfNotSet() {
	if cfg.Chain.AccountPrefix == "" {
		cfg.Chain.AccountPrefix = "cosmos"
	}
	if cfg.Chain.GasAdjustment == 0 {
		cfg.Chain.GasAdjustment = 1.5
	}
	if cfg.Chain.GasPrice == "" {
		cfg.Chain.GasPrice = "0.025uatom"
	}
	if cfg.Chain.MaxGas == 0 {
		cfg.Chain.MaxGas = 4_000_000
	}
	if cfg.Chain.RPCTimeout == 0 {
		cfg.Chain.RPCTimeout = time.Second * 30
	}
	if cfg.Chain.PollInterval == 0 {
		cfg.Chain.PollInterval = time.Millisecond * 500
	}
	if cfg.Key.HDPath == "" {
		cfg.Key.HDPath = DefaultHDPath
	}
	if cfg.TxRelayer.BatchSize == 0 {
		cfg.TxRelayer.BatchSize = 10
	}
	if cfg.TxRelayer.MaxRetries == 0 {
		cfg.TxRelayer.MaxRetries = 3
	}
	if cfg.TxRelayer.RetryDelay == 0 {
		cfg.TxRelayer.RetryDelay = time.Second
	}
	if cfg.TxRelayer.IdleInterval == 0 {
		cfg.TxRelayer.IdleInterval = time.Second * 6
	}
	if cfg.SequenceStore == "" {
		cfg.SequenceStore = SequenceStoreLevelDB
	}
	if cfg.SequenceDBDir == "" {
		cfg.SequenceDBDir = "./data/sequence"
	}
}

func (cfg *Config) CreateLogger(format string, debug bool) (*zap.Logger, error) {
	return NewRootLogger(format, debug)
}

// NewConfig returns a fully parsed Config object from a given file directory
func NewConfig(configFile string, overrides ...Override) (Config, error) {
	if _, err := os.Stat(configFile); err == nil { // the given file exists, parse it
		v := viper.New()
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
		var cfg Config
		if err := v.Unmarshal(&cfg); err != nil {
			return Config{}, err
		}
		ApplyOverrides(&cfg, overrides...)
		if err := cfg.Validate(); err != nil {
			return Config{}, err
		}
		return cfg, err
	} else if errors.Is(err, os.ErrNotExist) { // the given config file does not exist, return error
		return Config{}, fmt.Errorf("no config file found at %s", configFile)
	} else { // other errors
		return Config{}, err
	}
}
