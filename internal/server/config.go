package server

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/c32poker/pineapple/internal/room"
)

// dataDirEnv overrides the storage root when set.
const dataDirEnv = "PINEAPPLE_DATA_DIR"

// Config is the complete server configuration.
type Config struct {
	Server       Settings
	RoomDefaults RoomDefaults
	Storage      StorageSettings
}

// fileConfig is the HCL shape; every block is optional.
type fileConfig struct {
	Server       *Settings        `hcl:"server,block"`
	RoomDefaults *RoomDefaults    `hcl:"room_defaults,block"`
	Storage      *StorageSettings `hcl:"storage,block"`
}

// Settings contains server-level configuration.
type Settings struct {
	Address   string `hcl:"address,optional"`
	Port      int    `hcl:"port,optional"`
	LogLevel  string `hcl:"log_level,optional"`
	JWTSecret string `hcl:"jwt_secret,optional"`
}

// RoomDefaults are the parameters applied to rooms created without
// explicit values. Money fields are in chips (two decimal places).
type RoomDefaults struct {
	MaxPlayers          int     `hcl:"max_players,optional"`
	SmallBlind          float64 `hcl:"small_blind,optional"`
	BigBlind            float64 `hcl:"big_blind,optional"`
	BuyInMin            float64 `hcl:"buy_in_min,optional"`
	BuyInMax            float64 `hcl:"buy_in_max,optional"`
	TurnSeconds         int     `hcl:"turn_seconds,optional"`
	IdleMinutes         int     `hcl:"idle_minutes,optional"`
	GameDurationMinutes int     `hcl:"game_duration_minutes,optional"`
}

// StorageSettings configure persistence.
type StorageSettings struct {
	DataDir     string `hcl:"data_dir,optional"`
	PostgresDSN string `hcl:"postgres_dsn,optional"`
	// InitialBalance seeds in-memory accounts when no database is
	// configured.
	InitialBalance float64 `hcl:"initial_balance,optional"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Server: Settings{
			Address:   "localhost",
			Port:      8080,
			LogLevel:  "info",
			JWTSecret: "",
		},
		RoomDefaults: RoomDefaults{
			MaxPlayers:          8,
			SmallBlind:          0.5,
			BigBlind:            1,
			BuyInMin:            20,
			BuyInMax:            500,
			TurnSeconds:         30,
			IdleMinutes:         30,
			GameDurationMinutes: 120,
		},
		Storage: StorageSettings{
			DataDir:        "data",
			InitialBalance: 1000,
		},
	}
}

// LoadConfig loads configuration from an HCL file. A missing file means
// defaults; PINEAPPLE_DATA_DIR overrides the storage root either way.
func LoadConfig(filename string) (*Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(filename); err == nil {
		parser := hclparse.NewParser()
		file, diags := parser.ParseHCLFile(filename)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
		}
		var parsed fileConfig
		diags = gohcl.DecodeBody(file.Body, nil, &parsed)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
		}
		merge(config, &parsed)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	if dir := os.Getenv(dataDirEnv); dir != "" {
		config.Storage.DataDir = dir
	}
	return config, nil
}

// merge overlays the parsed file onto the defaults. Zero values in the
// file keep the default.
func merge(c *Config, f *fileConfig) {
	if f.Server != nil {
		s := f.Server
		if s.Address != "" {
			c.Server.Address = s.Address
		}
		if s.Port != 0 {
			c.Server.Port = s.Port
		}
		if s.LogLevel != "" {
			c.Server.LogLevel = s.LogLevel
		}
		if s.JWTSecret != "" {
			c.Server.JWTSecret = s.JWTSecret
		}
	}
	if f.RoomDefaults != nil {
		rd, d := f.RoomDefaults, &c.RoomDefaults
		if rd.MaxPlayers != 0 {
			d.MaxPlayers = rd.MaxPlayers
		}
		if rd.SmallBlind != 0 {
			d.SmallBlind = rd.SmallBlind
		}
		if rd.BigBlind != 0 {
			d.BigBlind = rd.BigBlind
		}
		if rd.BuyInMin != 0 {
			d.BuyInMin = rd.BuyInMin
		}
		if rd.BuyInMax != 0 {
			d.BuyInMax = rd.BuyInMax
		}
		if rd.TurnSeconds != 0 {
			d.TurnSeconds = rd.TurnSeconds
		}
		if rd.IdleMinutes != 0 {
			d.IdleMinutes = rd.IdleMinutes
		}
		if rd.GameDurationMinutes != 0 {
			d.GameDurationMinutes = rd.GameDurationMinutes
		}
	}
	if f.Storage != nil {
		st := f.Storage
		if st.DataDir != "" {
			c.Storage.DataDir = st.DataDir
		}
		if st.PostgresDSN != "" {
			c.Storage.PostgresDSN = st.PostgresDSN
		}
		if st.InitialBalance != 0 {
			c.Storage.InitialBalance = st.InitialBalance
		}
	}
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	rd := c.RoomDefaults
	if rd.SmallBlind <= 0 {
		return fmt.Errorf("small blind must be positive")
	}
	if rd.BigBlind <= rd.SmallBlind {
		return fmt.Errorf("big blind must be greater than small blind")
	}
	if rd.MaxPlayers < 2 || rd.MaxPlayers > 8 {
		return fmt.Errorf("max players must be between 2 and 8")
	}
	if rd.BuyInMin >= rd.BuyInMax {
		return fmt.Errorf("buy-in minimum must be less than maximum")
	}
	if rd.TurnSeconds <= 0 {
		return fmt.Errorf("turn seconds must be positive")
	}
	return nil
}

// ListenAddress returns the host:port to bind.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// SnapshotPath returns the registry snapshot file under the data dir.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.Storage.DataDir, "rooms.json")
}

// RegistryDefaults converts the room defaults into registry form.
func (c *Config) RegistryDefaults() room.Defaults {
	rd := c.RoomDefaults
	return room.Defaults{
		MaxPlayers:   rd.MaxPlayers,
		SmallBlind:   int64(rd.SmallBlind * 100),
		BigBlind:     int64(rd.BigBlind * 100),
		BuyInMin:     int64(rd.BuyInMin * 100),
		BuyInMax:     int64(rd.BuyInMax * 100),
		TurnTime:     time.Duration(rd.TurnSeconds) * time.Second,
		GameDuration: time.Duration(rd.GameDurationMinutes) * time.Minute,
		IdleLimit:    time.Duration(rd.IdleMinutes) * time.Minute,
	}
}
