package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/ini.v1"
)

// DefaultNames is the name pool used when the config file does not
// define one. Names are handed out from the end of the list.
var DefaultNames = []string{"John", "Jill", "Smith", "Bella"}

// Config holds all configuration for the chat server
type Config struct {
	Chat struct {
		Interface string
		Port      int
		Names     []string
		// Seconds of inactivity before a connected user is dropped.
		// 0 disables the idle reaper.
		DropNoActivity  int
		TraceLogEnabled bool
	}

	HTTP struct {
		Enabled   bool
		Interface string
		Port      int
		Logins    map[string]string
	}

	History struct {
		DatabasePath string
		ReplayLimit  int
	}

	Paths struct {
		LogPath  string
		BasePath string
	}
}

// envOverrides are environment variables that take precedence over the
// INI file. All are optional.
type envOverrides struct {
	Port    int    `env:"CHAT_PORT"`
	LogPath string `env:"LOG_PATH"`
	DBPath  string `env:"CHAT_DB_PATH"`
}

// LoadConfig loads the configuration from the specified INI file
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	// Set default values
	cfg.Chat.Interface = "0.0.0.0"
	cfg.Chat.Port = 9090
	cfg.Chat.Names = append([]string(nil), DefaultNames...)
	cfg.Chat.DropNoActivity = 0
	cfg.Chat.TraceLogEnabled = false

	cfg.HTTP.Enabled = true
	cfg.HTTP.Interface = "0.0.0.0"
	cfg.HTTP.Port = 9091
	cfg.HTTP.Logins = make(map[string]string)

	cfg.History.ReplayLimit = 50

	// Check if config file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	// Load INI file
	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("cannot load config file: %v", err)
	}

	// Set base path based on executable location
	execPath, err := os.Executable()
	if err != nil {
		execPath = "."
	}
	cfg.Paths.BasePath = filepath.Dir(execPath)

	// [SRV_CHAT] section
	chatSec := iniFile.Section("SRV_CHAT")
	cfg.Chat.Interface = chatSec.Key("Chat_IPInterface").MustString("0.0.0.0")
	cfg.Chat.Port = chatSec.Key("Chat_Port").MustInt(9090)
	cfg.Chat.DropNoActivity = chatSec.Key("DropNoActivity").MustInt(0)
	cfg.Chat.TraceLogEnabled = chatSec.Key("TraceLogEnabled").MustBool(false)

	if names := chatSec.Key("Names").String(); names != "" {
		cfg.Chat.Names = cfg.Chat.Names[:0]
		for _, name := range strings.Split(names, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				cfg.Chat.Names = append(cfg.Chat.Names, name)
			}
		}
	}
	if len(cfg.Chat.Names) == 0 {
		return nil, fmt.Errorf("name pool is empty")
	}

	// [SRV_HTTP] section
	httpSec := iniFile.Section("SRV_HTTP")
	cfg.HTTP.Enabled = httpSec.Key("HTTP_Enabled").MustBool(true)
	cfg.HTTP.Interface = httpSec.Key("HTTP_IPInterface").MustString("0.0.0.0")
	cfg.HTTP.Port = httpSec.Key("HTTP_Port").MustInt(9091)

	// [SRV_HTTPLOGINS] section
	loginSec := iniFile.Section("SRV_HTTPLOGINS")
	for _, key := range loginSec.Keys() {
		cfg.HTTP.Logins[key.Name()] = key.String()
	}

	// If no logins defined, add a default
	if len(cfg.HTTP.Logins) == 0 {
		cfg.HTTP.Logins["user"] = "pass$123"
	}

	// [SRV_HISTORY] section
	histSec := iniFile.Section("SRV_HISTORY")
	cfg.History.DatabasePath = histSec.Key("DatabasePath").String()
	cfg.History.ReplayLimit = histSec.Key("ReplayLimit").MustInt(50)

	// Set paths
	cfg.Paths.LogPath = filepath.Join(cfg.Paths.BasePath, "logs")
	if cfg.History.DatabasePath == "" {
		cfg.History.DatabasePath = filepath.Join(cfg.Paths.BasePath, "chat.db")
	}

	// Environment variables override the file
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return nil, fmt.Errorf("cannot parse environment: %v", err)
	}
	if overrides.Port != 0 {
		cfg.Chat.Port = overrides.Port
	}
	if overrides.LogPath != "" {
		cfg.Paths.LogPath = overrides.LogPath
	}
	if overrides.DBPath != "" {
		cfg.History.DatabasePath = overrides.DBPath
	}

	if err := os.MkdirAll(cfg.Paths.LogPath, 0755); err != nil {
		return nil, fmt.Errorf("cannot create log directory: %v", err)
	}

	return &cfg, nil
}

// Save writes the current configuration to the specified file
func (c *Config) Save(path string) error {
	file := ini.Empty()

	// [SRV_CHAT] section
	chatSec, _ := file.NewSection("SRV_CHAT")
	chatSec.NewKey("Chat_IPInterface", c.Chat.Interface)
	chatSec.NewKey("Chat_Port", fmt.Sprintf("%d", c.Chat.Port))
	chatSec.NewKey("Names", strings.Join(c.Chat.Names, ","))
	chatSec.NewKey("DropNoActivity", fmt.Sprintf("%d", c.Chat.DropNoActivity))
	chatSec.NewKey("TraceLogEnabled", fmt.Sprintf("%t", c.Chat.TraceLogEnabled))

	// [SRV_HTTP] section
	httpSec, _ := file.NewSection("SRV_HTTP")
	httpSec.NewKey("HTTP_Enabled", fmt.Sprintf("%t", c.HTTP.Enabled))
	httpSec.NewKey("HTTP_IPInterface", c.HTTP.Interface)
	httpSec.NewKey("HTTP_Port", fmt.Sprintf("%d", c.HTTP.Port))

	// [SRV_HTTPLOGINS] section
	loginSec, _ := file.NewSection("SRV_HTTPLOGINS")
	for user, pass := range c.HTTP.Logins {
		loginSec.NewKey(user, pass)
	}

	// [SRV_HISTORY] section
	histSec, _ := file.NewSection("SRV_HISTORY")
	histSec.NewKey("DatabasePath", c.History.DatabasePath)
	histSec.NewKey("ReplayLimit", fmt.Sprintf("%d", c.History.ReplayLimit))

	return file.SaveTo(path)
}
