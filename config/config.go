package config

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

type Config struct {
	ServerPort           string `json:"server_port"`
	DatabasePath         string `json:"database_path"`
	JWTSecret            string `json:"jwt_secret"`
	Production           bool   `json:"production"`
	SessionDurationHours int    `json:"session_duration_hours"`

	// Planning knobs. DefaultShiftCapacity is used during bulk plan
	// generation for shifts without an explicit capacity; MaxGroupSize
	// caps how many volunteers can join one group.
	DefaultShiftCapacity int `json:"default_shift_capacity"`
	MaxGroupSize         int `json:"max_group_size"`
}

var (
	instance *Config
	once     sync.Once
)

func generateSecret(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		panic(err)
	}
	return hex.EncodeToString(bytes)
}

func getConfigPath() string {
	configDir := os.Getenv("SHIFTPLAN_CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			configDir = "."
		} else {
			configDir = filepath.Join(homeDir, ".shiftplan")
		}
	}
	return filepath.Join(configDir, "config.json")
}

func GetConfig() *Config {
	once.Do(func() {
		instance = &Config{
			ServerPort:   "8080",
			DatabasePath: "",
			JWTSecret:    "",
			Production:   false,
		}

		configPath := getConfigPath()

		// Try to load existing config
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, instance); err != nil {
				// Config file is corrupted, will use defaults
			}
		}

		// Set defaults
		if instance.SessionDurationHours == 0 {
			instance.SessionDurationHours = 24
		}
		if instance.DefaultShiftCapacity == 0 {
			instance.DefaultShiftCapacity = 5
		}
		if instance.MaxGroupSize == 0 {
			instance.MaxGroupSize = 4
		}

		// Generate secrets if not set
		needsSave := false
		if instance.JWTSecret == "" {
			instance.JWTSecret = generateSecret(32)
			needsSave = true
		}
		if instance.DatabasePath == "" {
			configDir := filepath.Dir(configPath)
			instance.DatabasePath = filepath.Join(configDir, "shiftplan.db")
			needsSave = true
		}

		// Override with environment variables
		if port := os.Getenv("SHIFTPLAN_PORT"); port != "" {
			instance.ServerPort = port
		}
		if dbPath := os.Getenv("SHIFTPLAN_DB_PATH"); dbPath != "" {
			instance.DatabasePath = dbPath
		}
		if os.Getenv("SHIFTPLAN_PRODUCTION") == "true" {
			instance.Production = true
		}
		if cap := os.Getenv("SHIFTPLAN_DEFAULT_CAPACITY"); cap != "" {
			if n, err := strconv.Atoi(cap); err == nil && n > 0 {
				instance.DefaultShiftCapacity = n
			}
		}
		if size := os.Getenv("SHIFTPLAN_MAX_GROUP_SIZE"); size != "" {
			if n, err := strconv.Atoi(size); err == nil && n > 0 {
				instance.MaxGroupSize = n
			}
		}

		// Save config if we generated new secrets
		if needsSave {
			instance.Save()
		}
	})

	return instance
}

func (c *Config) Save() error {
	configPath := getConfigPath()

	// Create config directory if it doesn't exist
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}
