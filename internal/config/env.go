package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// AppConfig is the process environment, loaded once at startup per
// spec.md §6.2.
type AppConfig struct {
	OPCUAServerURL                 string
	OPCUAUsername                  string
	OPCUAPassword                  string
	OPCUAReconnectIntervalSeconds  int
	OPCUAPublishingIntervalMs      int
	OPCUADefaultSamplingIntervalMs int
	OPCUAMaxReconnectAttempts      int
	OPCUAEnableDetailedLogging     bool

	EventHubEnabled          bool
	EventHubConnectionString string
	EventHubName             string

	MacManExtractIntervalMinutes int

	APIConfigPath string

	Logging LoggingConfig
}

type LoggingConfig struct {
	Enabled    bool
	Level      string
	LogsDir    string
	SavingDays int
}

// LoadEnv locates and loads the .env file per the §6.2 lookup order, then
// parses AppConfig from the resulting environment. A missing .env file at
// every candidate path is not an error; the process falls back to
// whatever is already in the environment plus the documented defaults.
func LoadEnv() *AppConfig {
	if path := locateDotEnv(); path != "" {
		_ = godotenv.Load(path)
	}

	return &AppConfig{
		OPCUAServerURL:                 getEnv("OPCUA_SERVER_URL", "opc.tcp://localhost:4840/AAE/MachineServer"),
		OPCUAUsername:                  getEnv("OPCUA_USERNAME", ""),
		OPCUAPassword:                  getEnv("OPCUA_PASSWORD", ""),
		OPCUAReconnectIntervalSeconds:  getEnvAsInt("OPCUA_RECONNECT_INTERVAL_SECONDS", 10),
		OPCUAPublishingIntervalMs:      getEnvAsInt("OPCUA_PUBLISHING_INTERVAL_MS", 1000),
		OPCUADefaultSamplingIntervalMs: getEnvAsInt("OPCUA_DEFAULT_SAMPLING_INTERVAL_MS", 1000),
		OPCUAMaxReconnectAttempts:      getEnvAsInt("OPCUA_MAX_RECONNECT_ATTEMPTS", 0),
		OPCUAEnableDetailedLogging:     getEnvAsBool("OPCUA_ENABLE_DETAILED_LOGGING", true),

		EventHubEnabled:          getEnvAsBool("EVENTHUB_ENABLED", false),
		EventHubConnectionString: getEnv("EVENTHUB_CONNECTION_STRING", ""),
		EventHubName:             getEnv("EVENTHUB_NAME", ""),

		MacManExtractIntervalMinutes: getEnvAsInt("MACMAN_EXTRACT_INTERVAL_MINUTES", 1),

		APIConfigPath: getEnv("API_CONFIG_PATH", "config/api_config.json"),

		Logging: LoggingConfig{
			Enabled:    getEnvAsBool("OPCUA_ENABLE_DETAILED_LOGGING", true),
			Level:      getEnv("LOG_LEVEL", "INFO"),
			LogsDir:    getEnv("LOG_DIR", "logs"),
			SavingDays: getEnvAsInt("LOG_SAVING_DAYS", 14),
		},
	}
}

// locateDotEnv walks the §6.2 candidate list in order and returns the
// first path that exists, or "" if none do.
func locateDotEnv() string {
	candidates := make([]string, 0, 4)

	if root := findProjectRoot("."); root != "" {
		candidates = append(candidates, filepath.Join(root, "config", ".env"))
	}
	if wd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(wd, "config", ".env"))
	}
	candidates = append(candidates, filepath.Join("..", "..", "..", "config", ".env"))
	candidates = append(candidates, "./.env")

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// findProjectRoot walks up from start looking for a go.mod, the marker of
// the project root.
func findProjectRoot(start string) string {
	dir, err := filepath.Abs(start)
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(name string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(name, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	val, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return val
}
