// internal/config/config.go
package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Cache    CacheConfig
	Forecast ForecastConfig
	AI       AIConfig
	Risk     RiskConfig
	Storage  StorageConfig
	Drive    DriveConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	// Enabled gates all persistence; the service runs CSV-only without it.
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type AppConfig struct {
	// DataDirs is the ordered list of directories searched for the dataset.
	DataDirs        []string
	DatasetFilename string
	ReportDir       string
	DefaultItems    []string
}

type CacheConfig struct {
	Enabled             bool
	RedisURL            string
	RedisHost           string
	RedisPort           string
	RedisPassword       string
	RedisDB             int
	LatestRunTTLSeconds int
}

type ForecastConfig struct {
	URL            string
	TimeoutSeconds int
}

type AIConfig struct {
	// GeminiAPIKey must come from the environment; there is no fallback value.
	GeminiAPIKey   string
	GeminiModel    string
	TimeoutSeconds int
}

type RiskConfig struct {
	SafetyBufferPercent float64
}

type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Prefix    string
}

type DriveConfig struct {
	CredentialsFile string
	FolderPath      string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_ENABLED", false)
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "wastewatch")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("APP_DATA_DIRS", []string{"./datasets", "./data", "../datasets"})
		viper.SetDefault("APP_DATASET_FILENAME", "cleaned_restaurant_data.csv")
		viper.SetDefault("APP_REPORT_DIR", "./data/reports")
		viper.SetDefault("APP_DEFAULT_ITEMS", []string{"Paneer", "Chicken"})
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_LATEST_RUN_TTL_SECONDS", 300)
		viper.SetDefault("FORECAST_URL", "http://localhost:8000/forecast")
		viper.SetDefault("FORECAST_TIMEOUT_SECONDS", 30)
		viper.SetDefault("GEMINI_API_KEY", "")
		viper.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
		viper.SetDefault("AI_TIMEOUT_SECONDS", 20)
		viper.SetDefault("RISK_SAFETY_BUFFER_PERCENT", 10.0)
		viper.SetDefault("STORAGE_ENABLED", false)
		viper.SetDefault("STORAGE_ENDPOINT", "")
		viper.SetDefault("STORAGE_ACCESS_KEY", "")
		viper.SetDefault("STORAGE_SECRET_KEY", "")
		viper.SetDefault("STORAGE_BUCKET", "wastewatch-reports")
		viper.SetDefault("STORAGE_REGION", "us-east-1")
		viper.SetDefault("STORAGE_PREFIX", "reports")
		viper.SetDefault("DRIVE_CREDENTIALS_FILE", "")
		viper.SetDefault("DRIVE_FOLDER_PATH", "")

		// Read from environment variables
		viper.AutomaticEnv()

		// Ensure the report directory exists
		ensureDir(viper.GetString("APP_REPORT_DIR"))

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Enabled:  viper.GetBool("DB_ENABLED"),
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			App: AppConfig{
				DataDirs:        viper.GetStringSlice("APP_DATA_DIRS"),
				DatasetFilename: viper.GetString("APP_DATASET_FILENAME"),
				ReportDir:       viper.GetString("APP_REPORT_DIR"),
				DefaultItems:    viper.GetStringSlice("APP_DEFAULT_ITEMS"),
			},
			Cache: CacheConfig{
				Enabled:             viper.GetBool("CACHE_ENABLED"),
				RedisURL:            viper.GetString("REDIS_URL"),
				RedisHost:           viper.GetString("REDIS_HOST"),
				RedisPort:           viper.GetString("REDIS_PORT"),
				RedisPassword:       viper.GetString("REDIS_PASSWORD"),
				RedisDB:             viper.GetInt("REDIS_DB"),
				LatestRunTTLSeconds: viper.GetInt("CACHE_LATEST_RUN_TTL_SECONDS"),
			},
			Forecast: ForecastConfig{
				URL:            viper.GetString("FORECAST_URL"),
				TimeoutSeconds: viper.GetInt("FORECAST_TIMEOUT_SECONDS"),
			},
			AI: AIConfig{
				GeminiAPIKey:   viper.GetString("GEMINI_API_KEY"),
				GeminiModel:    viper.GetString("GEMINI_MODEL"),
				TimeoutSeconds: viper.GetInt("AI_TIMEOUT_SECONDS"),
			},
			Risk: RiskConfig{
				SafetyBufferPercent: viper.GetFloat64("RISK_SAFETY_BUFFER_PERCENT"),
			},
			Storage: StorageConfig{
				Enabled:   viper.GetBool("STORAGE_ENABLED"),
				Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
				AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
				SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
				Bucket:    viper.GetString("STORAGE_BUCKET"),
				Region:    viper.GetString("STORAGE_REGION"),
				Prefix:    viper.GetString("STORAGE_PREFIX"),
			},
			Drive: DriveConfig{
				CredentialsFile: viper.GetString("DRIVE_CREDENTIALS_FILE"),
				FolderPath:      viper.GetString("DRIVE_FOLDER_PATH"),
			},
		}
	})

	return instance
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
