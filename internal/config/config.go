package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the service settings. Every key can be set through the
// environment variable of the same name in upper case, or in an optional
// YAML/JSON file named by CONFIG_FILE; the environment wins.
type Config struct {
	Host               string        `mapstructure:"host"`
	Port               string        `mapstructure:"port"`
	GinMode            string        `mapstructure:"gin_mode"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	AnalysisTimeout    time.Duration `mapstructure:"analysis_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
	MaxRequestBodySize int64         `mapstructure:"max_request_body_size"`
	MaxUploadBytes     int64         `mapstructure:"max_upload_bytes"`
	MaxImagePixels     int64         `mapstructure:"max_image_pixels"`
	Workers            int           `mapstructure:"workers"`
	TopBoxes           int           `mapstructure:"top_boxes"`
	LogLevel           string        `mapstructure:"log_level"`

	// Model artifacts
	ArtifactSource    string        `mapstructure:"artifact_source"`
	ArtifactLocation  string        `mapstructure:"artifact_location"`
	AzureAccount      string        `mapstructure:"azure_storage_account"`
	AzureKey          string        `mapstructure:"azure_storage_key"`
	ModelFile         string        `mapstructure:"model_file"`
	ScalerFile        string        `mapstructure:"scaler_file"`
	FeatureConfigFile string        `mapstructure:"feature_config_file"`
	ArtifactTimeout   time.Duration `mapstructure:"artifact_timeout"`

	// Region heuristics
	NoiseSuppressionPercent  float64 `mapstructure:"noise_suppression_percent"`
	StrategySwitchComponents int     `mapstructure:"strategy_switch_components"`
	MinRegionDimension       int     `mapstructure:"min_region_dimension"`
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", "8080")
	v.SetDefault("gin_mode", "release")
	v.SetDefault("request_timeout", 60*time.Second)
	v.SetDefault("analysis_timeout", 45*time.Second)
	v.SetDefault("shutdown_timeout", 15*time.Second)
	v.SetDefault("max_request_body_size", 32*1024*1024) // 32MB
	v.SetDefault("max_upload_bytes", 25*1024*1024)      // 25MB
	v.SetDefault("max_image_pixels", 40_000_000)
	v.SetDefault("workers", 0)
	v.SetDefault("top_boxes", 10)
	v.SetDefault("log_level", "info")

	v.SetDefault("artifact_source", "file")
	v.SetDefault("artifact_location", "./feature_model_output")
	v.SetDefault("azure_storage_account", "")
	v.SetDefault("azure_storage_key", "")
	v.SetDefault("model_file", "random_forest_model.json")
	v.SetDefault("scaler_file", "feature_scaler.json")
	v.SetDefault("feature_config_file", "feature_config.json")
	v.SetDefault("artifact_timeout", 2*time.Minute)

	v.SetDefault("noise_suppression_percent", 15.0)
	v.SetDefault("strategy_switch_components", 1000)
	v.SetDefault("min_region_dimension", 10)
}

// LoadFromEnv loads configuration from the environment and CONFIG_FILE
func LoadFromEnv() (*Config, error) {
	return Load(os.Getenv("CONFIG_FILE"))
}

// Load reads configFile (if non-empty), overlays the environment and validates
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings the service cannot start with
func (c *Config) Validate() error {
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.MaxUploadBytes <= 0 || c.MaxUploadBytes > c.MaxRequestBodySize {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be within 1..MAX_REQUEST_BODY_SIZE (got %d)", c.MaxUploadBytes)
	}
	if c.MaxImagePixels <= 0 {
		return fmt.Errorf("MAX_IMAGE_PIXELS must be > 0 (got %d)", c.MaxImagePixels)
	}
	if c.RequestTimeout <= 0 || c.AnalysisTimeout <= 0 || c.ShutdownTimeout <= 0 || c.ArtifactTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, analysis=%s, shutdown=%s, artifact=%s)",
			c.RequestTimeout, c.AnalysisTimeout, c.ShutdownTimeout, c.ArtifactTimeout)
	}
	if c.Workers < 0 {
		return fmt.Errorf("WORKERS must be >= 0 (got %d)", c.Workers)
	}
	if c.TopBoxes <= 0 {
		return fmt.Errorf("TOP_BOXES must be > 0 (got %d)", c.TopBoxes)
	}
	switch strings.ToLower(c.ArtifactSource) {
	case "file", "local", "http", "azure":
	default:
		return fmt.Errorf("invalid ARTIFACT_SOURCE: %q (expected file, http or azure)", c.ArtifactSource)
	}
	if strings.TrimSpace(c.ArtifactLocation) == "" {
		return fmt.Errorf("ARTIFACT_LOCATION is required")
	}
	if c.ModelFile == "" || c.ScalerFile == "" || c.FeatureConfigFile == "" {
		return fmt.Errorf("MODEL_FILE, SCALER_FILE and FEATURE_CONFIG_FILE must not be empty")
	}
	if c.NoiseSuppressionPercent < 0 || c.NoiseSuppressionPercent > 100 {
		return fmt.Errorf("NOISE_SUPPRESSION_PERCENT must be within 0..100 (got %g)", c.NoiseSuppressionPercent)
	}
	if c.StrategySwitchComponents < 0 || c.MinRegionDimension < 0 {
		return fmt.Errorf("region heuristics must be >= 0")
	}
	return nil
}
