package core

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	APIConfig struct {
		BaseURL            string
		Timeout            time.Duration
		HealthPath         string
		HealthCheckTimeout time.Duration
	}

	DetectorConfig struct {
		MaxAttempts int
		BaseDelay   time.Duration
		Interval    time.Duration
	}

	AuthConfig struct {
		TokenKey      string
		UserKey       string
		ExpiryKey     string
		TokenExpiry   time.Duration
		RefreshBefore time.Duration
		RefreshFloor  time.Duration
		SecretKey     string
	}

	StorageConfig struct {
		Driver    string // memory | file | postgres
		Path      string
		DSN       string
		Namespace string
	}

	MockConfig struct {
		Latency  time.Duration
		PageSize int
	}

	Config struct {
		AppName      string
		Env          string
		Debug        bool
		TestMode     bool
		Build        string
		RollbarToken string

		// MockMode forces the mock services without probing the backend.
		MockMode bool

		API         APIConfig
		Detector    DetectorConfig
		Auth        AuthConfig
		Storage     StorageConfig
		Mock        MockConfig
		SettingsKey string
		DevServer   struct {
			Address string
		}
	}
)

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("appName", "Masomo")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "develop")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("mockMode", false)

	v.SetDefault("api.baseURL", "http://localhost:8080")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("api.healthPath", "/health")
	v.SetDefault("api.healthCheckTimeout", 3*time.Second)

	v.SetDefault("detector.maxAttempts", 3)
	v.SetDefault("detector.baseDelay", time.Second)
	v.SetDefault("detector.interval", 30*time.Second)

	v.SetDefault("auth.tokenKey", "masomo.auth.token")
	v.SetDefault("auth.userKey", "masomo.auth.user")
	v.SetDefault("auth.expiryKey", "masomo.auth.expiry")
	v.SetDefault("auth.tokenExpiry", 24*time.Hour)
	v.SetDefault("auth.refreshBefore", 5*time.Minute)
	v.SetDefault("auth.refreshFloor", time.Minute)
	v.SetDefault("auth.secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")

	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.path", filepath.Join(os.TempDir(), "masomo-portal"))
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.namespace", "masomo")

	v.SetDefault("mock.latency", 300*time.Millisecond)
	v.SetDefault("mock.pageSize", 10)

	v.SetDefault("settingsKey", "masomo.settings")
	v.SetDefault("devServer.address", ":8080")
}

// NewConfig loads the configuration of the current ENV (DEV by default).
// Values are read, by order of precedence, from the environment, `config/.env.<env>` and defaults.
func NewConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
		v.SetDefault("storage.driver", "memory")
		v.SetDefault("mock.latency", time.Duration(0))
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(ProjectRoot(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}
	v.AutomaticEnv()

	conf := &Config{
		AppName:      v.GetString("appName"),
		Env:          env,
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		Build:        v.GetString("build"),
		RollbarToken: v.GetString("rollbarToken"),
		MockMode:     v.GetBool("mockMode"),
		API: APIConfig{
			BaseURL:            strings.TrimRight(v.GetString("api.baseURL"), "/"),
			Timeout:            v.GetDuration("api.timeout"),
			HealthPath:         v.GetString("api.healthPath"),
			HealthCheckTimeout: v.GetDuration("api.healthCheckTimeout"),
		},
		Detector: DetectorConfig{
			MaxAttempts: v.GetInt("detector.maxAttempts"),
			BaseDelay:   v.GetDuration("detector.baseDelay"),
			Interval:    v.GetDuration("detector.interval"),
		},
		Auth: AuthConfig{
			TokenKey:      v.GetString("auth.tokenKey"),
			UserKey:       v.GetString("auth.userKey"),
			ExpiryKey:     v.GetString("auth.expiryKey"),
			TokenExpiry:   v.GetDuration("auth.tokenExpiry"),
			RefreshBefore: v.GetDuration("auth.refreshBefore"),
			RefreshFloor:  v.GetDuration("auth.refreshFloor"),
			SecretKey:     v.GetString("auth.secretKey"),
		},
		Storage: StorageConfig{
			Driver:    v.GetString("storage.driver"),
			Path:      v.GetString("storage.path"),
			DSN:       v.GetString("storage.dsn"),
			Namespace: v.GetString("storage.namespace"),
		},
		Mock: MockConfig{
			Latency:  v.GetDuration("mock.latency"),
			PageSize: v.GetInt("mock.pageSize"),
		},
		SettingsKey: v.GetString("settingsKey"),
	}
	conf.DevServer.Address = v.GetString("devServer.address")

	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) validate() error {
	if !c.MockMode && c.API.BaseURL == "" {
		return errors.New("api.baseURL is required unless mockMode is set")
	}
	if c.Auth.TokenKey == "" || c.Auth.UserKey == "" || c.Auth.ExpiryKey == "" {
		return errors.New("auth storage keys are required")
	}
	if c.Detector.MaxAttempts < 1 {
		c.Detector.MaxAttempts = 1
	}
	if c.Mock.PageSize < 1 {
		c.Mock.PageSize = DefaultPageSize
	}
	return nil
}
