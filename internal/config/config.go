package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	StorageLocal = "local"
	StorageS3    = "s3"
)

type Config struct {
	DBDriver      string
	DBDSN         string
	ServerPort    string
	SessionSecret string
	LogLevel      string
	GinMode       string

	Storage StorageConfig
	Upload  UploadConfig
}

// StorageConfig - куда складываются загруженные файлы отчётов
type StorageConfig struct {
	Type      string // local | s3
	MediaRoot string // для local
	MediaURL  string // префикс URL, по которому файлы отдаются
	Bucket    string
	Region    string
	Endpoint  string // MinIO / любой S3-совместимый
	AccessKey string
	SecretKey string
}

type UploadConfig struct {
	MaxBytes    int64
	ExtraForms  int  // сколько пустых слотов показывать в форме
	MaxForms    int  // максимум файлов за одну отправку
	StrictTypes bool // проверять расширения на сервере, а не только в accept
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBDriver:      getenv("DB_DRIVER", DriverPostgres),
		DBDSN:         os.Getenv("DB_DSN"),
		ServerPort:    getenv("SERVER_PORT", "8080"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		GinMode:       os.Getenv("GIN_MODE"),
		Storage: StorageConfig{
			Type:      getenv("STORAGE_TYPE", StorageLocal),
			MediaRoot: getenv("MEDIA_ROOT", "media"),
			MediaURL:  strings.TrimRight(getenv("MEDIA_URL", "/media"), "/"),
			Bucket:    os.Getenv("S3_BUCKET"),
			Region:    getenv("S3_REGION", "us-east-1"),
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
		},
	}

	var err error
	if cfg.Upload.MaxBytes, err = getInt64("UPLOAD_MAX_BYTES", 20<<20); err != nil {
		return nil, err
	}
	if cfg.Upload.ExtraForms, err = getInt("UPLOAD_EXTRA_FORMS", 3); err != nil {
		return nil, err
	}
	if cfg.Upload.MaxForms, err = getInt("UPLOAD_MAX_FORMS", 10); err != nil {
		return nil, err
	}
	if cfg.Upload.StrictTypes, err = getBool("UPLOAD_STRICT_TYPES", false); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DBDSN == "" {
		return errors.New("DB_DSN is not set")
	}
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is not set")
	}

	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	switch c.Storage.Type {
	case StorageLocal:
	case StorageS3:
		if c.Storage.Bucket == "" {
			return errors.New("S3_BUCKET is required for s3 storage")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_TYPE %q", c.Storage.Type)
	}

	if c.Upload.MaxBytes <= 0 {
		return errors.New("UPLOAD_MAX_BYTES must be positive")
	}
	if c.Upload.ExtraForms < 0 || c.Upload.MaxForms < 1 || c.Upload.ExtraForms > c.Upload.MaxForms {
		return fmt.Errorf("invalid upload form limits: extra=%d max=%d", c.Upload.ExtraForms, c.Upload.MaxForms)
	}
	return nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getInt64(key string, def int64) (int64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
