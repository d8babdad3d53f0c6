package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bignyap/s3filestore/storage/api"
	"github.com/caarlos0/env"
)

// EnvPrefix is the prefix shared by every storage environment variable.
const EnvPrefix = "S3FILESTORE_"

// Addressing styles understood by the adapters.
const (
	AddressingAuto    = "auto"
	AddressingPath    = "path"
	AddressingVirtual = "virtual"
)

// StorageConfig holds the object store configuration. It is loaded once at
// startup and passed by value to every component.
type StorageConfig struct {
	Type               string `env:"S3FILESTORE_STORAGE_TYPE" envDefault:"s3"`
	BucketName         string `env:"S3FILESTORE_AWS_BUCKET_NAME"`
	AccessKeyID        string `env:"S3FILESTORE_AWS_ACCESS_KEY_ID"`
	SecretAccessKey    string `env:"S3FILESTORE_AWS_SECRET_ACCESS_KEY"`
	UseAmbientRole     bool   `env:"S3FILESTORE_AWS_USE_AMI_ROLE"`
	Region             string `env:"S3FILESTORE_REGION_NAME" envDefault:"us-east-1"`
	HostName           string `env:"S3FILESTORE_HOST_NAME"` // Optional: for S3-compatible services
	SignatureVersion   string `env:"S3FILESTORE_SIGNATURE_VERSION" envDefault:"s3v4"`
	AddressingStyle    string `env:"S3FILESTORE_ADDRESSING_STYLE" envDefault:"auto"`
	ACL                string `env:"S3FILESTORE_ACL" envDefault:"public-read"`
	StoragePath        string `env:"S3FILESTORE_AWS_STORAGE_PATH"`
	FilesystemFallback bool   `env:"S3FILESTORE_FILESYSTEM_DOWNLOAD_FALLBACK"`
	PresignEnabled     bool   `env:"S3FILESTORE_PRESIGN_ENABLED" envDefault:"true"`
	PresignTTLSeconds  int    `env:"S3FILESTORE_PRESIGN_TTL" envDefault:"60"`
	RequestTimeoutSecs int    `env:"S3FILESTORE_REQUEST_TIMEOUT" envDefault:"30"`
	MaxRetries         int    `env:"S3FILESTORE_MAX_RETRIES" envDefault:"3"`
	LocalStoragePath   string `env:"S3FILESTORE_LOCAL_STORAGE_PATH" envDefault:"/var/lib/ckan/default"`
}

// MissingKeysError lists every required key that was not set.
type MissingKeysError struct {
	Keys []string
}

func (e *MissingKeysError) Error() string {
	return fmt.Sprintf("%v: %s", api.ErrConfigMissing, strings.Join(e.Keys, ", "))
}

func (e *MissingKeysError) Unwrap() error {
	return api.ErrConfigMissing
}

// DefaultConfig returns a configuration with every default applied and no
// bucket or credentials.
func DefaultConfig() StorageConfig {
	return StorageConfig{
		Type:               string(api.StorageTypeS3),
		Region:             "us-east-1",
		SignatureVersion:   "s3v4",
		AddressingStyle:    AddressingAuto,
		ACL:                "public-read",
		PresignEnabled:     true,
		PresignTTLSeconds:  60,
		RequestTimeoutSecs: 30,
		MaxRetries:         3,
		LocalStoragePath:   "/var/lib/ckan/default",
	}
}

// LoadStorageConfig loads the storage configuration from environment variables
func LoadStorageConfig() (StorageConfig, error) {
	var cfg StorageConfig
	if err := env.Parse(&cfg); err != nil {
		return StorageConfig{}, fmt.Errorf("failed to parse storage config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *StorageConfig) applyDefaults() {
	defaults := DefaultConfig()
	if c.Type == "" {
		c.Type = defaults.Type
	}
	if c.Region == "" {
		c.Region = defaults.Region
	}
	if c.AddressingStyle == "" {
		c.AddressingStyle = defaults.AddressingStyle
	}
	if c.ACL == "" {
		c.ACL = defaults.ACL
	}
	if c.PresignTTLSeconds <= 0 {
		c.PresignTTLSeconds = defaults.PresignTTLSeconds
	}
	if c.RequestTimeoutSecs <= 0 {
		c.RequestTimeoutSecs = defaults.RequestTimeoutSecs
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = defaults.MaxRetries
	}
	c.StoragePath = strings.TrimRight(c.StoragePath, "/")
	c.HostName = strings.TrimRight(c.HostName, "/")
}

// RequiredKeys returns the environment keys that must be set for this
// configuration. Credentials are not required when the ambient role is used.
func (c StorageConfig) RequiredKeys() []string {
	keys := []string{EnvPrefix + "AWS_BUCKET_NAME"}
	if !c.UseAmbientRole && c.StorageType() != api.StorageTypeMemory {
		keys = append(keys,
			EnvPrefix+"AWS_ACCESS_KEY_ID",
			EnvPrefix+"AWS_SECRET_ACCESS_KEY",
		)
	}
	return keys
}

// MissingKeys returns the required keys that are empty.
func (c StorageConfig) MissingKeys() []string {
	values := map[string]string{
		EnvPrefix + "AWS_BUCKET_NAME":       c.BucketName,
		EnvPrefix + "AWS_ACCESS_KEY_ID":     c.AccessKeyID,
		EnvPrefix + "AWS_SECRET_ACCESS_KEY": c.SecretAccessKey,
	}
	var missing []string
	for _, key := range c.RequiredKeys() {
		if strings.TrimSpace(values[key]) == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

// Validate checks required keys and enumerated values.
func (c StorageConfig) Validate() error {
	if missing := c.MissingKeys(); len(missing) > 0 {
		return &MissingKeysError{Keys: missing}
	}

	var errs []error
	switch c.StorageType() {
	case api.StorageTypeS3, api.StorageTypeMinio, api.StorageTypeMemory:
	default:
		errs = append(errs, fmt.Errorf("unsupported storage type: %s (supported: s3, minio, memory)", c.Type))
	}
	switch c.AddressingStyle {
	case AddressingAuto, AddressingPath, AddressingVirtual:
	default:
		errs = append(errs, fmt.Errorf("unsupported addressing style: %s (supported: auto, path, virtual)", c.AddressingStyle))
	}
	switch strings.ToLower(c.SignatureVersion) {
	case "", "s3v4", "v4":
	case "s3", "v2":
		if c.StorageType() == api.StorageTypeS3 {
			errs = append(errs, fmt.Errorf("signature version %s is only supported by the minio storage type", c.SignatureVersion))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported signature version: %s", c.SignatureVersion))
	}
	return errors.Join(errs...)
}

// StorageType returns the configured backend type.
func (c StorageConfig) StorageType() api.StorageType {
	return api.StorageType(strings.ToLower(c.Type))
}

// SignatureV2 reports whether the legacy v2 signature was requested.
func (c StorageConfig) SignatureV2() bool {
	switch strings.ToLower(c.SignatureVersion) {
	case "s3", "v2":
		return true
	}
	return false
}

// UsePathStyle resolves the addressing style. "auto" picks path-style for
// custom endpoints, since most S3-compatible services need it.
func (c StorageConfig) UsePathStyle() bool {
	switch c.AddressingStyle {
	case AddressingPath:
		return true
	case AddressingVirtual:
		return false
	default:
		return c.HostName != ""
	}
}

func (c StorageConfig) PresignTTL() time.Duration {
	return time.Duration(c.PresignTTLSeconds) * time.Second
}

func (c StorageConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

// Presigns reports whether downloads redirect to presigned URLs. The memory
// store has no URL a client could fetch, so it always streams.
func (c StorageConfig) Presigns() bool {
	return c.PresignEnabled && c.StorageType() != api.StorageTypeMemory
}
