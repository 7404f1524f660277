package filestore

import "time"

// Provider identifies the object storage backend.
type Provider string

const (
	ProviderMinIO Provider = "minio"
)

// Config holds all settings needed to connect to an object storage backend
// and to place reports in it.
type Config struct {
	// Provider is the storage backend (e.g. ProviderMinIO).
	Provider Provider `yaml:"provider"`

	// Endpoint is the host:port of the storage server.
	// Example: "localhost:9000" for local MinIO.
	Endpoint string `yaml:"endpoint"`

	// AccessKey is the access key ID (MinIO / S3 style).
	AccessKey string `yaml:"accessKey"`

	// SecretKey is the secret access key.
	SecretKey string `yaml:"secretKey"`

	// UseSSL controls whether TLS is used for the connection.
	UseSSL bool `yaml:"useSSL"`

	// Region is used by region-aware backends. Leave empty for MinIO.
	Region string `yaml:"region"`

	// Bucket receives the run reports.
	Bucket string `yaml:"bucket"`

	// Prefix is prepended to every report key ("idwiden/runs").
	Prefix string `yaml:"prefix"`

	// LinkTTL is the lifetime of the presigned link printed after upload.
	// Zero disables the link.
	LinkTTL time.Duration `yaml:"linkTTL"`
}

// DefaultConfig returns a sensible local-dev config for MinIO.
func DefaultConfig(endpoint, accessKey, secretKey string) *Config {
	return &Config{
		Provider:  ProviderMinIO,
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
		UseSSL:    false,
		Bucket:    "idwiden",
		Prefix:    "runs",
		LinkTTL:   24 * time.Hour,
	}
}

// Enabled reports whether an endpoint and bucket are configured.
func (c *Config) Enabled() bool {
	return c != nil && c.Endpoint != "" && c.Bucket != ""
}
