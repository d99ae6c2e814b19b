package storage

// Config holds configuration for the storage provider.
type Config struct {
	// Endpoint is the URL of the storage service.
	Endpoint string `mapstructure:"endpoint" default:"localhost:9000"`
	// AccessKey is the access key ID for authentication.
	AccessKey string `mapstructure:"access_key" default:"minioadmin"`
	// SecretKey is the secret access key for authentication.
	SecretKey string `mapstructure:"secret_key" default:"minioadmin"`
	// UseSSL indicates whether to use SSL/TLS for connections.
	UseSSL bool `mapstructure:"use_ssl" default:"false"`
	// Bucket is the name of the bucket holding gallery images.
	Bucket string `mapstructure:"bucket" default:"images"`
	// Prefix is the key prefix uploaded images live under.
	Prefix string `mapstructure:"prefix" default:"public"`
	// Region is the location of the bucket (e.g., us-east-1).
	Region string `mapstructure:"region" default:""`
	// TimeoutSeconds is the connection timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// PresignRate caps presigned URL issuance per second. Zero disables the cap.
	PresignRate float64 `mapstructure:"presign_rate" default:"20"`
	// PresignBurst is the burst allowed above PresignRate.
	PresignBurst int `mapstructure:"presign_burst" default:"10"`
}
