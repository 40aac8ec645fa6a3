package objstore

import "time"

// ClientOption configures Client.
type ClientOption func(*ClientConfig)

// ClientConfig holds object storage configuration.
type ClientConfig struct {
	Endpoint       string
	Region         string
	Bucket         string
	AccessKey      string
	SecretKey      string
	PathStyle      bool
	RequestTimeout time.Duration
}

// WithEndpoint sets the storage endpoint URL (MinIO or any S3-compatible).
func WithEndpoint(endpoint string) ClientOption {
	return func(c *ClientConfig) {
		c.Endpoint = endpoint
	}
}

// WithRegion sets the storage region.
func WithRegion(region string) ClientOption {
	return func(c *ClientConfig) {
		c.Region = region
	}
}

// WithBucket sets the bucket name.
func WithBucket(bucket string) ClientOption {
	return func(c *ClientConfig) {
		c.Bucket = bucket
	}
}

// WithCredentials sets access and secret keys.
func WithCredentials(accessKey, secretKey string) ClientOption {
	return func(c *ClientConfig) {
		c.AccessKey = accessKey
		c.SecretKey = secretKey
	}
}

// WithPathStyle forces path-style addressing (required for MinIO).
func WithPathStyle(enabled bool) ClientOption {
	return func(c *ClientConfig) {
		c.PathStyle = enabled
	}
}

// WithRequestTimeout bounds each storage request.
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.RequestTimeout = d
	}
}
