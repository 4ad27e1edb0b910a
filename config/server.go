package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/deliveryeta/auth"
)

// ServerConfig defines the HTTP listener.
type ServerConfig struct {
	Addr string `json:"addr"`
	// LogsToken guards the prediction log API when set.
	LogsToken    string        `json:"logs_token"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}

func (c ServerConfig) Validate() error {
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.ShutdownTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}

// ArtifactsConfig locates the model bundle.
type ArtifactsConfig struct {
	// Manifest is a local path or s3:// / http(s):// URI.
	Manifest string `json:"manifest"`
	CacheDir string `json:"cache_dir"`
	S3Region string `json:"s3_region"`
	// ONNXLibrary is the path of the onnxruntime shared library.
	ONNXLibrary string `json:"onnx_library"`
	ONNXThreads int    `json:"onnx_threads"`
	// Auth authorizes http(s) downloads with OAuth2 client credentials.
	Auth auth.Conf `json:"auth"`
}

// Validate checks the credentials block.
func (c ArtifactsConfig) Validate() error {
	if c.Manifest == "" {
		return errors.New("manifest is required")
	}
	return c.Auth.Validate()
}

func (c *ArtifactsConfig) SetDefaults() {
	if c.Manifest == "" {
		c.Manifest = "artifacts/manifest.json"
	}
	if c.CacheDir == "" {
		c.CacheDir = ".cache/artifacts"
	}
}
