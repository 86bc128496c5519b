package config

import (
	"os"
	"path/filepath"
	"testing"
)

type sampleConfig struct {
	Region string `envconfig:"REGION" default:"us-east-1"`
	Bucket string `envconfig:"BUCKET"`
}

func TestExportEnvironmentKeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("CFGTEST_BUCKET=from-file\nCFGTEST_REGION=eu-west-1\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	t.Setenv("CFGTEST_REGION", "ap-southeast-1")
	t.Setenv("CFGTEST_BUCKET", "")
	os.Unsetenv("CFGTEST_BUCKET")

	if err := exportEnvironment(path); err != nil {
		t.Fatalf("exportEnvironment() error = %v", err)
	}

	if got := os.Getenv("CFGTEST_BUCKET"); got != "from-file" {
		t.Fatalf("CFGTEST_BUCKET = %q, want from-file", got)
	}
	if got := os.Getenv("CFGTEST_REGION"); got != "ap-southeast-1" {
		t.Fatalf("CFGTEST_REGION = %q, want ap-southeast-1", got)
	}
}

func TestNewAppliesPrefixAndDefaults(t *testing.T) {
	t.Setenv("SAMPLE_BUCKET", "videos")

	conf, err := New[sampleConfig]("SAMPLE")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if conf.Bucket != "videos" {
		t.Fatalf("Bucket = %q, want videos", conf.Bucket)
	}
	if conf.Region != "us-east-1" {
		t.Fatalf("Region = %q, want us-east-1", conf.Region)
	}
}

func TestExportEnvironmentIfExistsMissingFile(t *testing.T) {
	t.Parallel()

	if err := exportEnvironmentIfExists(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("exportEnvironmentIfExists() error = %v", err)
	}
}
