package config

import (
	"strings"
	"testing"
)

// memBackend is an in-memory Backend for tests.
type memBackend struct {
	data map[string]any
}

func (m *memBackend) GetString(key string) (string, bool, error) {
	v, ok := m.data[key]
	if !ok {
		return "", false, nil
	}
	return v.(string), true, nil
}

func (m *memBackend) GetInt(key string) (int, bool, error) {
	v, ok := m.data[key]
	if !ok {
		return 0, false, nil
	}
	return v.(int), true, nil
}

func (m *memBackend) SetString(key, val string) error { m.data[key] = val; return nil }
func (m *memBackend) SetInt(key string, val int) error {
	m.data[key] = val
	return nil
}
func (m *memBackend) Delete(key string) error { delete(m.data, key); return nil }

func TestDefaults(t *testing.T) {
	cfg, err := loadWith(&memBackend{data: map[string]any{}})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.Blob.Region != "us-east-1" {
		t.Errorf("Blob.Region = %q, want us-east-1", cfg.Blob.Region)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
	if cfg.Storage.DataDir == "" {
		t.Error("Storage.DataDir empty")
	}
}

func TestBackendValues(t *testing.T) {
	cfg, err := loadWith(&memBackend{data: map[string]any{
		"server.port": 9090,
		"blob.bucket": "my-files",
	}})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Blob.Bucket != "my-files" {
		t.Errorf("Blob.Bucket = %q", cfg.Blob.Bucket)
	}
}

func TestEnvOverridesBackend(t *testing.T) {
	t.Setenv("JOBTRACK_SERVER_PORT", "7070")
	t.Setenv("JOBTRACK_LOG_LEVEL", "debug")

	cfg, err := loadWith(&memBackend{data: map[string]any{
		"server.port": 9090,
	}})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want env override 7070", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
}

func TestSecretsComeFromEnvOnly(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIATEST")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "shhh")

	cfg, err := loadWith(&memBackend{data: map[string]any{
		"blob.access_key_id": "from-file",
	}})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Blob.AccessKeyID != "AKIATEST" {
		t.Errorf("AccessKeyID = %q, file value must be ignored", cfg.Blob.AccessKeyID)
	}
	if cfg.Blob.SecretAccessKey != "shhh" {
		t.Errorf("SecretAccessKey = %q", cfg.Blob.SecretAccessKey)
	}
}

func TestShowAllHidesSecrets(t *testing.T) {
	cfg := defaults()
	for _, info := range ShowAll(cfg) {
		if strings.Contains(info.Key, "access_key") || strings.Contains(info.Key, "secret") {
			t.Errorf("secret key %q exposed in ShowAll", info.Key)
		}
	}
}

func TestSetKeyRejectsSecrets(t *testing.T) {
	if err := SetKey("blob.secret_access_key", "x"); err == nil {
		t.Error("expected error setting a secret key")
	}
	if err := SetKey("no.such.key", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
}
