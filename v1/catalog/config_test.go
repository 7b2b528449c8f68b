package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	conf, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	if assert.NoError(t, err) {
		assert.Equal(t, "http://localhost:9000", conf.BaseURL)
		assert.Equal(t, "", conf.RFQBaseURL)
		assert.Equal(t, "http://localhost:9000", conf.rfqBaseURL())
		assert.Equal(t, time.Duration(0), conf.Timeout)
		assert.False(t, conf.Debug)
		assert.Equal(t, "info", conf.LogLevel)
	}
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("RFQCLIENT_BASE_URL", "http://192.168.1.10:9000")
	t.Setenv("RFQCLIENT_RFQ_BASE_URL", "http://192.168.1.11:8080")
	t.Setenv("RFQCLIENT_TIMEOUT", "15s")
	t.Setenv("RFQCLIENT_DEBUG", "true")
	t.Setenv("RFQCLIENT_LOG_LEVEL", "debug")

	conf, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	if assert.NoError(t, err) {
		assert.Equal(t, "http://192.168.1.10:9000", conf.BaseURL)
		assert.Equal(t, "http://192.168.1.11:8080", conf.rfqBaseURL())
		assert.Equal(t, 15*time.Second, conf.Timeout)
		assert.True(t, conf.Debug)
		assert.Equal(t, "debug", conf.LogLevel)
	}
}

func TestLoadConfigEnvFile(t *testing.T) {
	t.Setenv("RFQCLIENT_LOG_LEVEL", "warn")
	f := filepath.Join(t.TempDir(), "client.env")
	err := os.WriteFile(f, []byte("RFQCLIENT_BASE_URL=http://quotes.internal:9000\nRFQCLIENT_LOG_LEVEL=error\n"), 0o644)
	if !assert.NoError(t, err) {
		return
	}
	t.Cleanup(func() { os.Unsetenv("RFQCLIENT_BASE_URL") })

	conf, err := LoadConfig(f)
	if assert.NoError(t, err) {
		assert.Equal(t, "http://quotes.internal:9000", conf.BaseURL)
		assert.Equal(t, "warn", conf.LogLevel) // already set; not overridden
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Setenv("RFQCLIENT_LOG_LEVEL", "loud")
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoadConfigMalformedEnvFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "broken.env")
	err := os.WriteFile(f, []byte("RFQCLIENT_BASE_URL=\"http://quotes.internal:9000\n"), 0o644)
	if !assert.NoError(t, err) {
		return
	}
	_, err = LoadConfig(f)
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "warn", "error", ""} {
		log := NewLogger(lvl)
		if assert.NotNil(t, log) {
			assert.Equal(t, lvl == "debug", log.Core().Enabled(-1))
		}
	}
}
