package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noDotenv(t *testing.T) string {
	return filepath.Join(t.TempDir(), ".env")
}

func TestLoadDefaults(t *testing.T) {
	s, err := Load(noDotenv(t))
	require.NoError(t, err)

	assert.Equal(t, "8080", s.Port)
	assert.Equal(t, DefaultCredentialsPath, s.CredentialsPath)
	assert.Equal(t, "https://api.twilio.com", s.APIBaseURL)
	assert.Equal(t, 15*time.Second, s.HTTPTimeout)
	assert.Equal(t, BackendHTTP, s.Backend)
	assert.Empty(t, s.InboxDB)
	assert.Empty(t, s.KafkaBrokers)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SMS_PORT", "9090")
	t.Setenv("SMS_HTTP_TIMEOUT", "3s")
	t.Setenv("SMS_BACKEND", "sdk")
	t.Setenv("SMS_KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	s, err := Load(noDotenv(t))
	require.NoError(t, err)

	assert.Equal(t, "9090", s.Port)
	assert.Equal(t, 3*time.Second, s.HTTPTimeout)
	assert.Equal(t, BackendSDK, s.Backend)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, s.KafkaBrokers)
}

func TestLoadDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SMS_INBOX_DB=/tmp/inbox.db\n"), 0o600))
	t.Setenv("SMS_INBOX_DB", "")
	os.Unsetenv("SMS_INBOX_DB")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/inbox.db", s.InboxDB)
	os.Unsetenv("SMS_INBOX_DB")
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("SMS_BACKEND", "carrier-pigeon")
	_, err := Load(noDotenv(t))
	assert.Error(t, err)
}

func TestSettingsCredentialsFallback(t *testing.T) {
	s := &Settings{CredentialsPath: filepath.Join(t.TempDir(), "config.txt")}
	t.Setenv("TWILIO_ACCOUNT_SID", "ACenv")
	t.Setenv("TWILIO_AUTH_TOKEN", "envtoken")
	t.Setenv("TWILIO_FROM_NUMBER", "+15550001234")
	assert.Equal(t, Credentials{"ACenv", "envtoken", "+15550001234"}, s.Credentials())

	require.NoError(t, SaveCredentials(s.CredentialsPath, Credentials{"ACfile", "filetoken", "+15559999999"}))
	assert.Equal(t, Credentials{"ACfile", "filetoken", "+15559999999"}, s.Credentials())
}
