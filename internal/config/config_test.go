package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chtemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chtemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Renewal.xlsx", cfg.Source.CachePath)
	assert.Equal(t, "smtp.gmail.com", cfg.SMTP.Host)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.False(t, cfg.Notify.NotifyExpired)
	assert.False(t, cfg.Notify.Confirmation)
	assert.Equal(t, []string{"due"}, cfg.Notify.DueWindows)
	assert.Equal(t, 15, cfg.Notify.EveningHour)
	assert.True(t, cfg.Columns.DayFirst)
	assert.Equal(t, 50, cfg.Columns.MaxHeaderScan)
	assert.Equal(t, "sqlite", cfg.Ledger.Driver)
	assert.Equal(t, "renewal.db", cfg.Ledger.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	chtemp(t)

	yaml := `
source:
  drive_file_id: 1aEyOe-C98I
  cache_path: /tmp/agreements.xlsx
smtp:
  host: mail.internal
  port: 2525
  sender: ops@ntqs.example
notify:
  default_recipients: [renewals@ntqs.example]
  due_windows: [due_morning, due_evening]
columns:
  keywords:
    expiry: [renewal]
ledger:
  driver: postgres
  database_url: postgres://localhost/renewal
log:
  level: debug
  format: console
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "1aEyOe-C98I", cfg.Source.DriveFileID)
	assert.Equal(t, "/tmp/agreements.xlsx", cfg.Source.CachePath)
	assert.Equal(t, "mail.internal", cfg.SMTP.Host)
	assert.Equal(t, 2525, cfg.SMTP.Port)
	assert.Equal(t, []string{"renewals@ntqs.example"}, cfg.Notify.DefaultRecipients)
	assert.Equal(t, []string{"due_morning", "due_evening"}, cfg.Notify.DueWindows)
	assert.Equal(t, []string{"renewal"}, cfg.Columns.Keywords["expiry"])
	assert.Equal(t, "postgres", cfg.Ledger.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestRecipientsFallback(t *testing.T) {
	cfg := &Config{SMTP: SMTPConfig{Sender: "ops@ntqs.example"}}
	assert.Equal(t, []string{"ops@ntqs.example"}, cfg.Recipients())

	cfg.Notify.DefaultRecipients = []string{" a@b.com ", "", "c@d.com"}
	assert.Equal(t, []string{"a@b.com", "c@d.com"}, cfg.Recipients())
}

func TestRecipientsEmpty(t *testing.T) {
	cfg := &Config{}
	assert.Empty(t, cfg.Recipients())
}

func TestInitLoggerBadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "nope", Format: "json"})
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
}
