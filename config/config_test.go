package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Channel.MaxReconnectAttempts != 5 {
		t.Errorf("max_reconnect_attempts = %d, want 5", cfg.Channel.MaxReconnectAttempts)
	}
	if cfg.Channel.ReconnectDelay != 3*time.Second {
		t.Errorf("reconnect_delay = %v, want 3s", cfg.Channel.ReconnectDelay)
	}
	if cfg.Channel.ProbeInterval != 30*time.Second {
		t.Errorf("probe_interval = %v, want 30s", cfg.Channel.ProbeInterval)
	}
	if Current() == nil {
		t.Error("Current() returned nil after a successful load")
	}
}

func TestFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notify-service.yaml")
	body := "channel:\n  probe_interval: 5s\npoller:\n  window_minutes: 10\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	v := viper.New()
	v.SetDefault("channel.probe_interval", 30*time.Second)
	v.SetDefault("poller.window_minutes", 30)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig: %v", err)
	}

	cfg, err := unmarshal(v)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cfg.Channel.ProbeInterval != 5*time.Second {
		t.Errorf("probe_interval = %v, want 5s", cfg.Channel.ProbeInterval)
	}
	if cfg.Poller.WindowMinutes != 10 {
		t.Errorf("window_minutes = %d, want 10", cfg.Poller.WindowMinutes)
	}
}

func TestReloadPublishesAndNotifies(t *testing.T) {
	v := viper.New()
	v.Set("poller.window_minutes", 15)
	v.Set("log.level", "debug")

	var got *Config
	OnReload(func(c *Config) { got = c })

	reload(v)

	if got == nil {
		t.Fatal("OnReload subscriber never ran")
	}
	if got.Log.Level != "debug" {
		t.Errorf("subscriber saw log level %q, want debug", got.Log.Level)
	}
	if cur := Current(); cur == nil || cur.Poller.WindowMinutes != 15 {
		t.Errorf("Current() not updated by reload: %+v", cur)
	}
}

func TestBrokenReloadKeepsLastGoodConfig(t *testing.T) {
	v := viper.New()
	v.Set("poller.window_minutes", 15)
	reload(v)

	fired := 0
	OnReload(func(*Config) { fired++ })

	bad := viper.New()
	bad.Set("poller.window_minutes", 0)
	reload(bad)

	if fired != 0 {
		t.Error("subscriber ran for a config that failed validation")
	}
	if cur := Current(); cur == nil || cur.Poller.WindowMinutes != 15 {
		t.Errorf("broken reload replaced the working config: %+v", cur)
	}
}

func TestRejectsInvalidValues(t *testing.T) {
	v := viper.New()
	v.Set("channel.max_reconnect_attempts", -1)
	v.Set("poller.window_minutes", 30)
	if _, err := unmarshal(v); err == nil {
		t.Error("negative max_reconnect_attempts accepted")
	}

	v = viper.New()
	v.Set("poller.window_minutes", 0)
	if _, err := unmarshal(v); err == nil {
		t.Error("zero window_minutes accepted")
	}
}
