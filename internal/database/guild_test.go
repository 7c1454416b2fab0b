package database

import (
	"testing"
	"time"
)

func TestGuildConfigDisabledCommands(t *testing.T) {
	g := GuildConfig{}
	if g.IsCommandDisabled("ping") {
		t.Fatal("empty config should not disable commands")
	}

	g.SetCommandDisabled("ping", true)
	g.SetCommandDisabled("ban", true)
	g.SetCommandDisabled("ping", true)
	if g.DisabledCommands != "ban,ping" {
		t.Fatalf("DisabledCommands = %q, want %q", g.DisabledCommands, "ban,ping")
	}
	if !g.IsCommandDisabled("ping") || !g.IsCommandDisabled("ban") {
		t.Fatalf("expected ping and ban disabled, got %q", g.DisabledCommands)
	}
	if g.IsCommandDisabled("pin") {
		t.Fatal("prefix of a disabled command must not match")
	}

	g.SetCommandDisabled("ban", false)
	if g.DisabledCommands != "ping" {
		t.Fatalf("DisabledCommands = %q, want %q", g.DisabledCommands, "ping")
	}
}

func TestGuildConfigBirthdaySetup(t *testing.T) {
	tests := []struct {
		name string
		cfg  GuildConfig
		want bool
	}{
		{"none", GuildConfig{}, false},
		{"channel only", GuildConfig{BirthdayChannel: "c"}, false},
		{"role only", GuildConfig{BirthdayRole: "r"}, false},
		{"both", GuildConfig{BirthdayChannel: "c", BirthdayRole: "r"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.HasBirthdaySetup(); got != tt.want {
				t.Errorf("HasBirthdaySetup() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSlowModeWindowDuration(t *testing.T) {
	g := GuildConfig{SlowModeWindow: 5}
	if g.SlowModeWindowDuration() != 5*time.Second {
		t.Errorf("SlowModeWindowDuration() = %v", g.SlowModeWindowDuration())
	}
}
