package config

import (
	"log"
	"os"
	"strings"

	"github.com/emberforge/guildbot/src/data"
	"gorm.io/gorm"
)

// Base contains common configuration fields
type Base struct {
	Token      string
	GuildID    string
	SQLitePath string
	RedisURL   string
}

// LoadBase loads common configuration (discord token, guild ID, store locations)
func LoadBase(db *gorm.DB) Base {
	if db != nil {
		if err := data.LoadSettings(db); err != nil {
			log.Printf("config: settings table unavailable, using environment: %v", err)
		}
	}

	token := GetSetting("discord_token", "DISCORD_BOT_TOKEN", "")
	if token == "" {
		token = os.Getenv("DISCORD_TOKEN")
	}

	return Base{
		Token:      token,
		GuildID:    GetSetting("guild_id", "GUILD_ID", ""),
		SQLitePath: SQLitePath(),
		RedisURL:   GetSetting("redis_url", "REDIS_URL", ""),
	}
}

// SQLitePath is read from the environment only: it locates the settings table.
func SQLitePath() string {
	if p := strings.TrimSpace(os.Getenv("SUGGESTIONS_DB_PATH")); p != "" {
		return p
	}
	return "suggestions.db"
}

// GetSetting retrieves a setting with env fallback
func GetSetting(name, envKey, defaultValue string) string {
	val := data.GetSetting(name)
	if val == "" && envKey != "" {
		val = os.Getenv(envKey)
	}
	if val == "" {
		val = defaultValue
	}
	return val
}

func getBoolSetting(settingKey, envKey string, defaultValue bool) bool {
	if v := data.GetSetting(settingKey); v != "" {
		return parseBoolDefault(v, defaultValue)
	}
	if envKey != "" {
		if v := os.Getenv(envKey); v != "" {
			return parseBoolDefault(v, defaultValue)
		}
	}
	return defaultValue
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ' ' || r == ';' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
