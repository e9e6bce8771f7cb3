package config

import (
	"strconv"
	"time"

	"gorm.io/gorm"
)

// SuggestionsConfig holds Suggestions bot configuration
type SuggestionsConfig struct {
	Base
	PendingImageTTL time.Duration
	Enabled         bool
}

// LoadSuggestionsConfig loads Suggestions bot configuration
func LoadSuggestionsConfig(db *gorm.DB) SuggestionsConfig {
	base := LoadBase(db)

	ttl := 15 * time.Minute
	if raw := GetSetting("pending_image_ttl_minutes", "PENDING_IMAGE_TTL_MINUTES", ""); raw != "" {
		if minutes, err := strconv.Atoi(raw); err == nil && minutes > 0 {
			ttl = time.Duration(minutes) * time.Minute
		}
	}

	return SuggestionsConfig{
		Base:            base,
		PendingImageTTL: ttl,
		Enabled:         getBoolSetting("enable_suggestions", "ENABLE_SUGGESTIONS", true),
	}
}

// GameConfig holds game data bot configuration
type GameConfig struct {
	Base
	MySQLDSN      string
	SuperAdminIDs []string
	Enabled       bool
}

// LoadGameConfig loads game data bot configuration. The module stays off
// unless a MySQL DSN is available.
func LoadGameConfig(db *gorm.DB) GameConfig {
	base := LoadBase(db)
	dsn := GetSetting("game_mysql_dsn", "MYSQL_DSN", "")

	return GameConfig{
		Base:          base,
		MySQLDSN:      dsn,
		SuperAdminIDs: splitList(GetSetting("super_admin_ids", "SUPER_ADMIN_IDS", "")),
		Enabled:       dsn != "" && getBoolSetting("enable_game", "ENABLE_GAME", true),
	}
}

// IsSuperAdmin reports whether userID is in the configured super admin list.
func (c GameConfig) IsSuperAdmin(userID string) bool {
	for _, id := range c.SuperAdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// APIConfig holds the read-only HTTP API configuration
type APIConfig struct {
	Base
	ListenAddr   string
	AllowOrigins []string
	JWTSecret    string
	RateLimit    int
	Enabled      bool
}

// LoadAPIConfig loads the HTTP API configuration
func LoadAPIConfig(db *gorm.DB) APIConfig {
	base := LoadBase(db)
	origins := splitList(GetSetting("api_allow_origins", "API_ALLOW_ORIGINS", ""))
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	rate := 120
	if n, err := strconv.Atoi(GetSetting("api_rate_limit", "API_RATE_LIMIT", "")); err == nil && n >= 0 {
		rate = n
	}

	return APIConfig{
		Base:         base,
		ListenAddr:   GetSetting("api_listen_addr", "API_LISTEN_ADDR", ":8080"),
		AllowOrigins: origins,
		JWTSecret:    GetSetting("api_jwt_secret", "API_JWT_SECRET", ""),
		RateLimit:    rate,
		Enabled:      getBoolSetting("enable_api", "ENABLE_API", false),
	}
}
