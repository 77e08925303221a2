package config

import (
	"strings"
	"testing"
	"time"

	"purse/internal/cloud"
)

func validConfig() Config {
	return Config{
		Port:               "8081",
		LogLevel:           "info",
		SeedFile:           "./data/expenditures.txt",
		User:               "me",
		TagsLimit:          100,
		FetchTimeout:       7 * time.Second,
		HistogramThreshold: 6,
		CloudThreshold:     20,
		CloudBaseSize:      10,
		CloudScale:         50,
		CloudRotations:     "right-angle",
		SessionTTL:         30 * time.Minute,
		RateLimitPerMinute: 60,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		wantErr     bool
		errorString string
	}{
		{
			name:   "valid memory config",
			modify: func(*Config) {},
		},
		{
			name:   "valid remote tags",
			modify: func(c *Config) { c.TagsURL = "https://purse.example.com/tracker/tags/"; c.SeedFile = "" },
		},
		{
			name:        "invalid port - non-numeric",
			modify:      func(c *Config) { c.Port = "abc" },
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range high",
			modify:      func(c *Config) { c.Port = "70000" },
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "invalid log level",
			modify:      func(c *Config) { c.LogLevel = "loud" },
			wantErr:     true,
			errorString: "invalid log level 'loud'",
		},
		{
			name:        "no seed and no tags url",
			modify:      func(c *Config) { c.SeedFile = "" },
			wantErr:     true,
			errorString: "SEED_FILE cannot be empty when TAGS_URL is not set",
		},
		{
			name:        "tags url scheme",
			modify:      func(c *Config) { c.TagsURL = "ftp://example.com/tags" },
			wantErr:     true,
			errorString: "invalid tags URL scheme 'ftp'",
		},
		{
			name:        "tags limit",
			modify:      func(c *Config) { c.TagsLimit = 0 },
			wantErr:     true,
			errorString: "invalid tags limit 0",
		},
		{
			name:        "fetch timeout",
			modify:      func(c *Config) { c.FetchTimeout = time.Millisecond },
			wantErr:     true,
			errorString: "invalid fetch timeout",
		},
		{
			name:        "rotation set",
			modify:      func(c *Config) { c.CloudRotations = "spiral" },
			wantErr:     true,
			errorString: `unknown rotation set "spiral"`,
		},
		{
			name:        "session ttl",
			modify:      func(c *Config) { c.SessionTTL = time.Second },
			wantErr:     true,
			errorString: "invalid session TTL",
		},
		{
			name: "multiple errors are joined",
			modify: func(c *Config) {
				c.HistogramThreshold = 0
				c.CloudThreshold = 0
			},
			wantErr:     true,
			errorString: "invalid histogram threshold 0: must be at least 1\n- invalid cloud threshold 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errorString) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.errorString)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	for _, key := range []string{"PORT", "TAGS_URL", "TAGS_LIMIT", "FETCH_TIMEOUT", "CLOUD_SCALE", "CLOUD_ROTATIONS", "SESSION_TTL"} {
		t.Setenv(key, "")
	}

	t.Run("default values", func(t *testing.T) {
		cfg := Load()
		if cfg.Port != "8081" {
			t.Errorf("Load() Port = %v, want 8081", cfg.Port)
		}
		if cfg.TagsURL != "" {
			t.Errorf("Load() TagsURL = %v, want empty", cfg.TagsURL)
		}
		if cfg.FetchTimeout != 7*time.Second {
			t.Errorf("Load() FetchTimeout = %v, want 7s", cfg.FetchTimeout)
		}
		if cfg.HistogramThreshold != 6 || cfg.CloudThreshold != 20 {
			t.Errorf("Load() thresholds = %d/%d, want 6/20", cfg.HistogramThreshold, cfg.CloudThreshold)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("defaults must validate: %v", err)
		}
	})

	t.Run("environment variables", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("TAGS_URL", "http://localhost:8000/tracker/tags/")
		t.Setenv("TAGS_LIMIT", "25")
		t.Setenv("CLOUD_SCALE", "2.5")
		t.Setenv("CLOUD_ROTATIONS", "diagonal")
		t.Setenv("SESSION_TTL", "1h")
		t.Setenv("FETCH_TIMEOUT", "3s")

		cfg := Load()
		if cfg.Port != "9090" || cfg.TagsLimit != 25 || cfg.CloudScale != 2.5 || cfg.SessionTTL != time.Hour {
			t.Errorf("Load() = %+v", cfg)
		}
		cc := cfg.Cloud()
		if len(cc.Rotations) != len(cloud.RotationsDiagonal) || cc.Limit != 25 || cc.FetchTimeout != 3*time.Second {
			t.Errorf("Cloud() = %+v", cc)
		}
	})

	t.Run("invalid environment variables use defaults", func(t *testing.T) {
		t.Setenv("TAGS_LIMIT", "invalid")
		t.Setenv("FETCH_TIMEOUT", "soon")

		cfg := Load()
		if cfg.TagsLimit != 100 {
			t.Errorf("Load() TagsLimit = %v, want 100 (default for invalid input)", cfg.TagsLimit)
		}
		if cfg.FetchTimeout != 7*time.Second {
			t.Errorf("Load() FetchTimeout = %v, want 7s (default for invalid input)", cfg.FetchTimeout)
		}
	})
}
