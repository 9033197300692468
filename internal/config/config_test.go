package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GoogleAPIKey != "abc" || cfg.Port != "8080" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Locate.RadiusMeters != 50 || cfg.Locate.View != "FULL_LAYERS" || cfg.Locate.Quality != "LOW" || cfg.Locate.PixelSizeMeters != 0.5 {
		t.Fatalf("unexpected locate defaults %+v", cfg.Locate)
	}
	if cfg.HTTPTimeout != 30*time.Second || cfg.CacheMaxAge != 0 || cfg.CacheBackend != "memory" {
		t.Fatalf("unexpected durations/backend %+v", cfg)
	}
	if cfg.RenderCacheEntries != 16 || cfg.RenderCacheMaxAge != 10*time.Minute {
		t.Fatalf("unexpected render cache %d/%v", cfg.RenderCacheEntries, cfg.RenderCacheMaxAge)
	}
	if len(cfg.WarmAddresses) != 0 {
		t.Fatalf("expected no warm addresses, got %q", cfg.WarmAddresses)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "abc")
	t.Setenv("SOLAR_QUALITY", "HIGH")
	t.Setenv("SOLAR_PIXEL_SIZE", "0.25")
	t.Setenv("WARM_ADDRESSES", "1600 Amphitheatre Parkway; Av. Paulista, 1578")
	t.Setenv("WARM_INTERVAL", "2h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Locate.Quality != "HIGH" || cfg.Locate.PixelSizeMeters != 0.25 {
		t.Fatalf("unexpected locate %+v", cfg.Locate)
	}
	if len(cfg.WarmAddresses) != 2 || cfg.WarmAddresses[1] != "Av. Paulista, 1578" {
		t.Fatalf("unexpected warm addresses %q", cfg.WarmAddresses)
	}
	if cfg.WarmInterval != 2*time.Hour {
		t.Fatalf("unexpected warm interval %v", cfg.WarmInterval)
	}
}

func TestLoadReportsEveryProblem(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("CACHE_BACKEND", "disk")

	_, err := Load()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"GOOGLE_API_KEY is required", "CACHE_BACKEND must be memory or valkey"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "abc")
	t.Setenv("HTTP_TIMEOUT", "soon")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "invalid HTTP_TIMEOUT") {
		t.Fatalf("expected invalid HTTP_TIMEOUT, got %v", err)
	}
}
