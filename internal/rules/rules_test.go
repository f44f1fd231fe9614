package rules

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default rule set invalid: %v", err)
	}

	// The fixed contract values. These numbers are pinned deliberately:
	// changing any of them changes sizing behavior, not implementation.
	if cfg.Sizing.BasePositionPct != 0.10 || cfg.Sizing.MaxPositionPct != 0.30 {
		t.Errorf("base/max = %v/%v", cfg.Sizing.BasePositionPct, cfg.Sizing.MaxPositionPct)
	}
	if cfg.Sizing.BigOpportunity.Multiplier != 2.0 || cfg.Sizing.BigOpportunity.T2108Below != 20 {
		t.Errorf("big_opportunity = %+v", cfg.Sizing.BigOpportunity)
	}
	if len(cfg.Sizing.VIXBands) != 6 || len(cfg.Exits.Regimes) != 6 {
		t.Errorf("bands=%d regimes=%d, want 6 each", len(cfg.Sizing.VIXBands), len(cfg.Exits.Regimes))
	}
}

func TestHashDeterministic(t *testing.T) {
	h1, err := Hash(Default())
	if err != nil {
		t.Fatal(err)
	}
	h2, _ := Hash(Default())

	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64", len(h1))
	}
	if h1 != h2 {
		t.Error("hash not deterministic")
	}

	changed := Default()
	changed.Sizing.BasePositionPct = 0.12
	h3, _ := Hash(changed)
	if h3 == h1 {
		t.Error("different configs must hash differently")
	}
}

func TestLoadOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	yaml := `
meta:
  rule_set_id: bidback-test
sizing:
  base_position_pct: 0.08
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, raw, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(raw) == 0 {
		t.Error("raw yaml bytes not returned")
	}

	// Overridden field changes, everything else keeps its default.
	if cfg.Sizing.BasePositionPct != 0.08 {
		t.Errorf("base_position_pct = %v, want 0.08", cfg.Sizing.BasePositionPct)
	}
	if cfg.Meta.RuleSetID != "bidback-test" {
		t.Errorf("rule_set_id = %q", cfg.Meta.RuleSetID)
	}
	if cfg.Sizing.MaxPositionPct != 0.30 {
		t.Errorf("max_position_pct = %v, default lost", cfg.Sizing.MaxPositionPct)
	}
	if len(cfg.Exits.Regimes) != 6 {
		t.Errorf("regimes = %d, default lost", len(cfg.Exits.Regimes))
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	yaml := `
sizing:
  base_positon_pct: 0.08
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := Load(path); err == nil {
		t.Fatal("typo'd field must fail loudly, not fall back to defaults")
	}
}

func TestValidateRejectsBrokenTables(t *testing.T) {
	breakers := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero base", func(c *Config) { c.Sizing.BasePositionPct = 0 }},
		{"cap below base", func(c *Config) { c.Sizing.MaxPositionPct = 0.05 }},
		{"ladder not descending", func(c *Config) { c.Sizing.BreadthLadder[2].MinUp4Pct = 300 }},
		{"empty ladder", func(c *Config) { c.Sizing.BreadthLadder = nil }},
		{"last band not open-ended", func(c *Config) { c.Sizing.VIXBands[5].Below = 50 }},
		{"bands not ascending", func(c *Config) { c.Sizing.VIXBands[2].Below = 5 }},
		{"positive stop", func(c *Config) { c.Exits.Regimes[0].StopLossPct = 5 }},
		{"targets inverted", func(c *Config) { c.Exits.Regimes[0].ProfitTarget2Pct = 1 }},
		{"zero hold days", func(c *Config) { c.Exits.Regimes[0].HoldDays = 0 }},
		{"last regime not open-ended", func(c *Config) { c.Exits.Regimes[5].VIXBelow = 40 }},
		{"bad extra closure", func(c *Config) { c.Calendar.ExtraClosures = []string{"03/05/2025"} }},
	}
	for _, tt := range breakers {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
