package config

import "testing"

func TestDefaultConfigValidates(t *testing.T) {
	c := DefaultConfig()
	c.BaseURL = "http://localhost:3000"
	c.Provider = "mock"
	if err := c.Validate(); err != nil {
		t.Fatalf("expected default config (mock provider) to validate, got: %v", err)
	}
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	c := DefaultConfig()
	c.BaseURL = "http://localhost:3000"
	c.Provider = "carrier-pigeon"
	if err := c.Validate(); err == nil {
		t.Fatal("expected validation error for unknown provider")
	}
}

func TestValidateRequiresAPIKeyUnlessMock(t *testing.T) {
	c := DefaultConfig()
	c.BaseURL = "http://localhost:3000"
	c.Provider = "anthropic"
	c.APIKey = ""
	t.Setenv("ANTHROPIC_API_KEY", "")
	if err := c.Validate(); err == nil {
		t.Fatal("expected validation error when no apiKey and no env fallback")
	}
}

func TestValidateRequiresBaseURLOrEnvironments(t *testing.T) {
	c := DefaultConfig()
	c.Provider = "mock"
	if err := c.Validate(); err == nil {
		t.Fatal("expected validation error when baseUrl and environments are both empty")
	}

	c.Envs = map[string]EnvConfig{"dev": {URL: "http://localhost:3000"}}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected environments alone to satisfy baseUrl requirement, got: %v", err)
	}
}

func TestValidateRejectsDanglingCurrentEnv(t *testing.T) {
	c := DefaultConfig()
	c.Provider = "mock"
	c.BaseURL = "http://localhost:3000"
	c.Current = "staging"
	if err := c.Validate(); err == nil {
		t.Fatal("expected validation error for currentEnv referencing unknown environment")
	}
}

func TestEffectiveBaseURLPrefersCurrentEnv(t *testing.T) {
	c := DefaultConfig()
	c.BaseURL = "http://localhost:3000"
	c.Envs = map[string]EnvConfig{"staging": {URL: "https://staging.example.com"}}
	c.Current = "staging"
	if got := c.EffectiveBaseURL(); got != "https://staging.example.com" {
		t.Fatalf("expected staging URL, got %s", got)
	}
}

func TestResolveHeadlessAuto(t *testing.T) {
	c := DefaultConfig()
	c.Headless = "auto"

	t.Setenv("CI", "true")
	if !c.ResolveHeadless(true) {
		t.Fatal("expected headless=true when CI is set, even with a TTY")
	}

	t.Setenv("CI", "")
	if c.ResolveHeadless(true) {
		t.Fatal("expected headless=false for a TTY with no CI")
	}
	if !c.ResolveHeadless(false) {
		t.Fatal("expected headless=true for a non-TTY")
	}
}
