// internal/config/model.go
//
// Typed configuration model for SiteWright.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                              – dotenv values,
//   • `conf/global.yaml`                           – primary static file,
//   • `SITEWRIGHT_`-prefixed environment overrides – highest precedence.
//
// Secret-bearing fields (the 10Web API key, the Stripe key) may carry a
// `vault:` URI instead of a literal value; cmd/web resolves those through
// the Vault client after Load returns, so nothing below this package ever
// sees a Vault URI.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`—Koanf ignores `yaml` tags
//     unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
}

//
// Database section
//

// Database holds the Postgres DSN and pool tunables.  The DSN points at the
// managed Postgres instance (Supabase); the password portion normally lives
// in the DSN itself, which is why the whole value may be a `vault:` URI.
type Database struct {
	DSN          string `koanf:"dsn" validate:"required"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
}

//
// TenWeb section
//

// TenWebTimeouts buckets upstream calls by cost.  Cheap lookups (subdomain
// check, domain list) use Check; site creation and AI generation hold a
// request open for minutes and use Create/Generate.
type TenWebTimeouts struct {
	Check    time.Duration `koanf:"check"`
	Admin    time.Duration `koanf:"admin"`
	Sitemap  time.Duration `koanf:"sitemap"`
	Create   time.Duration `koanf:"create"`
	Generate time.Duration `koanf:"generate"`
}

// TenWeb configures the upstream site-builder client.
type TenWeb struct {
	BaseURL  string         `koanf:"base_url" validate:"required,url"`
	APIKey   string         `koanf:"api_key"  validate:"required"`
	Region   string         `koanf:"region"`
	Timeouts TenWebTimeouts `koanf:"timeouts"`
}

//
// Billing section
//

// Billing configures the Stripe side-channel.  Only redirect-URL creation
// happens server-side; the checkout UI itself is Stripe-hosted.
type Billing struct {
	StripeKey  string `koanf:"stripe_key" validate:"required"`
	SuccessURL string `koanf:"success_url" validate:"required,url"`
	CancelURL  string `koanf:"cancel_url"  validate:"required,url"`
}

//
// Retry section
//

// Retry bounds the upstream retry loops.  CreateAttempts caps the creation
// workflow, SubdomainAttempts caps the allocator, and StepAttempts caps the
// per-pipeline-step 5xx/429 retry.
type Retry struct {
	CreateAttempts    int `koanf:"create_attempts"    validate:"min=1,max=10"`
	SubdomainAttempts int `koanf:"subdomain_attempts" validate:"min=1,max=10"`
	StepAttempts      int `koanf:"step_attempts"      validate:"min=1,max=10"`
}

//
// Log section
//

// Log holds logger tunables.
type Log struct {
	Level string `koanf:"level"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime—never set in YAML or env.  The loader
// discovers `Root` (repo root or SITEWRIGHT_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root string // SITEWRIGHT_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	TenWeb   TenWeb   `koanf:"tenweb"`
	Billing  Billing  `koanf:"billing"`
	Retry    Retry    `koanf:"retry"`
	Log      Log      `koanf:"log"`
	Paths    Paths    `koanf:"-"` // not loaded from config files
}

// applyDefaults fills the gaps YAML is allowed to leave open.  Timeout
// defaults mirror the observed upstream behaviour: 20 s for cheap lookups,
// 150 s for creation and full generation.
func (c *Config) applyDefaults() {
	t := &c.TenWeb.Timeouts
	if t.Check == 0 {
		t.Check = 20 * time.Second
	}
	if t.Admin == 0 {
		t.Admin = 30 * time.Second
	}
	if t.Sitemap == 0 {
		t.Sitemap = 120 * time.Second
	}
	if t.Create == 0 {
		t.Create = 150 * time.Second
	}
	if t.Generate == 0 {
		t.Generate = 150 * time.Second
	}

	if c.Retry.CreateAttempts == 0 {
		c.Retry.CreateAttempts = 5
	}
	if c.Retry.SubdomainAttempts == 0 {
		c.Retry.SubdomainAttempts = 6
	}
	if c.Retry.StepAttempts == 0 {
		c.Retry.StepAttempts = 4 // first call plus three retries
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}
