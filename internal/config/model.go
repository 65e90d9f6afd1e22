// internal/config/model.go
//
// Typed configuration model for Orderform.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from four layers:
//
//   • built-in defaults                          – Defaults() below,
//   • optional `.env`                            – dotenv values,
//   • optional `conf/app.yaml`                   – primary static file,
//   • `ORDERFORM_`-prefixed environment overrides – highest precedence.
//
// Validation happens immediately after unmarshal; the app fails fast if a
// value is out of range.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr      string        `koanf:"listen_addr"      validate:"required,hostname_port"`
	ForceHTTPS      bool          `koanf:"force_https"`
	ReadTimeout     time.Duration `koanf:"read_timeout"     validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    validate:"gt=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"     validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

//
// Session section
//

// Session bounds the in-memory form sessions.
type Session struct {
	Capacity   int           `koanf:"capacity"    validate:"gte=1"`
	IdleTTL    time.Duration `koanf:"idle_ttl"    validate:"gte=0"`
	CookieName string        `koanf:"cookie_name" validate:"required"`
}

//
// Picture section
//

// Picture caps profile-picture uploads.
type Picture struct {
	MaxBytes int64 `koanf:"max_bytes" validate:"gte=1024"`
}

//
// View, metrics, and log sections
//

// View points at optional on-disk template overrides.
type View struct {
	ThemeDir string `koanf:"theme_dir"`
	Theme    string `koanf:"theme"`
	Reload   bool   `koanf:"reload"` // re-read templates on every render
}

// Metrics toggles the Prometheus endpoint.
type Metrics struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path" validate:"required,startswith=/"`
}

// Log controls the file logger.
type Log struct {
	Dir string `koanf:"dir"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime and never set in YAML or env.
type Paths struct {
	Root string // ORDERFORM_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP    HTTP    `koanf:"http"`
	Session Session `koanf:"session"`
	Picture Picture `koanf:"picture"`
	View    View    `koanf:"view"`
	Metrics Metrics `koanf:"metrics"`
	Log     Log     `koanf:"log"`
	Paths   Paths   `koanf:"-"` // not loaded from config files
}

// Defaults returns the configuration used when no file or env overrides it.
func Defaults() Config {
	return Config{
		HTTP: HTTP{
			ListenAddr:      ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Session: Session{
			Capacity:   4096,
			IdleTTL:    30 * time.Minute,
			CookieName: "orderform_session",
		},
		Picture: Picture{MaxBytes: 5 << 20},
		View:    View{Theme: "default"},
		Metrics: Metrics{Enabled: true, Path: "/metrics"},
		Log:     Log{Dir: "logs"},
	}
}
