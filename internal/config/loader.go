// internal/config/loader.go
//
// Configuration loader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from four layers (highest
precedence last):

  1. Built-in defaults (`Defaults()`).
  2. Optional `.env` file at `<root>/conf/.env`.
  3. Optional `conf/app.yaml`.
  4. Environment variables prefixed `ORDERFORM_`, where `__` maps to “.”
     (e.g., `ORDERFORM_HTTP__LISTEN_ADDR → http.listen_addr`).

After merging, the tree is unmarshalled over the defaults, validated,
enriched with the runtime root path, and cached in an `atomic.Pointer`
for lock-free reads.  `Reload()` simply calls `Load()` again and swaps the
pointer.

Instrumentation
---------------
  • DEBUG spans: root discovery, YAML read.
  • ERROR spans: YAML parse, env overlay, unmarshal, validation failures.
  • INFO  span:  final “config loaded” with key highlights.
  • Logs use the global *sugared* logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed.
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

const (
	envPrefix = "ORDERFORM_"
	rootEnv   = "ORDERFORM_ROOT"
	yamlName  = "app.yaml"
)

var current atomic.Pointer[Config]

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves ORDERFORM_ROOT or climbs directories until conf/app.yaml
// is found.  Falls back to the working directory.
func rootDir() string {
	if r := os.Getenv(rootEnv); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", yamlName)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads defaults, .env, YAML, env overrides, validates, and caches Config.
func Load() (*Config, error) {
	root := rootDir()
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", yamlName)
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
			return nil, fmt.Errorf("load %s: %w", yamlPath, err)
		}
		zap.S().Debugw("config yaml absent, using defaults", "file", yamlPath)
	} else {
		zap.S().Debugw("config yaml loaded", "file", yamlPath)
	}

	// Env overrides: ORDERFORM_HTTP__LISTEN_ADDR → http.listen_addr
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(s, envPrefix), "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, fmt.Errorf("env overlay: %w", err)
	}

	cfg := Defaults()
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Paths.Root = root
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, fmt.Errorf("validate config: %w", err)
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"force_https", cfg.HTTP.ForceHTTPS,
		"session_capacity", cfg.Session.Capacity,
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func Get() *Config  { return current.Load() }
func Reload() error { _, err := Load(); return err }
