// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` immediately after it
// unmarshals the merged Koanf tree into a `Config` instance.  Any tag
// mismatch aborts startup, so the binary never runs with a zero timeout,
// an empty session store, or an unparsable listen address.

package config

import "github.com/go-playground/validator/v10"

var v = validator.New()

// validateStruct returns the validation errors, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}
