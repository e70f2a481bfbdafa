// Package config manages the gphoto-get settings.
//
// Settings are stored as TOML (default: $HOME/.gphoto-get/config.toml) and
// loaded with sane defaults when the file is absent:
//
//	settings, err := config.Load(config.DefaultConfigPath())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Command-line flags are expected to override loaded values; the config
// package itself only deals with defaults, the file format, and validation.
package config
