// Package config defines the upgrade run settings and provides helpers to
// load, validate and save them in YAML format.
//
// The Config type holds the upstream page and mirror URLs, the target
// architecture, the run log location and the sudo elevation credential.
// A missing credential is a fatal startup error.
package config
