// Package config defines the server configuration model and its
// YAML loader, validator, and file watcher.
//
// Configuration is loaded once at process start. The route table and
// the listener are immutable for the life of the process, so the
// watcher only reports on-disk changes; applying them requires a
// restart.
package config
