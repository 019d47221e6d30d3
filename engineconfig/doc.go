// Package engineconfig loads the scheduler engine's own tunables — worker
// count and the pop-failure log threshold — from a YAML document or from
// config.Properties/environment variables, with environment variables
// always taking precedence. It is scoped strictly to the scheduler's own
// settings; the enclosing daemon's CLI flags and configuration file format
// are out of scope.
package engineconfig
