// Package config resolves DataProwler settings from layered sources with
// precedence: Environment variables > user YAML file > bundled default YAML >
// schema defaults. A Manager loads the raw merged tree lazily, validates it
// into a typed schema.Settings on demand and serves dotted-path lookups.
package config
