// Package application provides application initialization and dependency wiring.
// It validates the settings held by a config.Manager and builds the settings
// API router and HTTP server from them, keeping the main package focused on
// CLI parsing and orchestration.
package application
