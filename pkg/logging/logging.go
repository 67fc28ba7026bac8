// Package logging builds the process logger and scrubs connection strings
// before they are logged.
package logging

import (
	"go.uber.org/zap"
)

// New constructs the root logger for the given environment. Local and
// development environments get the human-readable development encoder;
// everything else logs structured JSON at info level.
func New(env string) (*zap.Logger, error) {
	switch env {
	case "local", "development":
		return zap.NewDevelopment()
	default:
		return zap.NewProduction()
	}
}
