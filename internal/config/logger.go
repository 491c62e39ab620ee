package config

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger builds the application logger: JSON production output, or the
// console development encoder when Development is set.
func (l Log) NewLogger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if l.Development {
		zc = zap.NewDevelopmentConfig()
	}
	if l.Level != "" {
		level, err := zap.ParseAtomicLevel(l.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log.level: %w", err)
		}
		zc.Level = level
	}
	return zc.Build()
}
