package main

import (
	"fmt"

	"go.uber.org/zap"
)

// newLogger builds a production (json) or development (console) logger at
// the given level.
func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}

	var conf zap.Config
	switch format {
	case "", "json":
		conf = zap.NewProductionConfig()
	case "console":
		conf = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	conf.Level = lvl
	return conf.Build()
}
