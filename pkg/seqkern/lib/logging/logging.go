// Copyright 2026 Strandlab, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logging builds the zap loggers the command layer hands to the
// library.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level selects the minimum severity that gets logged.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Style selects the output encoding.
type Style string

const (
	// StyleTerminal is a human-readable development encoding.
	StyleTerminal Style = "terminal"
	// StyleJSON is a structured production encoding.
	StyleJSON Style = "json"
	// StyleNoop discards all output.
	StyleNoop Style = "noop"
)

// Config holds logger settings.
type Config struct {
	Level Level
	Style Style
}

// NewLogger builds a logger from the config. Unknown levels fall back to
// info and unknown styles to terminal; nil config uses both fallbacks.
func NewLogger(cfg *Config) *zap.Logger {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Style == StyleNoop {
		return zap.NewNop()
	}

	level := zapcore.InfoLevel
	switch cfg.Level {
	case LevelDebug:
		level = zapcore.DebugLevel
	case LevelWarn:
		level = zapcore.WarnLevel
	case LevelError:
		level = zapcore.ErrorLevel
	}

	var zcfg zap.Config
	switch cfg.Style {
	case StyleJSON:
		zcfg = zap.NewProductionConfig()
	default:
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zcfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
