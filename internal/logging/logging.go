// SPDX-License-Identifier: EPL-2.0

// Package logging hands out scoped leveled loggers.
package logging

import (
	"github.com/pion/logging"
)

var loggerFactory = logging.NewDefaultLoggerFactory()

// NewLogger returns the logger for scope. Levels are controlled through the
// PION_LOG_<LEVEL> environment variables read by pion/logging.
func NewLogger(scope string) logging.LeveledLogger {
	return loggerFactory.NewLogger(scope)
}
