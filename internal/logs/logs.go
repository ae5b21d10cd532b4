// Package logs provides the leveled printf-style loggers used across the
// project binaries.
package logs

import (
	"log"
	"os"
)

var logger = log.New(os.Stderr, "", log.LstdFlags)

// SetOutput redirects all log output, mainly for tests.
func SetOutput(l *log.Logger) {
	logger = l
}

func Infof(format string, v ...any) {
	logger.Printf("[INFO] "+format, v...)
}

func Warnf(format string, v ...any) {
	logger.Printf("[WARN] "+format, v...)
}

func Errorf(format string, v ...any) {
	logger.Printf("[ERROR] "+format, v...)
}
