// Package logger provides leveled logging helpers for the Reelist backend.
package logger

import (
	"log"
	"os"
	"strings"
)

var debugEnabled = strings.EqualFold(os.Getenv("REELIST_DEBUG"), "true")

// Info logs informational messages
func Info(format string, args ...interface{}) {
	log.Printf("INFO: "+format, args...)
}

// Warn logs warning messages
func Warn(format string, args ...interface{}) {
	log.Printf("WARN: "+format, args...)
}

// Error logs error messages
func Error(format string, args ...interface{}) {
	log.Printf("ERROR: "+format, args...)
}

// Debug logs debug messages when REELIST_DEBUG is set
func Debug(format string, args ...interface{}) {
	if debugEnabled {
		log.Printf("DEBUG: "+format, args...)
	}
}
