package logging

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Configure sets level and formatter of the standard logrus logger.
// format is "text" or "json".
func Configure(level, format string) error {
	return configure(log.StandardLogger(), level, format)
}

func configure(l *log.Logger, level, format string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	l.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "", "text":
		l.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		l.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", format)
	}
	return nil
}
