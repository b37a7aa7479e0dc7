// Package logging sets up the console logger shared by the commands.
package logging

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NewLogger returns a console logger writing to w, at debug level when
// debug is set and info level otherwise.
func NewLogger(w io.Writer, debug bool) zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	output.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("%s", i)
	}
	output.FormatFieldName = func(i interface{}) string {
		return fmt.Sprintf("%s:", i)
	}
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// Install makes logger the process default and attaches it to ctx, so
// library code logging through zerolog.Ctx finds it.
func Install(ctx context.Context, logger zerolog.Logger) context.Context {
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger
	return logger.WithContext(ctx)
}
