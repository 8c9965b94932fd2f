package log

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

const (
	levelFlag  = "loglevel"
	formatFlag = "logformat"
)

func RegisterLoggingFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String(levelFlag, "info", "set the log level (debug, info, warn, error)")
	cmd.PersistentFlags().String(formatFlag, "text", "set the log format (text, json)")
}

// GetBaseLogger builds the logger selected by the logging flags. Logs go to
// the command's error stream so stdout stays usable for command output.
func GetBaseLogger(cmd *cobra.Command) (*slog.Logger, error) {
	level, err := GetLoggerLevel(cmd)
	if err != nil {
		return nil, err
	}
	format, err := cmd.Flags().GetString(formatFlag)
	if err != nil {
		return nil, err
	}
	return NewLogger(cmd.ErrOrStderr(), format, level)
}

func NewLogger(w io.Writer, format string, level slog.Level) (*slog.Logger, error) {
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case "text":
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}
	return slog.New(handler), nil
}

func GetLoggerLevel(cmd *cobra.Command) (slog.Level, error) {
	logLevel, err := cmd.Flags().GetString(levelFlag)
	if err != nil {
		return slog.LevelInfo, err
	}
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", logLevel)
	}
	return level, nil
}
