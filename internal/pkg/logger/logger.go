// Package logger は slog ベースの構造化ログを作る。ファイル出力は lumberjack でローテーションする。
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"catalog/internal/config"

	"gopkg.in/natefinch/lumberjack.v2"
)

// New は設定に従ってloggerを作り、slogのデフォルトにも設定する。
// 返す io.Closer はファイル出力を閉じる（stdoutのみなら何もしない）。
func New(cfg config.LogConfig) (*slog.Logger, io.Closer, error) {
	var (
		out    io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)

	switch cfg.Output {
	case "", "stdout":
	case "file", "both":
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		fw := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		closer = fw
		out = fw
		if cfg.Output == "both" {
			out = io.MultiWriter(os.Stdout, fw)
		}
	default:
		return nil, nil, fmt.Errorf("unknown log output %q", cfg.Output)
	}

	l := slog.New(newHandler(out, cfg))
	slog.SetDefault(l)
	return l, closer, nil
}

func newHandler(w io.Writer, cfg config.LogConfig) slog.Handler {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// 不明な値は info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
