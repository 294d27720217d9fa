package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/amrverse/amrrulebrowser/internal/ingest"
	"github.com/amrverse/amrrulebrowser/internal/session"
)

// app carries the state shared by all commands of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	verbose bool
	stdout  io.Writer
	stderr  io.Writer
	logger  *zap.Logger
	sess    *session.Session
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		v:      viper.New(),
		stdout: stdout,
		stderr: stderr,
		logger: zap.NewNop(),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.path", "~/.amrrules/store.duckdb")
	v.SetDefault("source.repo", "AMRverse/AMRrules")
	v.SetDefault("source.branch", "main")
	v.SetDefault("source.path", "rules")
	v.SetDefault("source.extension", ".txt")
	v.SetDefault("source.mapping_url", "https://raw.githubusercontent.com/amrverse/AMRrulebrowser/main/card_drug_names.tsv")
	v.SetDefault("source.token", "")
	v.SetDefault("fetch.workers", 4)
	v.SetDefault("fetch.timeout", "30s")
	v.SetDefault("rules.blocked_ids", []string{})
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log.level", "info")
}

// init reads configuration and builds the logger. It runs before every command.
func (a *app) init(cmd *cobra.Command) error {
	setDefaults(a.v)
	a.v.SetEnvPrefix("AMRRULES")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		a.v.AddConfigPath(home)
		a.v.SetConfigName(".amrrules")
		a.v.SetConfigType("yaml")
	}
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	logger, err := newLogger(a.stderr, a.v.GetString("log.level"), a.verbose)
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

func newLogger(w io.Writer, level string, verbose bool) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if verbose {
		lvl = zapcore.DebugLevel
	} else if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log.level %q: %w", level, err)
		}
		lvl = parsed
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout(time.TimeOnly)
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}

// storePath returns the configured store path with "~" expanded.
func (a *app) storePath() (string, error) {
	p := a.v.GetString("store.path")
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return p, nil
}

func (a *app) sourceConfig() ingest.GitHubConfig {
	return ingest.GitHubConfig{
		Repo:       a.v.GetString("source.repo"),
		Branch:     a.v.GetString("source.branch"),
		Path:       a.v.GetString("source.path"),
		Extension:  a.v.GetString("source.extension"),
		MappingURL: a.v.GetString("source.mapping_url"),
		Token:      a.v.GetString("source.token"),
		Timeout:    a.v.GetDuration("fetch.timeout"),
	}
}

// session opens the session on first use.
func (a *app) session(ctx context.Context) (*session.Session, error) {
	if a.sess != nil {
		return a.sess, nil
	}
	path, err := a.storePath()
	if err != nil {
		return nil, err
	}

	corrections := a.v.GetStringMapString("lookup.corrections")
	if len(corrections) == 0 {
		corrections = nil
	}

	sess, err := session.Open(ctx, session.Options{
		StorePath:   path,
		Source:      ingest.NewGitHubSource(a.sourceConfig()),
		BlockedIDs:  a.v.GetStringSlice("rules.blocked_ids"),
		Corrections: corrections,
		Workers:     a.v.GetInt("fetch.workers"),
		Logger:      a.logger,
	})
	if err != nil {
		return nil, err
	}
	a.sess = sess
	return sess, nil
}

func (a *app) close() {
	if a.sess != nil {
		if err := a.sess.Close(); err != nil {
			a.logger.Warn("closing store", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// notice prints a user-facing status line on stderr.
func (a *app) notice(format string, args ...interface{}) {
	fmt.Fprintf(a.stderr, format+"\n", args...)
}
