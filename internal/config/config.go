// Package config loads the auto-approve settings from the per-user config file.
//
// A missing or malformed file is a normal outcome: it yields the disabled
// default and never an error.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	// PathEnv overrides the config file location.
	PathEnv = "ZUNDAMON_CONFIG"

	appDir         = "zundamon-notify"
	configFileName = "config.json"
	logFileName    = "auto-approve.log"

	JudgeCodex  = "codex"
	JudgeClaude = "claude"

	DefaultTimeout = 10 * time.Second
	maxTimeout     = 60 * time.Second
)

// Config is the effective gate configuration for one invocation.
type Config struct {
	Path         string        // file the settings were read from
	Loaded       bool          // false when the file was missing or malformed
	Enabled      bool          // auto_approve.enabled
	LogFile      string        // auto_approve.log_file, expanded
	Judge        string        // auto_approve.judge: codex or claude
	JudgeCommand string        // auto_approve.judge_command
	Model        string        // auto_approve.model, claude judge only
	Timeout      time.Duration // auto_approve.timeout
	Prescreen    bool          // auto_approve.prescreen
}

// Disabled returns the configuration used when no usable file exists.
func Disabled(path string) Config {
	return Config{
		Path:         path,
		LogFile:      DefaultLogFile(),
		Judge:        JudgeCodex,
		JudgeCommand: JudgeCodex,
		Timeout:      DefaultTimeout,
	}
}

// Dir returns ~/.config/zundamon-notify.
func Dir() string {
	home, err := homedir.Dir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	return filepath.Join(home, ".config", appDir)
}

// DefaultPath returns the config file location, honoring ZUNDAMON_CONFIG.
func DefaultPath() string {
	if p := os.Getenv(PathEnv); p != "" {
		return expand(p)
	}
	return filepath.Join(Dir(), configFileName)
}

// DefaultLogFile returns the audit log used when auto_approve.log_file is unset.
func DefaultLogFile() string {
	return filepath.Join(Dir(), logFileName)
}

// Load reads the config from DefaultPath.
func Load(logger *zap.Logger) Config {
	return LoadFile(DefaultPath(), logger)
}

// LoadFile reads the config at path. Any failure returns Disabled(path).
func LoadFile(path string, logger *zap.Logger) Config {
	if logger == nil {
		logger = zap.NewNop()
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetDefault("auto_approve.enabled", false)
	v.SetDefault("auto_approve.log_file", "")
	v.SetDefault("auto_approve.judge", JudgeCodex)
	v.SetDefault("auto_approve.judge_command", "")
	v.SetDefault("auto_approve.model", "")
	v.SetDefault("auto_approve.timeout", DefaultTimeout.String())
	v.SetDefault("auto_approve.prescreen", false)

	if err := v.ReadInConfig(); err != nil {
		logger.Debug("config unavailable, auto-approve disabled",
			zap.String("path", path),
			zap.Error(err),
		)
		return Disabled(path)
	}

	cfg := Config{
		Path:      path,
		Loaded:    true,
		Enabled:   v.GetBool("auto_approve.enabled"),
		LogFile:   DefaultLogFile(),
		Judge:     strings.ToLower(strings.TrimSpace(v.GetString("auto_approve.judge"))),
		Model:     strings.TrimSpace(v.GetString("auto_approve.model")),
		Timeout:   parseTimeout(v.Get("auto_approve.timeout")),
		Prescreen: v.GetBool("auto_approve.prescreen"),
	}

	if lf := strings.TrimSpace(v.GetString("auto_approve.log_file")); lf != "" {
		cfg.LogFile = expand(lf)
	}

	switch cfg.Judge {
	case JudgeCodex, JudgeClaude:
	default:
		logger.Warn("unknown judge, using codex", zap.String("judge", cfg.Judge))
		cfg.Judge = JudgeCodex
	}

	cfg.JudgeCommand = strings.TrimSpace(v.GetString("auto_approve.judge_command"))
	if cfg.JudgeCommand == "" {
		cfg.JudgeCommand = cfg.Judge
	} else {
		cfg.JudgeCommand = expand(cfg.JudgeCommand)
	}

	return cfg
}

// parseTimeout accepts a Go duration string or a number of seconds.
// Values outside (0, 60s] fall back to the default.
func parseTimeout(raw any) time.Duration {
	var d time.Duration
	switch val := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(strings.TrimSpace(val))
		if err != nil {
			return DefaultTimeout
		}
		d = parsed
	case float64:
		d = time.Duration(val * float64(time.Second))
	case int:
		d = time.Duration(val) * time.Second
	case int64:
		d = time.Duration(val) * time.Second
	default:
		return DefaultTimeout
	}
	if d <= 0 || d > maxTimeout {
		return DefaultTimeout
	}
	return d
}

func expand(p string) string {
	expanded, err := homedir.Expand(p)
	if err != nil {
		return p
	}
	return expanded
}
