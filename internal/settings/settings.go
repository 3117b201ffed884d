// Package settings resolves user-level preferences: command-line flags,
// JINSPECT_* environment variables (optionally from a .env file) and
// ~/.config/jinspect/settings.toml, in that order of precedence.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	EnvPrefix  = "JINSPECT"
	configName = "settings"
	configType = "toml"
)

// Keys shared by flags, env and the settings file.
const (
	KeyColor          = "color"
	KeyQuiet          = "quiet"
	KeyTimings        = "timings"
	KeyMaxDiagnostics = "max-diagnostics"
	KeyJobs           = "jobs"
	KeyFormat         = "format"
	KeyLogLevel       = "log-level"
	KeyTrace          = "trace"
	KeyTraceLevel     = "trace-level"
	KeyTraceFormat    = "trace-format"
	KeyTraceMode      = "trace-mode"
)

// Settings is the resolved view of every key.
type Settings struct {
	Color          string
	Quiet          bool
	Timings        bool
	MaxDiagnostics int
	Jobs           int
	Format         string
	LogLevel       string
	Trace          string
	TraceLevel     string
	TraceFormat    string
	TraceMode      string
	// ConfigFile is the settings file that was read, empty when none.
	ConfigFile string
}

// New returns a viper instance reading through fsys with the defaults,
// search paths and env binding in place. Flags are bound by the caller.
func New(fsys afero.Fs) (*viper.Viper, error) {
	v := viper.New()
	v.SetFs(fsys)
	v.SetConfigName(configName)
	v.SetConfigType(configType)

	home, err := homedir.Dir()
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	v.AddConfigPath(ConfigDir(home))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyColor, "auto")
	v.SetDefault(KeyQuiet, false)
	v.SetDefault(KeyTimings, false)
	v.SetDefault(KeyMaxDiagnostics, 100)
	v.SetDefault(KeyJobs, 0)
	v.SetDefault(KeyFormat, "pretty")
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyTrace, "")
	v.SetDefault(KeyTraceLevel, "off")
	v.SetDefault(KeyTraceFormat, "auto")
	v.SetDefault(KeyTraceMode, "stream")
	return v, nil
}

// ConfigDir is where settings.toml is looked up.
func ConfigDir(home string) string {
	return filepath.Join(home, ".config", "jinspect")
}

// Load reads the settings file, if any, and returns the merged settings.
func Load(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return s, fmt.Errorf("settings: %w", err)
		}
	}
	s = Settings{
		Color:          v.GetString(KeyColor),
		Quiet:          v.GetBool(KeyQuiet),
		Timings:        v.GetBool(KeyTimings),
		MaxDiagnostics: v.GetInt(KeyMaxDiagnostics),
		Jobs:           v.GetInt(KeyJobs),
		Format:         v.GetString(KeyFormat),
		LogLevel:       v.GetString(KeyLogLevel),
		Trace:          v.GetString(KeyTrace),
		TraceLevel:     v.GetString(KeyTraceLevel),
		TraceFormat:    v.GetString(KeyTraceFormat),
		TraceMode:      v.GetString(KeyTraceMode),
		ConfigFile:     v.ConfigFileUsed(),
	}
	return s, s.validate()
}

func (s *Settings) validate() error {
	switch s.Color {
	case "auto", "on", "off":
	default:
		return fmt.Errorf("settings: color must be auto, on or off, got %q", s.Color)
	}
	if s.MaxDiagnostics < 0 {
		return fmt.Errorf("settings: max-diagnostics must not be negative")
	}
	if s.Jobs < 0 {
		return fmt.Errorf("settings: jobs must not be negative")
	}
	return nil
}

// LoadDotEnv exports the JINSPECT_* entries of path into the process
// environment. Variables that are already set win; a missing file is not an
// error.
func LoadDotEnv(fsys afero.Fs, path string) error {
	f, err := fsys.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	vars, err := godotenv.Parse(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	for k, val := range vars {
		if !strings.HasPrefix(k, EnvPrefix+"_") {
			continue
		}
		if _, set := os.LookupEnv(k); set {
			continue
		}
		if err := os.Setenv(k, val); err != nil {
			return err
		}
	}
	return nil
}
