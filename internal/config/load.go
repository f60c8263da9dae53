package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/agleyzer/streamdl/internal/downloader"
	"github.com/agleyzer/streamdl/internal/transport"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by streamdl.
const EnvPrefix = "STREAMDL"

// Configuration keys. Flags use the same names.
const (
	KeyOutput       = "output"
	KeyLocal        = "local"
	KeyLive         = "live"
	KeyConvert      = "convert"
	KeySleep        = "sleep"
	KeyAddHeader    = "add-header"
	KeyRemoveHeader = "remove-header"
	KeyBaseURL      = "base-url"
	KeyVariant      = "variant"
	KeyPollInterval = "poll-interval"
	KeyTimeout      = "timeout"
	KeyProgress     = "progress"
	KeyVerbose      = "verbose"
	KeyHeaders      = "headers"
)

// RegisterFlags defines the download flags on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP(KeyOutput, "o", "", "downloads to the given outfile (default download<timestamp>.ts)")
	fs.BoolP(KeyLocal, "l", false, "treat the source as a local playlist file")
	fs.Bool(KeyLive, false, "keep polling the playlist and append new segments until interrupted")
	fs.StringP(KeyConvert, "c", "", "convert the download afterwards (mp3, mp4)")
	fs.StringP(KeySleep, "s", "", "sleeps a fixed time sec or random in [minsec;maxsec] before each segment (sec|minsec-maxsec)")
	fs.StringArrayP(KeyAddHeader, "a", nil, "adds or overwrites a request header (header:value), repeatable")
	fs.StringArrayP(KeyRemoveHeader, "r", nil, "removes a default request header, repeatable")
	fs.StringP(KeyBaseURL, "b", "", "overrides the URL segments are resolved against")
	fs.Int(KeyVariant, NoVariant, "variant index to download from a master playlist (prompts if unset)")
	fs.Duration(KeyPollInterval, DefaultPollInterval, "delay between playlist reloads in live mode")
	fs.Duration(KeyTimeout, transport.DefaultTimeout, "timeout of a single HTTP request")
	fs.Bool(KeyProgress, false, "draw a progress bar instead of periodic progress lines")
	fs.CountP(KeyVerbose, "v", "shows progress, use -vv for maximum verbosity")
}

// NewViper creates the configuration store. An explicit configFile must
// exist; otherwise streamdl.yaml is looked up in the usual places and its
// absence is not an error.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "streamdl"))
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName("streamdl")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyHeaders, DefaultHeaders())
	v.SetDefault(KeyVariant, NoVariant)
	v.SetDefault(KeyPollInterval, DefaultPollInterval)
	v.SetDefault(KeyTimeout, transport.DefaultTimeout)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: failed to read config file: %w", ErrMalformedConfig, err)
		}
	}

	return v, nil
}

// BindFlags makes every flag in fs visible to v under its own name.
func BindFlags(fs *pflag.FlagSet, v *viper.Viper) error {
	var lastErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if err := v.BindPFlag(f.Name, f); err != nil {
			lastErr = err
		}
	})
	return lastErr
}

// Resolve builds and validates the run configuration from v and the
// positional arguments.
func Resolve(v *viper.Viper, args []string, now time.Time) (*RunConfig, error) {
	cfg := &RunConfig{
		Local:        v.GetBool(KeyLocal),
		Output:       v.GetString(KeyOutput),
		BaseURL:      v.GetString(KeyBaseURL),
		Live:         v.GetBool(KeyLive),
		Variant:      v.GetInt(KeyVariant),
		PollInterval: v.GetDuration(KeyPollInterval),
		Timeout:      v.GetDuration(KeyTimeout),
		Progress:     v.GetBool(KeyProgress),
		Verbosity:    v.GetInt(KeyVerbose),
	}

	if len(args) > 0 {
		cfg.Source = args[0]
	}
	if cfg.Output == "" {
		cfg.Output = DefaultOutput(now)
	}

	var err error
	if cfg.Pacing, err = ParsePacing(v.GetString(KeySleep)); err != nil {
		return nil, err
	}
	if cfg.Format, err = ParseFormat(v.GetString(KeyConvert)); err != nil {
		return nil, err
	}

	cfg.Headers, err = ApplyHeaders(
		v.GetStringMapString(KeyHeaders),
		v.GetStringSlice(KeyAddHeader),
		v.GetStringSlice(KeyRemoveHeader),
	)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Dump writes cfg as YAML.
func Dump(w io.Writer, cfg *RunConfig) error {
	view := struct {
		Source       string            `yaml:"source"`
		Local        bool              `yaml:"local"`
		Output       string            `yaml:"output"`
		BaseURL      string            `yaml:"base_url,omitempty"`
		Sleep        string            `yaml:"sleep"`
		Convert      string            `yaml:"convert,omitempty"`
		Live         bool              `yaml:"live"`
		Variant      int               `yaml:"variant"`
		PollInterval string            `yaml:"poll_interval"`
		Timeout      string            `yaml:"timeout"`
		Progress     bool              `yaml:"progress"`
		Verbose      int               `yaml:"verbose"`
		Headers      map[string]string `yaml:"headers"`
	}{
		Source:       cfg.Source,
		Local:        cfg.Local,
		Output:       cfg.Output,
		BaseURL:      cfg.BaseURL,
		Sleep:        formatPacing(cfg.Pacing),
		Convert:      string(cfg.Format),
		Live:         cfg.Live,
		Variant:      cfg.Variant,
		PollInterval: cfg.PollInterval.String(),
		Timeout:      cfg.Timeout.String(),
		Progress:     cfg.Progress,
		Verbose:      cfg.Verbosity,
		Headers:      cfg.Headers,
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(view); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

func formatPacing(p downloader.Pacing) string {
	if p.Min == p.Max {
		return strconv.FormatFloat(p.Min, 'f', -1, 64)
	}
	return strconv.FormatFloat(p.Min, 'f', -1, 64) + "-" + strconv.FormatFloat(p.Max, 'f', -1, 64)
}
