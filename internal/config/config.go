// Package config resolves resize settings from flags, PIXRESIZE_* environment
// variables, an optional config file and built-in defaults, in that order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"pixresize/internal/logging"
	"pixresize/internal/processor"
	"pixresize/pkg/imgutil"
)

const EnvPrefix = "PIXRESIZE"

const (
	ModePercent = "percent"
	ModePixel   = "pixel"
)

type Config struct {
	Mode             string  `mapstructure:"mode" default:"percent" validate:"oneof=percent pixel"`
	Percent          float64 `mapstructure:"percent" default:"50"`
	Width            int     `mapstructure:"width" default:"1920"`
	Height           int     `mapstructure:"height" default:"1080"`
	KeepAspect       bool    `mapstructure:"keep-aspect" default:"true"`
	Filter           string  `mapstructure:"filter" default:"LANCZOS"`
	Format           string  `mapstructure:"format" default:"original"`
	Quality          int     `mapstructure:"quality" default:"90"`
	DPI              int     `mapstructure:"dpi" default:"300"`
	PreserveMetadata bool    `mapstructure:"preserve-metadata" default:"true"`
	AutoOrient       bool    `mapstructure:"auto-orient" default:"true"`
	Output           string  `mapstructure:"output" default:"resized"`
	Workers          int     `mapstructure:"workers" validate:"gte=0"`
	Plain            bool    `mapstructure:"plain"`
	Verbose          bool    `mapstructure:"verbose"`
	Report           string  `mapstructure:"report"`

	Log logging.Config `mapstructure:"log"`
}

var validate = validator.New()

// Default returns the built-in settings.
func Default() Config {
	var cfg Config
	// Only fails on malformed tags.
	if err := defaults.Set(&cfg); err != nil {
		panic(err)
	}
	return cfg
}

// Load reads .env (if present), the optional config file at path, the
// environment and the changed flags in flags.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
		for key, name := range nestedFlags {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// nestedFlags maps flat flag names onto nested config keys.
var nestedFlags = map[string]string{
	"log.file":  "log-file",
	"log.level": "log-level",
}

// setDefaults registers every key so AutomaticEnv can resolve it during
// Unmarshal even when no file or flag mentions it.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("mode", d.Mode)
	v.SetDefault("percent", d.Percent)
	v.SetDefault("width", d.Width)
	v.SetDefault("height", d.Height)
	v.SetDefault("keep-aspect", d.KeepAspect)
	v.SetDefault("filter", d.Filter)
	v.SetDefault("format", d.Format)
	v.SetDefault("quality", d.Quality)
	v.SetDefault("dpi", d.DPI)
	v.SetDefault("preserve-metadata", d.PreserveMetadata)
	v.SetDefault("auto-orient", d.AutoOrient)
	v.SetDefault("output", d.Output)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("plain", d.Plain)
	v.SetDefault("verbose", d.Verbose)
	v.SetDefault("report", d.Report)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max-size", d.Log.MaxSize)
	v.SetDefault("log.max-backups", d.Log.MaxBackups)
	v.SetDefault("log.max-age", d.Log.MaxAge)
	v.SetDefault("log.compress", d.Log.Compress)
}

// Options converts the settings into the shared job options and validates
// them.
func (c Config) Options() (processor.Options, error) {
	var scale processor.ScaleSpec
	switch strings.ToLower(strings.TrimSpace(c.Mode)) {
	case ModePercent:
		scale = processor.Percentage(c.Percent)
	case ModePixel:
		scale = processor.Absolute(c.Width, c.Height)
		scale.LockAspect = c.KeepAspect
	default:
		return processor.Options{}, fmt.Errorf("%w: unknown mode %q", processor.ErrInvalidOptions, c.Mode)
	}

	format, err := imgutil.ParseFormat(c.Format)
	if err != nil {
		return processor.Options{}, fmt.Errorf("%w: %w", processor.ErrInvalidOptions, err)
	}

	opts := processor.Options{
		Scale:            scale,
		Filter:           processor.Filter(strings.ToUpper(strings.TrimSpace(c.Filter))),
		Format:           format,
		Quality:          c.Quality,
		DPI:              c.DPI,
		PreserveMetadata: c.PreserveMetadata,
		AutoOrient:       c.AutoOrient,
		OutputDir:        c.Output,
	}
	if err := opts.Validate(); err != nil {
		return processor.Options{}, err
	}
	return opts, nil
}

// RegisterFlags defines one flag per setting, named after its config key.
func RegisterFlags(flags *pflag.FlagSet) {
	d := Default()
	flags.String("mode", d.Mode, "scaling mode: percent or pixel")
	flags.Float64P("percent", "p", d.Percent, "scale factor in percent (mode=percent)")
	flags.IntP("width", "W", d.Width, "target width in pixels, 0 to derive it (mode=pixel)")
	flags.IntP("height", "H", d.Height, "target height in pixels, 0 to derive it (mode=pixel)")
	flags.Bool("keep-aspect", d.KeepAspect, "fit inside width x height keeping the aspect ratio (mode=pixel)")
	flags.StringP("filter", "f", d.Filter, "resampling filter, see the formats command")
	flags.String("format", d.Format, "output format, or original to keep the source format")
	flags.IntP("quality", "q", d.Quality, "JPEG/WebP quality, 1-100")
	flags.Int("dpi", d.DPI, "resolution written to the output, 0 to skip")
	flags.Bool("preserve-metadata", d.PreserveMetadata, "copy EXIF into outputs that can carry it")
	flags.Bool("auto-orient", d.AutoOrient, "apply the EXIF orientation before resizing")
	flags.StringP("output", "o", d.Output, "destination folder for resized copies")
	flags.IntP("workers", "j", d.Workers, "parallel workers, 0 for one per CPU")
	flags.Bool("plain", d.Plain, "log progress lines instead of the interactive view")
	flags.BoolP("verbose", "v", d.Verbose, "log per-file details")
	flags.String("report", d.Report, "write a JSON report of the batch to this path")
	flags.String("log-level", d.Log.Level, "log level: debug, info, warn, error")
	flags.String("log-file", d.Log.File, "also write JSON logs to this file")
}
