package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"strings"

	"github.com/goliatone/go-microsite"
	"github.com/goliatone/go-microsite/internal/di"
	"github.com/goliatone/go-microsite/pkg/interfaces"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. MICROSITE_STORAGE_DRIVER.
const EnvPrefix = "MICROSITE"

// Options captures configuration for CLI bootstraps.
type Options struct {
	// ConfigFile is read when set. Otherwise microsite.{yaml,json,toml} is
	// looked up in the working directory and skipped when absent.
	ConfigFile string
	// EnvFile is loaded into the process environment before reading config.
	EnvFile string
	// EnvFileRequired fails when EnvFile does not exist.
	EnvFileRequired bool
	LoggerProvider  interfaces.LoggerProvider
}

// LoadConfig merges defaults, the config file and MICROSITE_ environment
// variables. It returns the config file used, if any.
func LoadConfig(opts Options) (microsite.Config, string, error) {
	cfg := microsite.DefaultConfig()

	if envFile := strings.TrimSpace(opts.EnvFile); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) || opts.EnvFileRequired {
				return cfg, "", fmt.Errorf("load env file %s: %w", envFile, err)
			}
		}
	}

	v := viper.New()
	setDefaults(v, "", reflect.ValueOf(cfg))

	if file := strings.TrimSpace(opts.ConfigFile); file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("microsite")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	used := ""
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || strings.TrimSpace(opts.ConfigFile) != "" {
			return cfg, "", fmt.Errorf("read config: %w", err)
		}
	} else {
		used = v.ConfigFileUsed()
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, used, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, used, err
	}
	return cfg, used, nil
}

// setDefaults registers every mapstructure key of value so environment
// variables can override keys missing from the config file.
func setDefaults(v *viper.Viper, prefix string, value reflect.Value) {
	typ := value.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tag := strings.Split(field.Tag.Get("mapstructure"), ",")[0]
		if tag == "" || tag == "-" {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		fv := value.Field(i)
		if fv.Kind() == reflect.Struct {
			setDefaults(v, key, fv)
			continue
		}
		v.SetDefault(key, fv.Interface())
	}
}

// BuildModule constructs the microsite module for cfg.
func BuildModule(ctx context.Context, cfg microsite.Config, opts Options) (*microsite.Module, error) {
	diOpts := []di.Option{}
	if opts.LoggerProvider != nil {
		diOpts = append(diOpts, di.WithLoggerProvider(opts.LoggerProvider))
	}
	module, err := microsite.New(ctx, cfg, diOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise microsite module: %w", err)
	}
	return module, nil
}
