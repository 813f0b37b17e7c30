package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"csv-reconciler/core/logger"
	"csv-reconciler/core/reconcile"
	"csv-reconciler/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Reconcile holds the matching rule, folders and concurrency settings.
	Reconcile reconcile.Config `mapstructure:"reconcile"`
	// Storage holds configuration for publishing outputs to object storage.
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
}

// LoadConfig loads configuration from the .env file in dir, environment
// variables and, when file is not empty, a YAML or JSON config file.
// Environment variables take precedence over the file.
func LoadConfig(dir, file string) (*Config, error) {
	envPath := filepath.Join(dir, ".env")
	// A missing .env is normal outside development.
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Register every key with its default so AutomaticEnv can see it.
	bindValues(v, Config{}, "")

	// RECONCILE_MATCHING_FIELDS -> reconcile.matching_fields
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		if _, err := os.Stat(file); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: config file %s not found", reconcile.ErrInvalidConfig, file)
			}
			return nil, fmt.Errorf("%w: %v", reconcile.ErrInvalidConfig, err)
		}
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", reconcile.ErrInvalidConfig, file, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("%w: %v", reconcile.ErrInvalidConfig, err)
	}

	return &config, nil
}

// Validate normalizes derived settings and reports the first unusable one.
func (c *Config) Validate() error {
	c.Reconcile.Normalize()
	return c.Reconcile.Validate()
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Slices default to nil; an empty string would decode as [""].
		if field.Type.Kind() == reflect.Slice {
			v.SetDefault(key, []string{})
			continue
		}

		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
