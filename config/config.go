// Package config loads rekon settings. The embedded default.yaml is always read
// first so a user file only has to carry the keys it overrides.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

//go:embed default.yaml
var defaultYAML []byte

const (
	// EnvPrefix is prepended to every environment override, e.g. REKON_PORTS.
	EnvPrefix = "REKON"
	fileName  = ".rekon"
)

// Load reads the embedded defaults and merges cfgFile on top. When cfgFile is
// empty, ./.rekon.yaml and ~/.rekon.yaml are searched; a missing file is not an error.
func Load(cfgFile string) error {
	if err := UseDefaults(); err != nil {
		return err
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(fileName)
	}

	if err := viper.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	return nil
}

// UseDefaults resets viper to the embedded configuration only.
func UseDefaults() error {
	viper.Reset()
	viper.SetConfigType("yaml")
	if err := viper.ReadConfig(bytes.NewReader(defaultYAML)); err != nil {
		return fmt.Errorf("loading embedded configuration: %w", err)
	}
	return nil
}
