package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds the CLI's connection details for a transflow server's
// control surface.
type Config struct {
	ServerURL string `mapstructure:"server_url"`
	Token     string `mapstructure:"token"`
}

// InitConfig initializes the configuration from ~/.transflowctl.yaml.
func InitConfig() {
	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	viper.AddConfigPath(home)
	viper.SetConfigType("yaml")
	viper.SetConfigName(".transflowctl")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		// Config file found and loaded
	}
}

// SaveConfig saves the configuration to ~/.transflowctl.yaml.
func SaveConfig(serverURL, token string) error {
	if serverURL != "" {
		viper.Set("server_url", serverURL)
	}
	if token != "" {
		viper.Set("token", token)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	configPath := filepath.Join(home, ".transflowctl.yaml")
	return viper.WriteConfigAs(configPath)
}

// GetConfig returns the current configuration.
func GetConfig() *Config {
	return &Config{
		ServerURL: viper.GetString("server_url"),
		Token:     viper.GetString("token"),
	}
}
