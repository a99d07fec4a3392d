// The udslink command runs the local IPC server and a small client for
// exercising it.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/udslink/udslink/internal/core"
)

var ConfigFlag string

func main() {
	rootCmd := &cobra.Command{
		Use:   "udslink",
		Short: "Local IPC packet server and client",
	}
	rootCmd.PersistentFlags().StringVarP(&ConfigFlag, "config", "c", "", "Path to the directory containing the config file")

	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(clientCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// loadConfig reads the config directory from the flag, falling back to the
// defaults when no config file exists.
func loadConfig() (*core.Config, error) {
	path := ConfigFlag
	if path == "" {
		path = "./"
	}

	cfg, err := core.LoadConfig(path)
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return core.DefaultConfig(), nil
		}
		return nil, err
	}
	return cfg, nil
}
