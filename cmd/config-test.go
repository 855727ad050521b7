package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"tfscope/configs"
)

// configTestCmd validates and prints the effective configuration
var configTestCmd = &cobra.Command{
	Use:   "config-test",
	Short: "Validate and print the effective configuration",
	Long: `Load the configuration from file, environment and flags, validate it,
and print the merged result as YAML.`,
	RunE: runConfigTest,
}

func init() {
	rootCmd.AddCommand(configTestCmd)
}

func runConfigTest(cmd *cobra.Command, args []string) error {
	cfg, err := configs.Load(viper.GetViper())
	if err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}

	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintf(os.Stderr, "config file: %s\n", used)
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}
