package cli

import (
	"fmt"
	"os"

	"github.com/LeKyks/pyassist/internal/config"
	"github.com/spf13/cobra"
)

var configureForce bool

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Write a default configuration file",
	Long: `Write a configuration file populated with defaults.
Edit the file afterwards to set API keys and model names, or provide
them through GROQ_API_KEY, ANTHROPIC_API_KEY and OPENAI_API_KEY.`,
	RunE: runConfigure,
}

func init() {
	configureCmd.Flags().BoolVar(&configureForce, "force", false, "overwrite an existing config file")
	rootCmd.AddCommand(configureCmd)
}

func runConfigure(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader(cfgFile)

	path := loader.ConfigPath()
	if !configureForce {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
		}
	}

	if err := loader.Save(config.DefaultConfig()); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Printf("Configuration saved to: %s\n", path)
	fmt.Println("You can now start the API server with: pyassist serve")
	return nil
}
