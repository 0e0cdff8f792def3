package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configSave bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective settings, or save them with --save",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configSave {
			if err := settings.Save(configPath); err != nil {
				return fmt.Errorf("save settings: %w", err)
			}
			logger.Info("settings written to %s", configPath)
			return nil
		}
		data, err := yaml.Marshal(settings)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	configCmd.Flags().BoolVar(&configSave, "save", false, "Write the effective settings (flags included) to the settings file")
	rootCmd.AddCommand(configCmd)
}
