package cli

import (
	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the merged configuration",
		Long:  "Print the settings in effect after config.yaml, .env, WORLDWISE_* variables\nand flags are applied.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := a.settings
			dataDir, err := a.dataDir()
			if err != nil {
				return err
			}
			s.DataDir = dataDir
			out, err := s.YAML()
			if err != nil {
				return sysError(err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
