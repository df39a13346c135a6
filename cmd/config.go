package cmd

import (
	"fmt"

	"github.com/Johannes-Berggren/CommitQuery/internal/config"
	"github.com/Johannes-Berggren/CommitQuery/internal/console"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the stored settings",
}

var configSetCmd = &cobra.Command{
	Use:       "set <key> <value>",
	Short:     "Write one setting to config.yml",
	Args:      cobra.ExactArgs(2),
	ValidArgs: config.Keys,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := configDir()
		if err != nil {
			return err
		}
		// Only the file layer is read so a broken file can still be repaired.
		f, err := config.LoadFile(dir)
		if err != nil {
			return err
		}
		if err := f.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := config.Save(dir, f); err != nil {
			return err
		}
		console.Success("已保存 %s", args[0])
		console.Verbose("wrote %s", config.Path(dir))
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		console.Plain(fmt.Sprintf("server: %s\ntimeout: %s\npage_size: %d\nretries: %d\nconfig: %s",
			e.cfg.Server, e.cfg.Timeout, e.cfg.PageSize, e.cfg.Retries, config.Path(e.cfg.Dir)))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configShowCmd)
}

func configDir() (string, error) {
	if flagConfigDir != "" {
		return flagConfigDir, nil
	}
	return config.Dir()
}
