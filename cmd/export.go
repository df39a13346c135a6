package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/Johannes-Berggren/CommitQuery/internal/console"
	"github.com/Johannes-Berggren/CommitQuery/internal/ui"
	"github.com/spf13/cobra"
)

var flagCopy bool

var (
	errNothingToExport = errors.New("没有可导出的内容")
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the commits as plain text",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		if _, err := e.store.Guard(); err != nil {
			return err
		}

		q := exportQueryFromFlags(time.Now(), detectCheckout(cmd.Context()))
		if err := q.Validate(); err != nil {
			return err
		}

		content, err := e.client.ExportText(cmd.Context(), q)
		if err != nil {
			return e.rejected(err)
		}
		content = ui.CleanText(content)
		if content == "" {
			return errNothingToExport
		}
		console.Plain(content)

		if flagCopy {
			if err := clipboardWrite(content); err != nil {
				return fmt.Errorf("复制失败: %w", err)
			}
			console.Success("已复制到剪贴板")
		}
		return nil
	},
}

func init() {
	addFilterFlags(exportCmd)
	exportCmd.Flags().BoolVar(&flagCopy, "copy", false, "also copy the text to the clipboard")
}
