package cmd

import (
	"time"

	"github.com/Johannes-Berggren/CommitQuery/internal/console"
	"github.com/Johannes-Berggren/CommitQuery/internal/session"
	"github.com/spf13/cobra"
)

var flagCheck bool

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Show the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		token, err := e.store.Guard()
		if err != nil {
			return err
		}

		if info, err := session.Inspect(token); err == nil {
			if info.Subject != "" {
				console.Info("用户: %s", info.Subject)
			}
			if !info.ExpiresAt.IsZero() {
				console.Info("过期时间: %s", info.ExpiresAt.Local().Format(time.DateTime))
			}
		} else {
			console.Verbose("token is opaque: %v", err)
		}

		if !flagCheck {
			console.Success("已登录")
			return nil
		}

		status, err := e.client.CheckAuth(cmd.Context())
		if err != nil {
			return e.rejected(err)
		}
		if !status.Authenticated {
			_ = e.store.Clear()
			return session.ErrNotAuthenticated
		}
		console.Success("服务器已确认登录: %s", status.Username)
		return nil
	},
}

func init() {
	authCmd.Flags().BoolVar(&flagCheck, "check", false, "ask the server whether the token is still accepted")
}
