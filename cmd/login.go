package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Johannes-Berggren/CommitQuery/internal/console"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	flagUsername string
	flagPassword string
)

var errNoCredentials = errors.New("请输入用户名和密码")

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the access token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}

		username, password, err := credentials(cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		token, err := e.client.Login(cmd.Context(), username, password)
		if err != nil {
			return err
		}
		if err := e.store.Save(token); err != nil {
			return err
		}

		console.Success("登录成功")
		console.Verbose("token stored in %s", e.store.Path())
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored access token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		if err := e.store.Clear(); err != nil {
			return err
		}
		console.Success("已退出登录")
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&flagUsername, "username", "u", "", "user name (prompted if empty)")
	loginCmd.Flags().StringVarP(&flagPassword, "password", "p", "", "password (prompted without echo if empty)")
}

// credentials takes the user name and password from flags, prompting for
// whatever is missing.
func credentials(in io.Reader, prompt io.Writer) (string, string, error) {
	reader := bufio.NewReader(in)

	username := strings.TrimSpace(flagUsername)
	if username == "" {
		fmt.Fprint(prompt, "用户名: ")
		line, err := readLine(reader)
		if err != nil {
			return "", "", err
		}
		username = strings.TrimSpace(line)
	}

	password := flagPassword
	if password == "" {
		fmt.Fprint(prompt, "密码: ")
		var err error
		if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			var b []byte
			b, err = term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(prompt)
			password = string(b)
		} else {
			password, err = readLine(reader)
		}
		if err != nil {
			return "", "", fmt.Errorf("reading password: %w", err)
		}
	}

	if username == "" || password == "" {
		return "", "", errNoCredentials
	}
	return username, password, nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
