package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/goSession/password"
	"github.com/spf13/cobra"
)

func newHashPasswordCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print the argon2id hash for a users[].password_hash entry",
		Long: `Print the argon2id PHC hash of a password using the configured cost
parameters. The password is read from the argument or, when absent, from the
first line of standard input.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			var plaintext string
			if len(args) == 1 {
				plaintext = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("no password given")
				}
				plaintext = strings.TrimRight(line, "\r\n")
			}
			if plaintext == "" {
				return errors.New("password must not be empty")
			}

			hasher, err := password.NewArgon2(cfg.Password)
			if err != nil {
				return err
			}
			hash, err := hasher.Hash(plaintext)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file for password cost parameters")
	return cmd
}
