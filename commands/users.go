package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/telebroad/rftp/ftp/ftpusers"
)

var hashCost int

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage the users file",
}

var usersHashCmd = &cobra.Command{
	Use:   "hash <password>",
	Short: "Print a bcrypt hash for the password_hash field of the users file",
	Example: `  rftp users hash s3cret
  rftp users hash --cost 12 s3cret`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if hashCost != 0 && (hashCost < bcrypt.MinCost || hashCost > bcrypt.MaxCost) {
			return fmt.Errorf("cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
		}
		hash, err := ftpusers.HashPassword(args[0], hashCost)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the users in the configured users file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Users.File == "" {
			return errors.New("no users file configured")
		}
		store, err := ftpusers.LoadFile(cfg.Users.File)
		if err != nil {
			return err
		}
		list, err := store.List()
		if err != nil {
			return err
		}
		for _, u := range list {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", u.Username, u.Rights)
		}
		return nil
	},
}

func init() {
	usersHashCmd.Flags().IntVar(&hashCost, "cost", 0, "bcrypt cost (default: bcrypt.DefaultCost)")
	usersCmd.AddCommand(usersHashCmd)
	usersCmd.AddCommand(usersListCmd)
}
