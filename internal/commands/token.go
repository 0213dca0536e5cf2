package commands

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"workforce/backend/internal/auth"
)

// NewTokenCommand prints a token pair for a staff id without a password,
// for operators and smoke tests.
func NewTokenCommand(opts *RootOptions) *cobra.Command {
	var (
		staffID int
		role    string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access and refresh token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			if staffID <= 0 {
				return errors.New("--staff-id is required")
			}

			role = strings.ToUpper(role)
			if role == "" {
				for name, band := range cfg.Policy.Bands {
					if band.Contains(staffID) {
						role = strings.ToUpper(name)
					}
				}
			}
			if role == "" {
				return errors.Errorf("staff id %d is outside every band, pass --role", staffID)
			}

			a, err := auth.New(cfg.JWTKey)
			if err != nil {
				return err
			}

			access, refresh, err := a.GenerateToken(staffID, role)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "role:          %s\naccess_token:  %s\nrefresh_token: %s\n", role, access, refresh)
			return nil
		},
	}

	cmd.Flags().IntVar(&staffID, "staff-id", 0, "staff id to issue the token for")
	cmd.Flags().StringVar(&role, "role", "", "role claim; defaults to the role of the id's band")

	return cmd
}
