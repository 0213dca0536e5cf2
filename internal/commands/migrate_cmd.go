package commands

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	var adminPassword string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long: `Apply pending schema migrations. With --admin-password the first
administrator is created at the lowest id of the ADMIN band.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			db, err := opts.openDatabase(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := MigrateUP(cmd.Context(), db, opts.log); err != nil {
				return err
			}

			if adminPassword == "" {
				return nil
			}

			band, ok := cfg.Policy.Bands["ADMIN"]
			if !ok {
				return errors.New("no ADMIN band configured")
			}
			if err := SeedAdmin(cmd.Context(), db, band.Min, adminPassword); err != nil {
				return err
			}
			opts.log.Printf("migrate : admin %d ready", band.Min)
			return nil
		},
	}

	cmd.Flags().StringVar(&adminPassword, "admin-password", "", "create the first administrator with this password")

	return cmd
}
