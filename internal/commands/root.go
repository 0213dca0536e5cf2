package commands

import (
	"context"
	"log"
	"os"

	"github.com/ardanlabs/conf"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"workforce/backend/internal/pkg/config"
	"workforce/backend/internal/pkg/repository/postgresql"
)

// ErrHelp provides context that help was given.
var ErrHelp = errors.New("provided help")

const envPrefix = "ATTENDANCE"

// overrides are read from ATTENDANCE_* environment variables and take
// precedence over config.yaml. Flags take precedence over both.
type overrides struct {
	ConfigPath string `conf:"default:config.yaml"`
	HTTPPort   string `conf:"noprint"`
	RedisAddr  string `conf:"noprint"`
	JWTKey     string `conf:"noprint"`
}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	HTTPPort   string

	log *log.Logger
	env overrides
}

func NewRootCommand(logger *log.Logger) *cobra.Command {
	opts := &RootOptions{log: logger}

	cmd := &cobra.Command{
		Use:           "api",
		Short:         "Workforce attendance and scheduling API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := conf.Parse([]string{}, envPrefix, &opts.env); err != nil {
				if errors.Is(err, conf.ErrHelpWanted) {
					usage, uerr := conf.Usage(envPrefix, &opts.env)
					if uerr != nil {
						return errors.Wrap(uerr, "generating config usage")
					}
					cmd.Println(usage)
					return ErrHelp
				}
				return errors.Wrap(err, "parsing environment")
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to config.yaml")
	cmd.PersistentFlags().StringVar(&opts.HTTPPort, "port", "", "http listen address, e.g. :8080")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}

// loadConfig reads config.yaml and applies environment and flag overrides.
func (o *RootOptions) loadConfig() (*config.Config, error) {
	path := o.env.ConfigPath
	if o.ConfigPath != "" {
		path = o.ConfigPath
	}

	cfg, err := config.NewConfig(path)
	if err != nil {
		return nil, err
	}

	if o.env.HTTPPort != "" {
		cfg.HTTPPort = o.env.HTTPPort
	}
	if o.HTTPPort != "" {
		cfg.HTTPPort = o.HTTPPort
	}
	if o.env.RedisAddr != "" {
		cfg.RedisAddr = o.env.RedisAddr
	}
	if o.env.JWTKey != "" {
		cfg.JWTKey = o.env.JWTKey
	}

	return cfg, nil
}

func (o *RootOptions) openDatabase(cfg *config.Config) (*postgresql.Database, error) {
	return postgresql.New(postgresql.Config{
		User:       cfg.DBUsername,
		Password:   cfg.DBPassword,
		Host:       cfg.DBHost,
		Port:       cfg.DBPort,
		Name:       cfg.DBName,
		DisableTLS: cfg.DisableTLS,
		Debug:      cfg.DebugSQL,
	}, o.log)
}

// Execute runs the root command with a context cancelled on ctx.
func Execute(ctx context.Context, logger *log.Logger) error {
	cmd := NewRootCommand(logger)
	cmd.SetArgs(os.Args[1:])
	return cmd.ExecuteContext(ctx)
}
