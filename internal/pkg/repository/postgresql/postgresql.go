package postgresql

import (
	"context"
	"database/sql"
	"log"
	"net"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

// Database embeds the bun handle shared by every postgres repository.
type Database struct {
	*bun.DB
}

type Config struct {
	User       string
	Password   string
	Host       string
	Port       string
	Name       string
	DisableTLS bool
	Debug      bool
}

// New opens a connection pool and verifies it with a ping.
func New(cfg Config, logger *log.Logger) (*Database, error) {
	connector := pgdriver.NewConnector(
		pgdriver.WithAddr(net.JoinHostPort(cfg.Host, cfg.Port)),
		pgdriver.WithUser(cfg.User),
		pgdriver.WithPassword(cfg.Password),
		pgdriver.WithDatabase(cfg.Name),
		pgdriver.WithInsecure(cfg.DisableTLS),
		pgdriver.WithTimeout(5*time.Second),
	)

	sqldb := sql.OpenDB(connector)
	db := bun.NewDB(sqldb, pgdialect.New())

	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.WithWriter(logger.Writer()),
		))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "connecting to postgres")
	}

	return &Database{DB: db}, nil
}

// DeleteRow soft deletes a row that carries the deleted_at/deleted_by columns.
func (d Database) DeleteRow(ctx context.Context, table string, id int, actorID int) error {
	res, err := d.NewUpdate().
		Table(table).
		Set("deleted_at = ?", time.Now().UTC()).
		Set("deleted_by = ?", actorID).
		Where("deleted_at IS NULL AND id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.Wrapf(err, "deleting %s", table)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNoRows
	}

	return nil
}

// ErrNoRows is returned by DeleteRow when nothing matched.
var ErrNoRows = errors.New("no rows affected")

// IsUniqueViolation reports whether err is a postgres unique_violation.
func IsUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	return false
}
