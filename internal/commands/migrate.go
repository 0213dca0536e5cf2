package commands

import (
	"context"
	"database/sql"
	"log"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"workforce/backend/internal/pkg/repository/postgresql"
)

type Scheme struct {
	Index       int
	Description string
	Query       string
}

var scheme = []Scheme{
	{
		Index:       1,
		Description: "Create table: staff.",
		Query: `
        CREATE TABLE IF NOT EXISTS staff (
            id int primary key,
            role text not null,
            full_name text not null,
            password text,
            phone text,
            email text,
            active boolean not null default true,
            created_at timestamp default now(),
            created_by int,
            deleted_at timestamp,
            deleted_by int
        );`,
	},
	{
		Index:       2,
		Description: "Create table: attendance_event.",
		Query: `
        CREATE TABLE IF NOT EXISTS attendance_event (
            id bigserial primary key,
            staff_id int not null references staff(id),
            kind text not null check (kind in ('CLOCK_IN', 'CLOCK_OUT', 'BREAK_START', 'BREAK_END', 'MANUAL_OVERRIDE')),
            occurred_at timestamptz not null,
            reason text,
            device_id text,
            admin_id int references staff(id),
            created_at timestamptz default now()
        );
        CREATE INDEX IF NOT EXISTS attendance_event_staff_occurred_idx
            ON attendance_event (staff_id, occurred_at, id);`,
	},
	{
		Index:       3,
		Description: "Create table: shift.",
		Query: `
        CREATE TABLE IF NOT EXISTS shift (
            id serial primary key,
            staff_id int not null references staff(id),
            work_day date not null,
            start_time varchar(5) not null,
            end_time varchar(5) not null,
            duration_hours double precision not null,
            created_at timestamp default now(),
            created_by int,
            updated_at timestamp,
            updated_by int,
            deleted_at timestamp,
            deleted_by int
        );
        CREATE INDEX IF NOT EXISTS shift_staff_day_idx
            ON shift (staff_id, work_day) WHERE deleted_at IS NULL;`,
	},
	{
		Index:       4,
		Description: "Create table: audit_log.",
		Query: `
        CREATE TABLE IF NOT EXISTS audit_log (
            id bigserial primary key,
            table_name text not null,
            operation text not null,
            record_id int not null,
            actor_id int not null,
            detail text,
            created_at timestamptz default now()
        );`,
	},
}

// MigrateUP applies every scheme entry newer than the recorded version. A
// failed entry marks the version dirty and is retried on the next run.
func MigrateUP(ctx context.Context, db *postgresql.Database, logger *log.Logger) error {
	var (
		version int
		dirty   bool
		er      *string
	)

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (version int not null, dirty bool not null, error text);
	`); err != nil {
		return errors.Wrap(err, "creating schema_migrations")
	}

	err := db.QueryRowContext(ctx, "SELECT version, dirty, error FROM schema_migrations").Scan(&version, &dirty, &er)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err = db.ExecContext(ctx, `INSERT INTO schema_migrations (version, dirty) VALUES (0, false)`); err != nil {
			return errors.Wrap(err, "initializing schema_migrations")
		}
	} else if err != nil {
		return errors.Wrap(err, "selecting schema_migrations")
	}

	if dirty {
		logger.Printf("migrate : version %d is dirty, retrying", version)
		version--
	}

	for _, s := range pending(version) {
		logger.Printf("migrate : %d : %s", s.Index, s.Description)

		if _, err := db.ExecContext(ctx, s.Query); err != nil {
			if _, uerr := db.ExecContext(ctx, `UPDATE schema_migrations SET error = ?, version = ?, dirty = true`, err.Error(), s.Index); uerr != nil {
				return errors.Wrap(uerr, "marking migration dirty")
			}
			return errors.Wrapf(err, "migrate version %d", s.Index)
		}

		if _, err := db.ExecContext(ctx, `UPDATE schema_migrations SET version = ?, dirty = false, error = null`, s.Index); err != nil {
			return errors.Wrap(err, "updating schema_migrations")
		}
	}

	return nil
}

func pending(version int) []Scheme {
	var out []Scheme
	for _, s := range scheme {
		if s.Index > version {
			out = append(out, s)
		}
	}
	return out
}

// SeedAdmin creates the first administrator at the bottom of the admin band
// unless some staff row already uses that id.
func SeedAdmin(ctx context.Context, db *postgresql.Database, id int, password string) error {
	if strings.TrimSpace(password) == "" {
		return errors.New("admin password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hashing password")
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO staff (id, role, full_name, password, active)
		VALUES (?, 'ADMIN', 'Administrator', ?, true)
		ON CONFLICT (id) DO NOTHING
	`, id, string(hash))
	if err != nil {
		return errors.Wrap(err, "seeding admin")
	}

	return nil
}
