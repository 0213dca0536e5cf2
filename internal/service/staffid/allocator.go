// Package staffid allocates staff identifiers from role bands and creates
// staff records under them.
package staffid

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"workforce/backend/internal/pkg/apperr"
	"workforce/backend/internal/pkg/config"
	"workforce/backend/internal/pkg/retry"
)

// ErrIdentifierTaken is returned by a reserve function when another writer
// already holds the candidate identifier.
var ErrIdentifierTaken = errors.New("identifier already taken")

// Directory reads assigned identifiers. Soft-deleted staff count as assigned.
type Directory interface {
	MaxIdentifierInRange(ctx context.Context, min, max int) (id int, found bool, err error)
}

// ReserveFunc claims id, returning ErrIdentifierTaken on a lost race.
type ReserveFunc func(ctx context.Context, id int) error

type Allocator struct {
	log      *log.Logger
	dir      Directory
	bands    map[string]config.Band
	attempts int
	backoff  time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewAllocator copies the bands out of policy so later edits to the policy
// do not leak in.
func NewAllocator(log *log.Logger, dir Directory, policy config.Policy) *Allocator {
	bands := make(map[string]config.Band, len(policy.Bands))
	for role, b := range policy.Bands {
		bands[strings.ToUpper(role)] = b
	}

	attempts := policy.AllocationAttempts
	if attempts < 1 {
		attempts = 1
	}

	return &Allocator{
		log:      log,
		dir:      dir,
		bands:    bands,
		attempts: attempts,
		backoff:  policy.AllocationBackoff,
		sleep:    retry.Sleep,
	}
}

// Band returns the identifier band of role.
func (a *Allocator) Band(role string) (config.Band, error) {
	b, ok := a.bands[strings.ToUpper(strings.TrimSpace(role))]
	if !ok {
		return config.Band{}, apperr.New(apperr.InvalidRole, "no identifier band for role %q", role)
	}
	return b, nil
}

// Allocate picks the next identifier of role's band and hands it to reserve.
// A lost race is retried after a backoff until the attempts run out.
func (a *Allocator) Allocate(ctx context.Context, role string, reserve ReserveFunc) (int, error) {
	band, err := a.Band(role)
	if err != nil {
		return 0, err
	}

	for attempt := 1; ; attempt++ {
		observed, found, err := a.dir.MaxIdentifierInRange(ctx, band.Min, band.Max)
		if err != nil {
			return 0, errors.Wrap(err, "reading max identifier")
		}
		if !found {
			observed = band.Min - 1
		}

		candidate := observed + 1
		if candidate < band.Min {
			candidate = band.Min
		}
		if candidate > band.Max {
			return 0, apperr.New(apperr.IDRangeExhausted, "identifier band %d-%d of role %s is full", band.Min, band.Max, role)
		}

		err = reserve(ctx, candidate)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, ErrIdentifierTaken) {
			return 0, errors.Wrapf(err, "reserving identifier %d", candidate)
		}

		a.log.Printf("staffid : identifier %d taken, attempt %d/%d", candidate, attempt, a.attempts)

		if attempt >= a.attempts {
			return 0, apperr.Wrap(err, apperr.AllocationConflict, "could not reserve an identifier, retry the request")
		}
		if err := a.sleep(ctx, a.backoff); err != nil {
			return 0, err
		}
	}
}

// RoleForID returns the role whose band contains id.
func (a *Allocator) RoleForID(id int) (string, bool) {
	roles := make([]string, 0, len(a.bands))
	for role := range a.bands {
		roles = append(roles, role)
	}
	sort.Strings(roles)

	for _, role := range roles {
		if a.bands[role].Contains(id) {
			return role, true
		}
	}
	return "", false
}
