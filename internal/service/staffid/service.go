package staffid

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/unicode/norm"

	"workforce/backend/internal/entity"
	"workforce/backend/internal/pkg/apperr"
	"workforce/backend/internal/service/audit"
)

// StaffStore persists staff rows keyed by their allocated identifier.
type StaffStore interface {
	Directory
	// TryReserve inserts staff with its ID set and returns
	// ErrIdentifierTaken when the ID is already used.
	TryReserve(ctx context.Context, staff *entity.Staff) error
	GetByID(ctx context.Context, id int) (entity.Staff, error)
}

// Auditor records audit entries on a best-effort basis.
type Auditor interface {
	Record(ctx context.Context, entry entity.AuditLog) bool
}

type CreateRequest struct {
	Role     string
	FullName string
	Password string
	Phone    *string
	Email    *string
	ActorID  int
}

type Service struct {
	log     *log.Logger
	store   StaffStore
	alloc   *Allocator
	auditor Auditor
}

func NewService(log *log.Logger, store StaffStore, alloc *Allocator, auditor Auditor) *Service {
	return &Service{
		log:     log,
		store:   store,
		alloc:   alloc,
		auditor: auditor,
	}
}

// CreateStaff allocates an identifier in the role's band and inserts the
// staff row under it.
func (s *Service) CreateStaff(ctx context.Context, req CreateRequest) (entity.Staff, error) {
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if _, err := s.alloc.Band(role); err != nil {
		return entity.Staff{}, err
	}

	// Names are stored in NFC.
	name := norm.NFC.String(strings.TrimSpace(req.FullName))
	if name == "" {
		return entity.Staff{}, apperr.New(apperr.InvalidArgument, "full name is required")
	}
	if len(req.Password) < 6 {
		return entity.Staff{}, apperr.New(apperr.InvalidArgument, "password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return entity.Staff{}, errors.Wrap(err, "hashing password")
	}
	hashed := string(hash)

	actor := req.ActorID
	var created entity.Staff

	_, err = s.alloc.Allocate(ctx, role, func(ctx context.Context, id int) error {
		staff := entity.Staff{
			ID:        id,
			Role:      role,
			FullName:  name,
			Password:  &hashed,
			Phone:     req.Phone,
			Email:     req.Email,
			Active:    true,
			CreatedBy: &actor,
		}
		if err := s.store.TryReserve(ctx, &staff); err != nil {
			return err
		}
		created = staff
		return nil
	})
	if err != nil {
		return entity.Staff{}, err
	}

	s.log.Printf("staffid : created staff[%d] role[%s]", created.ID, created.Role)

	s.auditor.Record(ctx, entity.AuditLog{
		TableName: "staff",
		Operation: audit.OpCreate,
		RecordID:  created.ID,
		ActorID:   req.ActorID,
		Detail:    fmt.Sprintf("%s %s", created.Role, created.FullName),
	})

	created.Password = nil
	return created, nil
}

// GetStaff returns a staff member without the password hash.
func (s *Service) GetStaff(ctx context.Context, id int) (entity.Staff, error) {
	staff, err := s.store.GetByID(ctx, id)
	if err != nil {
		return entity.Staff{}, err
	}
	staff.Password = nil
	return staff, nil
}

// Authenticate checks a staff member's password and returns the role that
// the identifier's band assigns to them.
func (s *Service) Authenticate(ctx context.Context, id int, password string) (entity.Staff, error) {
	staff, err := s.store.GetByID(ctx, id)
	if err != nil || !staff.Active || staff.Password == nil {
		return entity.Staff{}, apperr.New(apperr.NotFound, "incorrect staff id or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*staff.Password), []byte(password)); err != nil {
		return entity.Staff{}, apperr.New(apperr.NotFound, "incorrect staff id or password")
	}

	if role, ok := s.alloc.RoleForID(staff.ID); ok {
		staff.Role = role
	}
	staff.Password = nil
	return staff, nil
}
