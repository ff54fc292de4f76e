package service

import (
	"context"
	"errors"

	"github.com/titanaprilian/authguard/internal/apperr"
	"github.com/titanaprilian/authguard/internal/events"
	"github.com/titanaprilian/authguard/internal/models"
	"github.com/titanaprilian/authguard/internal/repo"
	"github.com/titanaprilian/authguard/internal/search"
	"github.com/titanaprilian/authguard/pkg/logging"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionPrint  Action = "print"
)

// PermissionInput is one caller-supplied (feature, flags) entry used when
// creating or updating a role.
type PermissionInput struct {
	FeatureID uint `json:"feature_id"`
	CanCreate bool `json:"can_create"`
	CanRead   bool `json:"can_read"`
	CanUpdate bool `json:"can_update"`
	CanDelete bool `json:"can_delete"`
	CanPrint  bool `json:"can_print"`
}

// RBACService evaluates permissions and maintains the coverage invariant:
// exactly one RoleFeature row per live (role, feature) pair, at all times.
type RBACService struct {
	Repo     *repo.GormRepo
	Producer *events.Producer
	Audit    *search.AuditIndexer
}

func (s *RBACService) emit(ctx context.Context, e events.Event) {
	s.Producer.Emit(ctx, e)
	s.Audit.Emit(ctx, e)
}

// Check answers allow/deny for one request. It reads live state on every
// call; a flag flipped mid-session takes effect on the next request.
func (s *RBACService) Check(ctx context.Context, userID uint, featureName string, action Action) error {
	user, err := s.Repo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.ErrUnauthorized
		}
		return err
	}

	row, err := s.Repo.FindPermission(ctx, user.RoleID, featureName)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			// Unknown feature or missing row both read as deny.
			return apperr.ErrPermissionDenied
		}
		return err
	}

	var allowed bool
	switch action {
	case ActionCreate:
		allowed = row.CanCreate
	case ActionRead:
		allowed = row.CanRead
	case ActionUpdate:
		allowed = row.CanUpdate
	case ActionDelete:
		allowed = row.CanDelete
	case ActionPrint:
		allowed = row.CanPrint
	}
	if !allowed {
		return apperr.ErrPermissionDenied
	}
	return nil
}

func suppliedRows(perms []PermissionInput) map[uint]models.RoleFeature {
	if perms == nil {
		return nil
	}
	supplied := make(map[uint]models.RoleFeature, len(perms))
	for _, p := range perms {
		supplied[p.FeatureID] = models.RoleFeature{
			CanCreate: p.CanCreate,
			CanRead:   p.CanRead,
			CanUpdate: p.CanUpdate,
			CanDelete: p.CanDelete,
			CanPrint:  p.CanPrint,
		}
	}
	return supplied
}

// CreateRole inserts the role and back-fills one permission row for every
// existing feature in a single transaction.
func (s *RBACService) CreateRole(ctx context.Context, name, description string, isPrivileged bool, perms []PermissionInput) (*models.Role, error) {
	l := logging.FromContext(ctx).With("svc", "rbac.create_role", "name", name)

	role := models.Role{
		Name:         name,
		Description:  description,
		IsPrivileged: isPrivileged,
	}
	if err := s.Repo.CreateRoleWithBackfill(ctx, &role, suppliedRows(perms)); err != nil {
		return nil, err
	}

	l.Info("role_created", "role_id", role.ID)
	s.emit(ctx, events.Event{Type: events.TypeRoleChanged, Entity: name, Detail: "created"})
	return &role, nil
}

// UpdateRole changes the role's attributes; when perms is non-nil the role's
// permission rows are wiped and replaced (omitted features get all-false
// rows, so coverage is preserved).
func (s *RBACService) UpdateRole(ctx context.Context, id uint, name, description *string, perms []PermissionInput) (*models.Role, error) {
	role, err := s.Repo.FindRoleByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role.Name == models.ProtectedRoleName {
		return nil, apperr.ErrProtectedEntity
	}

	if name != nil {
		role.Name = *name
	}
	if description != nil {
		role.Description = *description
	}
	if err := s.Repo.UpdateRoleWithPermissions(ctx, role, suppliedRows(perms)); err != nil {
		return nil, err
	}

	s.emit(ctx, events.Event{Type: events.TypeRoleChanged, Entity: role.Name, Detail: "updated"})
	return role, nil
}

// DeleteRole cascades the role's permission rows. The protected role is
// rejected unconditionally; a role still assigned to users is rejected too.
func (s *RBACService) DeleteRole(ctx context.Context, id uint) error {
	role, err := s.Repo.FindRoleByID(ctx, id)
	if err != nil {
		return err
	}
	if role.Name == models.ProtectedRoleName {
		return apperr.ErrProtectedEntity
	}
	if err := s.Repo.DeleteRole(ctx, id); err != nil {
		return err
	}

	s.emit(ctx, events.Event{Type: events.TypeRoleChanged, Entity: role.Name, Detail: "deleted"})
	return nil
}

// CreateFeature inserts the feature and back-fills one permission row for
// every existing role, in a single transaction. Privileged roles get
// all-true rows regardless of the supplied defaults.
func (s *RBACService) CreateFeature(ctx context.Context, name, description string, defaults PermissionInput) (*models.Feature, error) {
	l := logging.FromContext(ctx).With("svc", "rbac.create_feature", "name", name)

	feature := models.Feature{Name: name, Description: description}
	defaultRow := models.RoleFeature{
		CanCreate: defaults.CanCreate,
		CanRead:   defaults.CanRead,
		CanUpdate: defaults.CanUpdate,
		CanDelete: defaults.CanDelete,
		CanPrint:  defaults.CanPrint,
	}
	if err := s.Repo.CreateFeatureWithBackfill(ctx, &feature, defaultRow); err != nil {
		return nil, err
	}

	l.Info("feature_created", "feature_id", feature.ID)
	s.emit(ctx, events.Event{Type: events.TypeFeatureChanged, Entity: name, Detail: "created"})
	return &feature, nil
}

func (s *RBACService) UpdateFeature(ctx context.Context, id uint, name, description *string) (*models.Feature, error) {
	feature, err := s.Repo.FindFeatureByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if feature.Name == models.ProtectedFeatureName {
		return nil, apperr.ErrProtectedEntity
	}

	if name != nil {
		feature.Name = *name
	}
	if description != nil {
		feature.Description = *description
	}
	if err := s.Repo.SaveFeature(ctx, feature); err != nil {
		return nil, err
	}

	s.emit(ctx, events.Event{Type: events.TypeFeatureChanged, Entity: feature.Name, Detail: "updated"})
	return feature, nil
}

func (s *RBACService) DeleteFeature(ctx context.Context, id uint) error {
	feature, err := s.Repo.FindFeatureByID(ctx, id)
	if err != nil {
		return err
	}
	if feature.Name == models.ProtectedFeatureName {
		return apperr.ErrProtectedEntity
	}
	if err := s.Repo.DeleteFeature(ctx, id); err != nil {
		return err
	}

	s.emit(ctx, events.Event{Type: events.TypeFeatureChanged, Entity: feature.Name, Detail: "deleted"})
	return nil
}
