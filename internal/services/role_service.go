package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/janus-erp/janus/internal/logging"
	"github.com/janus-erp/janus/internal/models"
	"github.com/janus-erp/janus/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RoleInput creates a role. On update nil fields are left unchanged.
type RoleInput struct {
	Name        *string
	Description *string
	Permissions models.PermissionMap
}

func (in RoleInput) validate(creating bool) validation.Violations {
	v := validation.Violations{}
	if creating || in.Name != nil {
		name := ""
		if in.Name != nil {
			name = strings.TrimSpace(*in.Name)
		}
		validation.Required("role_name", name, "Role name is required.", v)
		validation.LengthBetween("role_name", name, 1, 100, "Role name must be 100 characters or less.", v)
	}
	if creating || in.Permissions != nil {
		validatePermissions(in.Permissions, v)
	}
	return v
}

func validatePermissions(perms models.PermissionMap, v validation.Violations) {
	if len(perms) == 0 {
		v.Add("permissions", "Permissions cannot be empty.")
		return
	}
	for module, actions := range perms {
		if module != models.PermissionWildcard && !slices.Contains(models.PermissionModules, module) {
			v.Add("permissions", fmt.Sprintf("Unknown permission module %q.", module))
			return
		}
		if len(actions) == 0 {
			v.Add("permissions", fmt.Sprintf("Module %q needs at least one action.", module))
			return
		}
		for _, a := range actions {
			if a != models.PermissionWildcard && !slices.Contains(models.PermissionActions, a) {
				v.Add("permissions", fmt.Sprintf("Unknown action %q for module %q.", a, module))
				return
			}
		}
	}
}

// RoleService manages a company's roles and resolves the roles of a user.
type RoleService struct {
	db     *gorm.DB
	log    *zap.Logger
	access AccessCache
}

func NewRoleService(db *gorm.DB, log *zap.Logger) *RoleService {
	return &RoleService{db: db, log: logging.OrNop(log), access: nopAccessCache{}}
}

func (s *RoleService) SetAccessCache(c AccessCache) {
	if c != nil {
		s.access = c
	}
}

func (s *RoleService) List(ctx context.Context, companyID string) ([]models.Role, error) {
	var roles []models.Role
	err := s.db.WithContext(ctx).Where("company_id = ?", companyID).Order("role_name").Find(&roles).Error
	return roles, err
}

// Get returns ErrNotFound for roles of other companies.
func (s *RoleService) Get(ctx context.Context, companyID, id string) (*models.Role, error) {
	return findRole(s.db.WithContext(ctx), companyID, id)
}

func (s *RoleService) Create(ctx context.Context, companyID, userID string, in RoleInput) (*models.Role, error) {
	if err := invalid(in.validate(true)); err != nil {
		return nil, err
	}
	role := &models.Role{
		CompanyID:   companyID,
		Name:        strings.TrimSpace(*in.Name),
		Permissions: in.Permissions,
		CreatedBy:   userID,
	}
	if in.Description != nil {
		role.Description = strings.TrimSpace(*in.Description)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureRoleNameFree(tx, companyID, role.Name, ""); err != nil {
			return err
		}
		return tx.Create(role).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrRoleExists
	}
	if err != nil {
		return nil, err
	}
	s.log.Info("role created", zap.String("role_id", role.ID), zap.String("company_id", companyID))
	return role, nil
}

// Update changes the given fields. The Super Admin role keeps its name and
// grants; only its description can change.
func (s *RoleService) Update(ctx context.Context, companyID, id string, in RoleInput) (*models.Role, error) {
	if in.Name == nil && in.Description == nil && in.Permissions == nil {
		return nil, ErrNoUpdate
	}
	if err := invalid(in.validate(false)); err != nil {
		return nil, err
	}
	var role *models.Role
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		role, err = findRole(tx, companyID, id)
		if err != nil {
			return err
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if role.IsSuperAdmin() && name != role.Name {
				return ErrProtectedRole
			}
			if err := ensureRoleNameFree(tx, companyID, name, role.ID); err != nil {
				return err
			}
			role.Name = name
		}
		if in.Permissions != nil {
			if role.IsSuperAdmin() {
				return ErrProtectedRole
			}
			role.Permissions = in.Permissions
		}
		if in.Description != nil {
			role.Description = strings.TrimSpace(*in.Description)
		}
		return tx.Save(role).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrRoleExists
	}
	if err != nil {
		return nil, err
	}
	s.access.InvalidateAll()
	s.log.Info("role updated", zap.String("role_id", role.ID))
	return role, nil
}

// Delete removes a role and its assignments. Super Admin cannot be deleted.
func (s *RoleService) Delete(ctx context.Context, companyID, id string) (*models.Role, error) {
	var role *models.Role
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		role, err = findRole(tx, companyID, id)
		if err != nil {
			return err
		}
		if role.IsSuperAdmin() {
			return ErrProtectedRole
		}
		if err := tx.Where("role_id = ?", role.ID).Delete(&models.UserRole{}).Error; err != nil {
			return err
		}
		return tx.Delete(role).Error
	})
	if err != nil {
		return nil, err
	}
	s.access.InvalidateAll()
	s.log.Info("role deleted", zap.String("role_id", role.ID))
	return role, nil
}

// RolesOf returns the roles assigned to a user.
func (s *RoleService) RolesOf(ctx context.Context, userID string) ([]models.Role, error) {
	return rolesOf(s.db.WithContext(ctx), userID)
}

func rolesOf(db *gorm.DB, userID string) ([]models.Role, error) {
	var roles []models.Role
	err := db.Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Order("roles.role_name").
		Find(&roles).Error
	return roles, err
}

func findRole(db *gorm.DB, companyID, id string) (*models.Role, error) {
	var role models.Role
	err := db.Where("id = ? AND company_id = ?", id, companyID).First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func ensureRoleNameFree(tx *gorm.DB, companyID, name, exceptID string) error {
	q := tx.Model(&models.Role{}).Where("company_id = ? AND LOWER(role_name) = LOWER(?)", companyID, name)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrRoleExists
	}
	return nil
}

// createDefaultRoles inserts Super Admin then Member for a new company.
func createDefaultRoles(tx *gorm.DB, companyID, founderID string) ([]models.Role, error) {
	roles := models.DefaultRoles(companyID, founderID)
	if err := tx.Create(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func assignRoles(tx *gorm.DB, userID string, roleIDs ...string) error {
	for _, id := range roleIDs {
		if err := tx.Create(&models.UserRole{UserID: userID, RoleID: id}).Error; err != nil {
			return err
		}
	}
	return nil
}
