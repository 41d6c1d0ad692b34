package services

import (
	"context"
	"errors"

	"github.com/janus-erp/janus/internal/logging"
	"github.com/janus-erp/janus/internal/models"
	"github.com/janus-erp/janus/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Member is a user of a company with the roles assigned to them.
type Member struct {
	User  models.User
	Roles []models.Role
}

// IsSuperAdmin reports whether any of the member's roles is Super Admin.
func (m *Member) IsSuperAdmin() bool {
	for i := range m.Roles {
		if m.Roles[i].IsSuperAdmin() {
			return true
		}
	}
	return false
}

// MemberUpdate changes a member. Nil fields are left unchanged; a non-nil
// RoleIDs replaces every assignment.
type MemberUpdate struct {
	RoleIDs  *[]string
	IsActive *bool
}

// MemberService lists and updates the users of a company.
type MemberService struct {
	db     *gorm.DB
	log    *zap.Logger
	access AccessCache
}

func NewMemberService(db *gorm.DB, log *zap.Logger) *MemberService {
	return &MemberService{db: db, log: logging.OrNop(log), access: nopAccessCache{}}
}

func (s *MemberService) SetAccessCache(c AccessCache) {
	if c != nil {
		s.access = c
	}
}

func (s *MemberService) List(ctx context.Context, companyID string) ([]Member, error) {
	db := s.db.WithContext(ctx)
	var users []models.User
	if err := db.Where("company_id = ?", companyID).Order("full_name, email").Find(&users).Error; err != nil {
		return nil, err
	}
	out := make([]Member, len(users))
	for i, u := range users {
		roles, err := rolesOf(db, u.ID)
		if err != nil {
			return nil, err
		}
		out[i] = Member{User: u, Roles: roles}
	}
	return out, nil
}

// Get returns ErrNotFound for users of other companies.
func (s *MemberService) Get(ctx context.Context, companyID, userID string) (*Member, error) {
	return findMember(s.db.WithContext(ctx), companyID, userID)
}

// Update applies u to a member. Super Admins cannot be deactivated and
// cannot lose the Super Admin role.
func (s *MemberService) Update(ctx context.Context, companyID, userID string, u MemberUpdate) (*Member, error) {
	if u.RoleIDs == nil && u.IsActive == nil {
		return nil, ErrNoUpdate
	}
	var member *Member
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		member, err = findMember(tx, companyID, userID)
		if err != nil {
			return err
		}
		superAdmin := member.IsSuperAdmin()
		if u.IsActive != nil {
			if superAdmin && !*u.IsActive {
				return ErrProtectedUser
			}
			if err := tx.Model(&member.User).Update("is_active", *u.IsActive).Error; err != nil {
				return err
			}
		}
		if u.RoleIDs != nil {
			roles, err := companyRoles(tx, companyID, *u.RoleIDs)
			if err != nil {
				return err
			}
			keeps := false
			for i := range roles {
				keeps = keeps || roles[i].IsSuperAdmin()
			}
			if superAdmin && !keeps {
				return ErrProtectedUser
			}
			if err := tx.Where("user_id = ?", userID).Delete(&models.UserRole{}).Error; err != nil {
				return err
			}
			ids := make([]string, len(roles))
			for i := range roles {
				ids[i] = roles[i].ID
			}
			if err := assignRoles(tx, userID, ids...); err != nil {
				return err
			}
		}
		member, err = findMember(tx, companyID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.access.Invalidate(userID)
	s.log.Info("member updated", zap.String("user_id", userID), zap.String("company_id", companyID))
	return member, nil
}

func findMember(db *gorm.DB, companyID, userID string) (*Member, error) {
	var user models.User
	err := db.Where("id = ? AND company_id = ?", userID, companyID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	roles, err := rolesOf(db, user.ID)
	if err != nil {
		return nil, err
	}
	return &Member{User: user, Roles: roles}, nil
}

// companyRoles loads ids, rejecting duplicates and roles of other companies.
func companyRoles(db *gorm.DB, companyID string, ids []string) ([]models.Role, error) {
	seen := make(map[string]bool, len(ids))
	uniq := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			uniq = append(uniq, id)
		}
	}
	if len(uniq) == 0 {
		return nil, nil
	}
	var roles []models.Role
	if err := db.Where("company_id = ? AND id IN ?", companyID, uniq).Find(&roles).Error; err != nil {
		return nil, err
	}
	if len(roles) != len(uniq) {
		return nil, invalid(validation.Violations{"role_ids": "One or more roles were not found in your company."})
	}
	return roles, nil
}
