package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Permission modules, also used as the gate's resource types.
const (
	ModuleDocument = "document"
	ModuleCustomer = "customer"
	ModuleProduct  = "product"
	ModuleRole     = "role"
	ModuleUser     = "user"
)

// PermissionModules lists the modules a role may be granted.
var PermissionModules = []string{ModuleCustomer, ModuleDocument, ModuleProduct, ModuleRole, ModuleUser}

// PermissionActions lists the actions a role may be granted. "manage"
// covers all of them.
var PermissionActions = []string{"list", "view", "create", "update", "delete", "invite", "manage"}

// PermissionWildcard stands for every module or every action.
const PermissionWildcard = "*"

// System roles created with every company.
const (
	RoleSuperAdmin = "Super Admin"
	RoleMember     = "Member"
)

// PermissionMap grants actions per module, e.g. {"document": ["manage"]}.
type PermissionMap map[string][]string

// Grants flattens m into sorted "module:action" strings.
func (m PermissionMap) Grants() []string {
	var out []string
	for module, actions := range m {
		for _, a := range actions {
			out = append(out, module+":"+a)
		}
	}
	sort.Strings(out)
	return out
}

// Role is a named set of permissions inside one company.
type Role struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CompanyID   string        `gorm:"size:36;not null;uniqueIndex:idx_role_company_name" json:"company_id"`
	Name        string        `gorm:"column:role_name;size:100;not null;uniqueIndex:idx_role_company_name" json:"role_name"`
	Description string        `gorm:"size:500" json:"description,omitempty"`
	Permissions PermissionMap `gorm:"serializer:json;type:text;not null" json:"permissions"`
	IsSystem    bool          `gorm:"column:is_system_role;not null;default:false" json:"is_system_role"`
	CreatedBy   string        `gorm:"size:36" json:"created_by,omitempty"`
}

func (r *Role) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func (r *Role) GetCompanyID() string { return r.CompanyID }

// IsSuperAdmin reports whether r is the company's protected all-access role.
func (r *Role) IsSuperAdmin() bool { return r.IsSystem && r.Name == RoleSuperAdmin }

// UserRole assigns a role to a user.
type UserRole struct {
	UserID    string `gorm:"primaryKey;size:36"`
	RoleID    string `gorm:"primaryKey;size:36;index"`
	CreatedAt time.Time
}

// DefaultRoles are created together with a company. The founder gets the
// first one; invited users without a role get the second.
func DefaultRoles(companyID, createdBy string) []Role {
	return []Role{
		{
			CompanyID:   companyID,
			Name:        RoleSuperAdmin,
			Description: "Full access to every module.",
			Permissions: PermissionMap{PermissionWildcard: {PermissionWildcard}},
			IsSystem:    true,
			CreatedBy:   createdBy,
		},
		{
			CompanyID:   companyID,
			Name:        RoleMember,
			Description: "Works with documents, customers and products.",
			Permissions: PermissionMap{
				ModuleDocument: {"manage"},
				ModuleCustomer: {"manage"},
				ModuleProduct:  {"manage"},
			},
			IsSystem:  true,
			CreatedBy: createdBy,
		},
	}
}
