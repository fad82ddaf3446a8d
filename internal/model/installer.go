package model

import (
	"strings"

	"gorm.io/gorm"
)

// User Roles
type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleInstaller UserRole = "installer"
)

// Role within a company
type CompanyRole string

const (
	CompanyRoleOwner  CompanyRole = "owner"
	CompanyRoleAdmin  CompanyRole = "admin"
	CompanyRoleMember CompanyRole = "member"
)

// User login identity. Installers and admins both authenticate through
// this table; the installer profile hangs off it.
type User struct {
	gorm.Model
	Email    string   `json:"email" gorm:"uniqueIndex;not null"`
	Password string   `json:"-" gorm:"not null"`
	Role     UserRole `json:"role" gorm:"default:'installer'"`

	Installer *Installer `json:"-" gorm:"foreignKey:UserID"`
}

type Installer struct {
	gorm.Model
	UserID           uint        `json:"user_id" gorm:"uniqueIndex"`
	FirstName        string      `json:"first_name" gorm:"not null"`
	LastName         string      `json:"last_name" gorm:"not null"`
	Email            string      `json:"email" gorm:"uniqueIndex;not null"`
	Phone            string      `json:"phone"`
	Region           string      `json:"region"`
	CompanyID        *uint       `json:"company_id" gorm:"index"`
	RoleInCompany    CompanyRole `json:"role_in_company"`
	CanManageCompany bool        `json:"can_manage_company" gorm:"default:false"`
	EmployeeNumber   string      `json:"employee_number"`
	IsActive         bool        `json:"is_active" gorm:"default:true"`

	User    User                 `json:"-" gorm:"foreignKey:UserID"`
	Company *InstallationCompany `json:"company,omitempty" gorm:"foreignKey:CompanyID"`
}

func (i *Installer) FullName() string {
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}

func (i *Installer) GetPublicProfile() map[string]interface{} {
	return map[string]interface{}{
		"id":              i.ID,
		"first_name":      i.FirstName,
		"last_name":       i.LastName,
		"full_name":       i.FullName(),
		"email":           i.Email,
		"phone":           i.Phone,
		"region":          i.Region,
		"company_id":      i.CompanyID,
		"role_in_company": i.RoleInCompany,
		"is_active":       i.IsActive,
	}
}
