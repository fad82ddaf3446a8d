package controller

import (
	"encoding/json"
	"log"
	"strings"

	"daze_backend/internal/model"
	"daze_backend/pkg/database"
	"daze_backend/pkg/email"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type CreateCompanyInput struct {
	Company struct {
		CompanyName  string `json:"company_name" validate:"required"`
		VatNumber    string `json:"vat_number"`
		BusinessName string `json:"business_name"`
		Address      string `json:"address"`
		City         string `json:"city"`
		Province     string `json:"province"`
		ZipCode      string `json:"zip_code"`
		Phone        string `json:"phone"`
		Email        string `json:"email"`
	} `json:"company"`
	Owner struct {
		FirstName string `json:"first_name" validate:"required"`
		LastName  string `json:"last_name" validate:"required"`
		Email     string `json:"email" validate:"required,email"`
		Phone     string `json:"phone"`
		Password  string `json:"password" validate:"required,min=8"`
	} `json:"owner"`
}

type CreateInstallerInput struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone"`
	Region    string `json:"region"`
	CompanyID *uint  `json:"company_id"`
}

type OnboardingInput struct {
	Step      *int  `json:"step"`
	Completed *bool `json:"completed"`
	Skipped   *bool `json:"skipped"`
}

// generatePassword random initial password for provisioned accounts.
func generatePassword() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
}

// CreateCompany provisions a company, its owner login, the owner
// installer profile and a zero-balance rewards row. Partial failures
// are rolled back with explicit compensating deletes; the welcome email
// is best-effort.
func CreateCompany(c *fiber.Ctx) error {
	input := new(CreateCompanyInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	if input.Company.CompanyName == "" || input.Owner.FirstName == "" ||
		input.Owner.LastName == "" || input.Owner.Email == "" || input.Owner.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "company_name and owner first_name, last_name, email, password are required",
		})
	}

	db := database.GetDB()

	var existing model.User
	if err := db.Where("email = ?", input.Owner.Email).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "An account with this email already exists",
		})
	}

	company := model.InstallationCompany{
		CompanyName:  input.Company.CompanyName,
		VatNumber:    input.Company.VatNumber,
		BusinessName: input.Company.BusinessName,
		Address:      input.Company.Address,
		City:         input.Company.City,
		Province:     input.Company.Province,
		ZipCode:      input.Company.ZipCode,
		Phone:        input.Company.Phone,
		Email:        input.Company.Email,
		IsActive:     true,
	}
	if err := db.Create(&company).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create company",
		})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Owner.Password), bcrypt.DefaultCost)
	if err != nil {
		db.Unscoped().Delete(&company)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not hash password",
		})
	}

	user := model.User{
		Email:    input.Owner.Email,
		Password: string(hashed),
		Role:     model.RoleInstaller,
	}
	if err := db.Create(&user).Error; err != nil {
		db.Unscoped().Delete(&company)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create owner account",
		})
	}

	owner := model.Installer{
		UserID:           user.ID,
		FirstName:        input.Owner.FirstName,
		LastName:         input.Owner.LastName,
		Email:            input.Owner.Email,
		Phone:            input.Owner.Phone,
		CompanyID:        &company.ID,
		RoleInCompany:    model.CompanyRoleOwner,
		CanManageCompany: true,
		IsActive:         true,
	}
	if err := db.Create(&owner).Error; err != nil {
		db.Unscoped().Delete(&user)
		db.Unscoped().Delete(&company)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create owner profile",
		})
	}

	rewards := model.CompanyRewards{CompanyID: company.ID, TotalPoints: 0}
	if err := db.Create(&rewards).Error; err != nil {
		log.Printf("Could not create company rewards row for company %d: %v", company.ID, err)
	}

	if email.GlobalEmailService != nil {
		_, err := email.GlobalEmailService.SendCompanyWelcomeEmail(owner.Email, email.CompanyWelcomeData{
			FirstName:   owner.FirstName,
			LastName:    owner.LastName,
			CompanyName: company.CompanyName,
			Email:       owner.Email,
			Password:    input.Owner.Password,
		})
		if err != nil {
			log.Printf("Could not send company welcome email to %s: %v", owner.Email, err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Company created successfully",
		"company": company,
		"owner":   owner.GetPublicProfile(),
	})
}

// CreateInstaller provisions a standalone or company-attached installer
// with a generated password, emailed on success.
func CreateInstaller(c *fiber.Ctx) error {
	input := new(CreateInstallerInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	if input.FirstName == "" || input.LastName == "" || input.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "first_name, last_name and email are required",
		})
	}

	db := database.GetDB()

	var existing model.User
	if err := db.Where("email = ?", input.Email).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "An account with this email already exists",
		})
	}

	var companyName string
	if input.CompanyID != nil {
		var company model.InstallationCompany
		if err := db.First(&company, *input.CompanyID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Company not found",
			})
		}
		companyName = company.CompanyName
	}

	password := generatePassword()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not hash password",
		})
	}

	user := model.User{
		Email:    input.Email,
		Password: string(hashed),
		Role:     model.RoleInstaller,
	}
	if err := db.Create(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create user account",
		})
	}

	installer := model.Installer{
		UserID:        user.ID,
		FirstName:     input.FirstName,
		LastName:      input.LastName,
		Email:         input.Email,
		Phone:         input.Phone,
		Region:        input.Region,
		CompanyID:     input.CompanyID,
		RoleInCompany: model.CompanyRoleMember,
		IsActive:      true,
	}
	if input.CompanyID == nil {
		installer.RoleInCompany = ""
	}
	if err := db.Create(&installer).Error; err != nil {
		db.Unscoped().Delete(&user)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create installer profile",
		})
	}

	if email.GlobalEmailService != nil {
		_, err := email.GlobalEmailService.SendInstallerWelcomeEmail(installer.Email, email.InstallerWelcomeData{
			FirstName:   installer.FirstName,
			LastName:    installer.LastName,
			CompanyName: companyName,
			Email:       installer.Email,
			Password:    password,
		})
		if err != nil {
			log.Printf("Could not send installer welcome email to %s: %v", installer.Email, err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "Installer created successfully",
		"installer": installer.GetPublicProfile(),
	})
}

// ResetOwnerPassword regenerates a company owner's password and emails
// it to them.
func ResetOwnerPassword(c *fiber.Ctx) error {
	companyID := c.Params("id")

	var owner model.Installer
	if err := database.GetDB().
		Where("company_id = ? AND role_in_company = ?", companyID, model.CompanyRoleOwner).
		First(&owner).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Company owner not found",
		})
	}

	password := generatePassword()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not hash password",
		})
	}

	if err := database.GetDB().Model(&model.User{}).
		Where("id = ?", owner.UserID).
		Update("password", string(hashed)).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update password",
		})
	}

	if email.GlobalEmailService != nil {
		_, err := email.GlobalEmailService.SendPasswordResetEmail(owner.Email, email.PasswordResetData{
			FirstName:   owner.FirstName,
			NewPassword: password,
		})
		if err != nil {
			log.Printf("Could not send password reset email to %s: %v", owner.Email, err)
		}
	}

	return c.JSON(fiber.Map{
		"message": "Owner password reset, email sent",
	})
}

// ListCompanies admin overview with installer counts.
func ListCompanies(c *fiber.Ctx) error {
	var companies []model.InstallationCompany
	if err := database.GetDB().
		Preload("Installers").
		Order("company_name asc").
		Find(&companies).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch companies",
		})
	}

	return c.JSON(companies)
}

// ListInstallers admin overview; filterable by company and activity.
func ListInstallers(c *fiber.Ctx) error {
	var installers []model.Installer
	query := database.GetDB().Preload("Company")

	if companyID := c.Query("company_id"); companyID != "" {
		query = query.Where("company_id = ?", companyID)
	}
	if active := c.Query("active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}

	if err := query.Order("last_name asc").Find(&installers).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch installers",
		})
	}

	return c.JSON(installers)
}

// GetCompanyTeam team listing for company members.
func GetCompanyTeam(c *fiber.Ctx) error {
	installer := c.Locals("installer").(*model.Installer)

	var team []model.Installer
	if err := database.GetDB().
		Where("company_id = ?", installer.CompanyID).
		Order("last_name asc").
		Find(&team).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch team",
		})
	}

	return c.JSON(team)
}

// AddTeamMember company managers provision installers into their own
// company. Reuses the admin provisioning flow with a forced company id.
func AddTeamMember(c *fiber.Ctx) error {
	manager := c.Locals("installer").(*model.Installer)

	input := new(CreateInstallerInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	// Members can only be added to the manager's own company.
	input.CompanyID = manager.CompanyID

	body, _ := json.Marshal(input)
	c.Request().SetBody(body)

	return CreateInstaller(c)
}

// GetOnboarding company onboarding checklist state.
func GetOnboarding(c *fiber.Ctx) error {
	installer := c.Locals("installer").(*model.Installer)

	var company model.InstallationCompany
	if err := database.GetDB().First(&company, installer.CompanyID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Company not found",
		})
	}

	return c.JSON(fiber.Map{
		"onboarding_step":      company.OnboardingStep,
		"onboarding_completed": company.OnboardingCompleted,
		"onboarding_skipped":   company.OnboardingSkipped,
	})
}

// UpdateOnboarding advances or skips the checklist. UI state only, no
// business rules attached.
func UpdateOnboarding(c *fiber.Ctx) error {
	installer := c.Locals("installer").(*model.Installer)

	input := new(OnboardingInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	updates := map[string]interface{}{}
	if input.Step != nil {
		updates["onboarding_step"] = *input.Step
	}
	if input.Completed != nil {
		updates["onboarding_completed"] = *input.Completed
	}
	if input.Skipped != nil {
		updates["onboarding_skipped"] = *input.Skipped
	}
	if len(updates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Nothing to update",
		})
	}

	if err := database.GetDB().Model(&model.InstallationCompany{}).
		Where("id = ?", installer.CompanyID).
		Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update onboarding state",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Onboarding state updated",
	})
}
