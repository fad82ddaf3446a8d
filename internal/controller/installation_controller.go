package controller

import (
	"encoding/json"
	"errors"
	"log"
	"mime/multipart"
	"strings"
	"time"

	"daze_backend/internal/model"
	"daze_backend/pkg/database"
	"daze_backend/pkg/utils/image"
	"daze_backend/pkg/utils/jwt"
	"daze_backend/pkg/utils/serial"
	"daze_backend/pkg/utils/storage"
	"daze_backend/pkg/utils/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const MaxInstallationPhotos = 5

type RegisterInstallationInput struct {
	CustomerFirstName string   `json:"customer_first_name" validate:"required"`
	CustomerLastName  string   `json:"customer_last_name" validate:"required"`
	CustomerPhone     string   `json:"customer_phone" validate:"required"`
	CustomerEmail     string   `json:"customer_email"`
	CustomerAddress   string   `json:"customer_address"`
	InstallationDate  string   `json:"installation_date" validate:"required"`
	InstallationNotes string   `json:"installation_notes"`
	Serials           []string `json:"serials" validate:"required,min=1"`
}

type RegisterLeadSerialsInput struct {
	Serials []string `json:"serials" validate:"required,min=1"`
}

type validatedSerial struct {
	code   string
	result serial.ParseResult
}

// ValidateSerial per-field async validation for the registration form.
// Runs the structural check, the full parse and the fast-path duplicate
// lookup; the unique index remains the backstop on submit.
func ValidateSerial(c *fiber.Ctx) error {
	input := struct {
		SerialCode string `json:"serial_code"`
	}{}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	if ok, errMsg := serial.ValidateFormat(input.SerialCode); !ok {
		return c.JSON(serial.ParseResult{IsValid: false, Error: errMsg})
	}

	products, err := model.ActiveProducts(database.GetDB())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not load product catalog",
		})
	}

	result := serial.Parse(input.SerialCode, products)
	if !result.IsValid {
		return c.JSON(result)
	}

	code := strings.ToUpper(strings.TrimSpace(input.SerialCode))
	var count int64
	database.GetDB().Model(&model.WallboxSerial{}).
		Where("serial_code = ?", code).Count(&count)
	if count > 0 {
		return c.JSON(serial.ParseResult{
			IsValid: false,
			Error:   "This serial has already been registered",
		})
	}

	return c.JSON(result)
}

// RegisterInstallation self-reported flow (no parent lead). Accepts a
// JSON body, or a multipart form with a "data" JSON field plus up to
// five "photos" files. Photo uploads are best-effort; serial rows are
// written in one transaction with the installation.
func RegisterInstallation(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	input := new(RegisterInstallationInput)
	var photos []*multipart.FileHeader

	if form, err := c.MultipartForm(); err == nil && form != nil {
		data := form.Value["data"]
		if len(data) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Missing data field",
			})
		}
		if err := json.Unmarshal([]byte(data[0]), input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid input",
			})
		}
		photos = form.File["photos"]
	} else if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	// Step-1 gate: identity, phone and date are required.
	if input.CustomerFirstName == "" || input.CustomerLastName == "" ||
		input.CustomerPhone == "" || input.InstallationDate == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "customer_first_name, customer_last_name, customer_phone and installation_date are required",
		})
	}

	installationDate, err := time.Parse("2006-01-02", input.InstallationDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "installation_date must be YYYY-MM-DD",
		})
	}

	if len(photos) > MaxInstallationPhotos {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "A maximum of 5 photos is allowed",
		})
	}

	products, err := model.ActiveProducts(database.GetDB())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not load product catalog",
		})
	}

	validated, errResp := validateSerialBatch(input.Serials, products, serialRegistered)
	if errResp != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(errResp)
	}

	var installer model.Installer
	if err := database.GetDB().First(&installer, claims.InstallerID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Installer profile not found",
		})
	}

	installation := model.Installation{
		InstallerID:       installer.ID,
		SourceType:        model.SourceTypeSelfReported,
		ApprovalStatus:    model.ApprovalStatusPending,
		CustomerFirstName: input.CustomerFirstName,
		CustomerLastName:  input.CustomerLastName,
		CustomerPhone:     input.CustomerPhone,
		CustomerEmail:     input.CustomerEmail,
		CustomerAddress:   input.CustomerAddress,
		InstallationDate:  &installationDate,
		InstallationNotes: input.InstallationNotes,
	}

	if err := createInstallationWithSerials(&installation, validated, nil); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "One of the serials has already been registered",
				"code":  "duplicate_serial",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not register installation",
		})
	}

	// Photos after the insert so a storage outage cannot lose the
	// registration. Individual failures are logged and skipped.
	if len(photos) > 0 {
		uploadInstallationPhotos(&installation, installer.Email, photos)
	}

	pendingPoints := 0
	for _, v := range validated {
		pendingPoints += v.result.Product.Points
	}

	database.GetDB().Preload("Serials.Product").First(&installation, installation.ID)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":        "Installation registered, pending approval",
		"installation":   installation,
		"pending_points": pendingPoints,
	})
}

// RegisterLeadSerials lead-scoped variant. Serials inherit customer
// data from the lead and are approved immediately (lead-sourced
// installations skip the admin approval queue).
func RegisterLeadSerials(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)
	leadID := c.Params("id")

	// Serials always belong to an installer profile. Admin accounts
	// have none, so registering on behalf of one is not allowed.
	if claims.InstallerID == 0 {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "An installer profile is required to register serials",
		})
	}

	var lead model.Lead
	if err := database.GetDB().First(&lead, leadID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Lead not found",
		})
	}

	input := new(RegisterLeadSerialsInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	products, err := model.ActiveProducts(database.GetDB())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not load product catalog",
		})
	}

	validated, errResp := validateSerialBatch(input.Serials, products, serialRegistered)
	if errResp != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(errResp)
	}

	now := time.Now()
	installation := model.Installation{
		InstallerID:    claims.InstallerID,
		LeadID:         &lead.ID,
		SourceType:     model.SourceTypeFromLead,
		ApprovalStatus: model.ApprovalStatusApproved,
		ApprovedAt:     &now,
	}

	if err := createInstallationWithSerials(&installation, validated, &lead.ID); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "One of the serials has already been registered",
				"code":  "duplicate_serial",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not register serials",
		})
	}

	database.GetDB().Preload("Serials.Product").First(&installation, installation.ID)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":      "Serials registered",
		"installation": installation,
	})
}

// GetMyInstallations the caller's installations with serials, products
// and approval state.
func GetMyInstallations(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	var installations []model.Installation
	query := database.GetDB().
		Where("installer_id = ?", claims.InstallerID).
		Preload("Serials.Product").
		Preload("Lead")

	if status := c.Query("approval_status"); status != "" {
		query = query.Where("approval_status = ?", status)
	}

	if err := query.Order("created_at desc").Find(&installations).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch installations",
		})
	}

	type installationView struct {
		model.Installation
		TotalPoints int `json:"total_points"`
	}

	views := make([]installationView, 0, len(installations))
	for _, inst := range installations {
		views = append(views, installationView{Installation: inst, TotalPoints: inst.TotalPoints()})
	}

	return c.JSON(views)
}

// AddInstallationPhoto attaches one more photo, up to the limit of 5.
func AddInstallationPhoto(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)
	installationID := c.Params("id")

	var installation model.Installation
	if err := database.GetDB().First(&installation, installationID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Installation not found",
		})
	}

	if installation.InstallerID != claims.InstallerID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Not authorized to modify this installation",
		})
	}

	var existing []string
	if len(installation.PhotoURLs) > 0 {
		json.Unmarshal(installation.PhotoURLs, &existing)
	}
	if len(existing) >= MaxInstallationPhotos {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Maximum photo limit reached (5)",
		})
	}

	file, err := c.FormFile("photo")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file uploaded",
		})
	}

	if err := validation.ValidateImage(file); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var installer model.Installer
	database.GetDB().First(&installer, claims.InstallerID)

	url, err := uploadOnePhoto(installer.Email, installation.ID, file)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not upload photo",
		})
	}

	existing = append(existing, url)
	encoded, _ := json.Marshal(existing)
	if err := database.GetDB().Model(&installation).
		Update("photo_urls", datatypes.JSON(encoded)).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not save photo reference",
		})
	}

	return c.JSON(fiber.Map{
		"message":    "Photo uploaded successfully",
		"photo_url":  url,
		"photo_urls": existing,
	})
}

// validateSerialBatch runs format check, full parse and duplicate
// detection (within the batch and via the exists lookup) for every
// serial. Pure over its inputs: the caller supplies the catalog and
// the registered-serial lookup. Returns a field-level error payload on
// the first failure.
func validateSerialBatch(serials []string, products []model.Product, exists func(code string) bool) ([]validatedSerial, fiber.Map) {
	if len(serials) == 0 {
		return nil, fiber.Map{"error": "At least one serial is required"}
	}

	seen := make(map[string]bool, len(serials))
	validated := make([]validatedSerial, 0, len(serials))

	for _, raw := range serials {
		code := strings.ToUpper(strings.TrimSpace(raw))

		if ok, errMsg := serial.ValidateFormat(code); !ok {
			return nil, fiber.Map{"error": errMsg, "serial": raw}
		}

		result := serial.Parse(code, products)
		if !result.IsValid {
			return nil, fiber.Map{"error": result.Error, "serial": raw}
		}

		if seen[code] {
			return nil, fiber.Map{
				"error":  "Duplicate serial in submission",
				"serial": raw,
				"code":   "duplicate_serial",
			}
		}
		seen[code] = true

		if exists(code) {
			return nil, fiber.Map{
				"error":  "This serial has already been registered",
				"serial": raw,
				"code":   "duplicate_serial",
			}
		}

		validated = append(validated, validatedSerial{code: code, result: result})
	}

	return validated, nil
}

// serialRegistered fast-path existence check against the database; the
// unique index on serial_code is the backstop.
func serialRegistered(code string) bool {
	var count int64
	database.GetDB().Model(&model.WallboxSerial{}).
		Where("serial_code = ?", code).Count(&count)
	return count > 0
}

func createInstallationWithSerials(installation *model.Installation, validated []validatedSerial, leadID *uint) error {
	return database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(installation).Error; err != nil {
			return err
		}

		for _, v := range validated {
			row := model.WallboxSerial{
				SerialCode:       v.code,
				InstallationID:   installation.ID,
				LeadID:           leadID,
				ProductID:        v.result.Product.ID,
				InstallerID:      installation.InstallerID,
				Year:             v.result.Year,
				ProductionNumber: v.result.ProductionNumber,
				SourceType:       installation.SourceType,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func uploadOnePhoto(installerEmail string, installationID uint, file *multipart.FileHeader) (string, error) {
	buf, contentType, err := image.ProcessImage(file)
	if err != nil {
		return "", err
	}
	return storage.UploadInstallationPhoto(installerEmail, installationID, buf, file.Filename, contentType)
}

func uploadInstallationPhotos(installation *model.Installation, installerEmail string, photos []*multipart.FileHeader) {
	urls := make([]string, 0, len(photos))
	for _, photo := range photos {
		if err := validation.ValidateImage(photo); err != nil {
			log.Printf("Skipping invalid photo %s: %v", photo.Filename, err)
			continue
		}
		url, err := uploadOnePhoto(installerEmail, installation.ID, photo)
		if err != nil {
			log.Printf("Could not upload photo %s: %v", photo.Filename, err)
			continue
		}
		urls = append(urls, url)
	}

	if len(urls) == 0 {
		return
	}

	encoded, _ := json.Marshal(urls)
	if err := database.GetDB().Model(installation).
		Update("photo_urls", datatypes.JSON(encoded)).Error; err != nil {
		log.Printf("Could not save photo references for installation %d: %v", installation.ID, err)
	}
}
