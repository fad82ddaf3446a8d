package controller

import (
	"log"
	"os"
	"time"

	"daze_backend/internal/model"
	"daze_backend/pkg/database"
	"daze_backend/pkg/email"
	"daze_backend/pkg/push"
	"daze_backend/pkg/utils/jwt"
	"daze_backend/pkg/utils/storage"
	"daze_backend/pkg/utils/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ReceiveLeadInput struct {
	FirstName      string `json:"firstName" validate:"required"`
	LastName       string `json:"lastName" validate:"required"`
	Email          string `json:"email"`
	Phone          string `json:"phone" validate:"required"`
	Address        string `json:"address"`
	Description    string `json:"description"`
	InstallerEmail string `json:"installerEmail" validate:"required,email"`
	ZohoLeadID     string `json:"zohoLeadId"`
}

type UpdateLeadStatusInput struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

type LeadNoteInput struct {
	NoteText string `json:"note_text" validate:"required"`
}

// leadSortColumns maps the sort query param to an ORDER BY clause.
// Anything outside the map falls back to newest-first.
var leadSortColumns = map[string]string{
	"newest": "leads.created_at desc",
	"oldest": "leads.created_at asc",
	"status": "leads.status asc, leads.created_at desc",
	"name":   "leads.last_name asc, leads.first_name asc",
}

func leadSortOrder(sort string) string {
	if clause, ok := leadSortColumns[sort]; ok {
		return clause
	}
	return "leads.created_at desc"
}

// GetMyLeads leads assigned to the calling installer, newest first.
func GetMyLeads(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	var leads []model.Lead
	query := database.GetDB().
		Joins("JOIN lead_assignments ON lead_assignments.lead_id = leads.id").
		Where("lead_assignments.installer_id = ?", claims.InstallerID).
		Preload("Assignments", "installer_id = ?", claims.InstallerID).
		Preload("Serials")

	if status := c.Query("status"); status != "" {
		query = query.Where("leads.status = ?", status)
	}

	if viewed := c.Query("viewed"); viewed != "" {
		query = query.Where("lead_assignments.is_viewed = ?", viewed == "true")
	}

	query = query.Order(leadSortOrder(c.Query("sort")))

	if err := query.Find(&leads).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch leads",
		})
	}

	return c.JSON(leads)
}

// GetAllLeads admin view across every installer.
func GetAllLeads(c *fiber.Ctx) error {
	var leads []model.Lead
	query := database.GetDB().
		Preload("Assignments.Installer").
		Preload("Serials")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Order("created_at desc").Find(&leads).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch leads",
		})
	}

	return c.JSON(leads)
}

// GetLead detail view with full history, notes and serials.
func GetLead(c *fiber.Ctx) error {
	leadID := c.Params("id")

	var lead model.Lead
	err := database.GetDB().
		Preload("Assignments.Installer").
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("lead_status_history.changed_at asc")
		}).
		Preload("Notes", func(db *gorm.DB) *gorm.DB {
			return db.Order("lead_notes.created_at asc")
		}).
		Preload("Notes.Installer").
		Preload("Serials.Product").
		First(&lead, leadID).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Lead not found",
		})
	}

	return c.JSON(lead)
}

// UpdateLeadStatus writes the status change and its history row in one
// transaction so the audit trail cannot drift from the current state.
func UpdateLeadStatus(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)
	leadID := c.Params("id")

	var lead model.Lead
	if err := database.GetDB().First(&lead, leadID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Lead not found",
		})
	}

	input := new(UpdateLeadStatusInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	newStatus := model.LeadStatus(input.Status)
	if !newStatus.IsValid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid status value",
			"valid_statuses": []model.LeadStatus{
				model.LeadStatusNew,
				model.LeadStatusInProgress,
				model.LeadStatusWonClosed,
				model.LeadStatusLostClosed,
			},
		})
	}

	if newStatus == lead.Status {
		return c.JSON(fiber.Map{
			"message": "Lead already in requested status",
			"lead":    lead,
		})
	}

	// Closing as won requires at least one registered serial.
	if newStatus == model.LeadStatusWonClosed {
		count, err := lead.SerialCount(database.GetDB())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not verify registered serials",
			})
		}
		if count == 0 {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "At least one wallbox serial must be registered before closing the lead as won",
			})
		}
	}

	oldStatus := string(lead.Status)
	installerID := claims.InstallerID

	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&lead).Update("status", newStatus).Error; err != nil {
			return err
		}

		history := model.LeadStatusHistory{
			LeadID:    lead.ID,
			OldStatus: &oldStatus,
			NewStatus: string(newStatus),
			Notes:     input.Notes,
		}
		if installerID != 0 {
			history.InstallerID = &installerID
		}
		return tx.Create(&history).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update lead status",
		})
	}

	if newStatus.IsClosed() {
		go sendClosureNotification(lead.ID, newStatus)
	}

	database.GetDB().Preload("Serials").First(&lead, lead.ID)

	return c.JSON(fiber.Map{
		"message": "Lead status updated successfully",
		"lead":    lead,
	})
}

// MarkLeadViewed stamps the caller's assignment.
func MarkLeadViewed(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)
	leadID := c.Params("id")

	var assignment model.LeadAssignment
	if err := database.GetDB().
		Where("lead_id = ? AND installer_id = ?", leadID, claims.InstallerID).
		First(&assignment).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Assignment not found",
		})
	}

	if assignment.IsViewed {
		return c.SendStatus(fiber.StatusOK)
	}

	now := time.Now()
	if err := database.GetDB().Model(&assignment).Updates(map[string]interface{}{
		"is_viewed": true,
		"viewed_at": &now,
	}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not mark lead as viewed",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

// ConfirmLeadContact sets confirmed_by_installer and, as a side effect,
// forces a lead still in New to InProgress. Status write and history
// row share one transaction; the notification is best-effort.
func ConfirmLeadContact(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)
	leadID := c.Params("id")

	var assignment model.LeadAssignment
	if err := database.GetDB().Preload("Lead").
		Where("lead_id = ? AND installer_id = ?", leadID, claims.InstallerID).
		First(&assignment).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Assignment not found",
		})
	}

	if assignment.ConfirmedByInstaller {
		return c.JSON(fiber.Map{
			"message": "Contact already confirmed",
		})
	}

	now := time.Now()
	installerID := claims.InstallerID

	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&assignment).Updates(map[string]interface{}{
			"confirmed_by_installer": true,
			"confirmed_at":           &now,
		}).Error; err != nil {
			return err
		}

		if assignment.Lead.Status == model.LeadStatusNew {
			if err := tx.Model(&model.Lead{}).Where("id = ?", assignment.LeadID).
				Update("status", model.LeadStatusInProgress).Error; err != nil {
				return err
			}

			oldStatus := string(model.LeadStatusNew)
			history := model.LeadStatusHistory{
				LeadID:      assignment.LeadID,
				InstallerID: &installerID,
				OldStatus:   &oldStatus,
				NewStatus:   string(model.LeadStatusInProgress),
				Notes:       "Contact confirmed by installer",
			}
			if err := tx.Create(&history).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not confirm contact",
		})
	}

	go sendConfirmationNotification(assignment.LeadID, claims.InstallerID, now)

	return c.JSON(fiber.Map{
		"message":      "Contact confirmed",
		"confirmed_at": now,
	})
}

// AddLeadNote append-only; notes are never edited or deleted.
func AddLeadNote(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)
	leadID := c.Params("id")

	var lead model.Lead
	if err := database.GetDB().First(&lead, leadID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Lead not found",
		})
	}

	input := new(LeadNoteInput)
	if err := c.BodyParser(input); err != nil || input.NoteText == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Note text is required",
		})
	}

	note := model.LeadNote{
		LeadID:      lead.ID,
		InstallerID: claims.InstallerID,
		NoteText:    input.NoteText,
	}

	if err := database.GetDB().Create(&note).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create note",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(note)
}

func GetLeadNotes(c *fiber.Ctx) error {
	leadID := c.Params("id")

	var notes []model.LeadNote
	if err := database.GetDB().
		Where("lead_id = ?", leadID).
		Preload("Installer").
		Order("created_at asc").
		Find(&notes).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch notes",
		})
	}

	return c.JSON(notes)
}

// UploadLeadQuote attaches a quote PDF to a lead (admin).
func UploadLeadQuote(c *fiber.Ctx) error {
	leadID := c.Params("id")

	var lead model.Lead
	if err := database.GetDB().First(&lead, leadID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Lead not found",
		})
	}

	file, err := c.FormFile("quote")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file uploaded",
		})
	}

	if err := validation.ValidatePdf(file); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	url, err := storage.UploadQuotePdf(lead.ID, file)
	if err != nil {
		log.Printf("Could not upload quote for lead %d: %v", lead.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not upload quote",
		})
	}

	// Re-uploading replaces the previous quote; removing the old object
	// is best-effort.
	if lead.QuotePdfURL != "" {
		if err := storage.DeleteObject(lead.QuotePdfURL); err != nil {
			log.Printf("Could not delete previous quote for lead %d: %v", lead.ID, err)
		}
	}

	if err := database.GetDB().Model(&lead).Update("quote_pdf_url", url).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not save quote reference",
		})
	}

	return c.JSON(fiber.Map{
		"message":       "Quote uploaded successfully",
		"quote_pdf_url": url,
	})
}

// ReceiveLead inbound webhook from the external CRM. Creates the lead,
// its assignment (keyed by installer email) and the initial history row,
// then notifies the installer by email and push.
func ReceiveLead(c *fiber.Ctx) error {
	if token := os.Getenv("WEBHOOK_TOKEN"); token != "" {
		if c.Get("Authorization") != "Bearer "+token {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid webhook token",
			})
		}
	}

	input := new(ReceiveLeadInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	if input.FirstName == "" || input.LastName == "" || input.Phone == "" || input.InstallerEmail == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing required fields: firstName, lastName, phone, installerEmail",
		})
	}

	var installer model.Installer
	if err := database.GetDB().
		Where("email = ? AND is_active = ?", input.InstallerEmail, true).
		First(&installer).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Installer not found or not active",
		})
	}

	lead := model.Lead{
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Email:       input.Email,
		Phone:       input.Phone,
		Address:     input.Address,
		Description: input.Description,
		Status:      model.LeadStatusNew,
		ZohoLeadID:  input.ZohoLeadID,
	}

	var assignment model.LeadAssignment
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&lead).Error; err != nil {
			return err
		}

		assignment = model.LeadAssignment{
			LeadID:      lead.ID,
			InstallerID: installer.ID,
			IsViewed:    false,
		}
		if err := tx.Create(&assignment).Error; err != nil {
			return err
		}

		history := model.LeadStatusHistory{
			LeadID:      lead.ID,
			InstallerID: &installer.ID,
			NewStatus:   string(model.LeadStatusNew),
			Notes:       "Lead created from Zoho CRM",
		}
		return tx.Create(&history).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create lead",
		})
	}

	go sendNewLeadNotification(lead, installer, assignment.ID)

	return c.JSON(fiber.Map{
		"success":      true,
		"message":      "Lead created and assigned successfully",
		"lead_id":      lead.ID,
		"installer_id": installer.ID,
	})
}

// --- best-effort notification dispatch ---

func sendNewLeadNotification(lead model.Lead, installer model.Installer, assignmentID uint) {
	logEntry := model.NotificationLog{
		AssignmentID: &assignmentID,
		InstallerID:  installer.ID,
		LeadID:       lead.ID,
		EmailSentTo:  installer.Email,
		Status:       model.NotificationPending,
	}
	database.GetDB().Create(&logEntry)

	if email.GlobalEmailService != nil {
		messageID, err := email.GlobalEmailService.SendLeadNotificationEmail(installer.Email, email.LeadNotificationData{
			InstallerName: installer.FullName(),
			LeadName:      lead.FullName(),
			LeadPhone:     lead.Phone,
			LeadEmail:     lead.Email,
			LeadAddress:   lead.Address,
			Description:   lead.Description,
		})
		finishNotificationLog(&logEntry, messageID, err)
	}

	push.SendToInstaller(installer.ID, push.NewLeadPayload(lead.ID, lead.FullName(), lead.Phone))
}

func sendConfirmationNotification(leadID, installerID uint, confirmedAt time.Time) {
	var lead model.Lead
	if err := database.GetDB().First(&lead, leadID).Error; err != nil {
		return
	}
	var installer model.Installer
	if err := database.GetDB().First(&installer, installerID).Error; err != nil {
		return
	}

	logEntry := model.NotificationLog{
		InstallerID: installer.ID,
		LeadID:      lead.ID,
		EmailSentTo: installer.Email,
		Status:      model.NotificationPending,
	}
	database.GetDB().Create(&logEntry)

	if email.GlobalEmailService != nil {
		messageID, err := email.GlobalEmailService.SendLeadConfirmationEmail(installer.Email, email.LeadConfirmationData{
			InstallerName: installer.FullName(),
			LeadName:      lead.FullName(),
			ConfirmedAt:   confirmedAt,
		})
		finishNotificationLog(&logEntry, messageID, err)
	}
}

func sendClosureNotification(leadID uint, finalStatus model.LeadStatus) {
	var lead model.Lead
	if err := database.GetDB().Preload("Serials").First(&lead, leadID).Error; err != nil {
		return
	}

	var assignment model.LeadAssignment
	if err := database.GetDB().Preload("Installer").
		Where("lead_id = ?", leadID).
		Order("assigned_at desc").
		First(&assignment).Error; err != nil {
		return
	}

	serialCodes := make([]string, 0, len(lead.Serials))
	for _, s := range lead.Serials {
		serialCodes = append(serialCodes, s.SerialCode)
	}

	logEntry := model.NotificationLog{
		AssignmentID: &assignment.ID,
		InstallerID:  assignment.InstallerID,
		LeadID:       lead.ID,
		EmailSentTo:  assignment.Installer.Email,
		Status:       model.NotificationPending,
	}
	database.GetDB().Create(&logEntry)

	if email.GlobalEmailService != nil {
		messageID, err := email.GlobalEmailService.SendLeadClosureEmail(assignment.Installer.Email, email.LeadClosureData{
			InstallerName: assignment.Installer.FullName(),
			LeadName:      lead.FullName(),
			FinalStatus:   string(finalStatus),
			SerialCodes:   serialCodes,
			ClosedAt:      time.Now(),
		})
		finishNotificationLog(&logEntry, messageID, err)
	}
}

// finishNotificationLog records the delivery outcome. Failures are
// logged only; they never affect the mutation that triggered them.
func finishNotificationLog(logEntry *model.NotificationLog, messageID string, err error) {
	now := time.Now()
	updates := map[string]interface{}{}

	if err != nil {
		log.Printf("Could not send notification email to %s: %v", logEntry.EmailSentTo, err)
		updates["status"] = model.NotificationFailed
		updates["error_message"] = err.Error()
	} else {
		updates["status"] = model.NotificationSent
		updates["resend_message_id"] = messageID
		updates["sent_at"] = &now
	}

	database.GetDB().Model(logEntry).Updates(updates)
}
