package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"time"
)

type EmailService struct {
	apiKey    string
	from      string
	templates *template.Template
}

type EmailData struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Html    string `json:"html"`
}

type resendResponse struct {
	ID string `json:"id"`
}

// Template data structures
type LeadNotificationData struct {
	InstallerName string
	LeadName      string
	LeadPhone     string
	LeadEmail     string
	LeadAddress   string
	Description   string
}

type LeadConfirmationData struct {
	InstallerName string
	LeadName      string
	ConfirmedAt   time.Time
}

type LeadClosureData struct {
	InstallerName string
	LeadName      string
	FinalStatus   string
	SerialCodes   []string
	ClosedAt      time.Time
}

type CompanyWelcomeData struct {
	FirstName   string
	LastName    string
	CompanyName string
	Email       string
	Password    string
}

type InstallerWelcomeData struct {
	FirstName   string
	LastName    string
	CompanyName string
	Email       string
	Password    string
}

type PasswordResetData struct {
	FirstName   string
	NewPassword string
}

func NewEmailService(apiKey, from string) (*EmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend API key is required")
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("error loading email templates: %v", err)
	}

	return &EmailService{
		apiKey:    apiKey,
		from:      from,
		templates: templates,
	}, nil
}

// sendTemplateEmail renders a template and posts it to the Resend API.
// Returns the Resend message id for notification logging.
func (s *EmailService) sendTemplateEmail(to, subject, templateName string, data interface{}) (string, error) {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return "", fmt.Errorf("template execution error: %v", err)
	}

	emailData := EmailData{
		From:    s.from,
		To:      to,
		Subject: subject,
		Html:    body.String(),
	}

	jsonData, err := json.Marshal(emailData)
	if err != nil {
		return "", fmt.Errorf("error marshaling email data: %v", err)
	}

	req, err := http.NewRequest("POST", "https://api.resend.com/emails", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("error creating request: %v", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error sending email: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Printf("Resend API error: Status: %d, Body: %s", resp.StatusCode, string(respBody))
		return "", fmt.Errorf("resend API error: %s", string(respBody))
	}

	var parsed resendResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", nil
	}

	return parsed.ID, nil
}

// Email sending methods

func (s *EmailService) SendLeadNotificationEmail(installerEmail string, data LeadNotificationData) (string, error) {
	return s.sendTemplateEmail(installerEmail, "New Lead Assigned to You", "lead_notification.html", data)
}

func (s *EmailService) SendLeadConfirmationEmail(installerEmail string, data LeadConfirmationData) (string, error) {
	return s.sendTemplateEmail(installerEmail, "Lead Contact Confirmed", "lead_confirmation.html", data)
}

func (s *EmailService) SendLeadClosureEmail(installerEmail string, data LeadClosureData) (string, error) {
	return s.sendTemplateEmail(installerEmail, "Lead Closed", "lead_closure.html", data)
}

func (s *EmailService) SendCompanyWelcomeEmail(email string, data CompanyWelcomeData) (string, error) {
	return s.sendTemplateEmail(email, "Welcome to Daze - "+data.CompanyName, "company_welcome.html", data)
}

func (s *EmailService) SendInstallerWelcomeEmail(email string, data InstallerWelcomeData) (string, error) {
	return s.sendTemplateEmail(email, "Welcome to Daze", "installer_welcome.html", data)
}

func (s *EmailService) SendPasswordResetEmail(email string, data PasswordResetData) (string, error) {
	return s.sendTemplateEmail(email, "Your Daze Password Has Been Reset", "password_reset.html", data)
}
