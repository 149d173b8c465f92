package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"os"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/algoviz-app/algoviz_api/shared"
)

type EmailService struct {
	context.DefaultService

	smtpHost     string
	smtpPort     string
	smtpUsername string
	smtpPassword string
	fromEmail    string
	fromName     string
	appURL       string

	templates map[string]*template.Template
}

const EMAIL_SVC = "email_svc"

func (svc EmailService) Id() string {
	return EMAIL_SVC
}

func (svc *EmailService) Configure(ctx *context.Context) error {
	svc.smtpHost = os.Getenv("SMTP_HOST")
	svc.smtpPort = os.Getenv("SMTP_PORT")
	svc.smtpUsername = os.Getenv("SMTP_USERNAME")
	svc.smtpPassword = os.Getenv("SMTP_PASSWORD")
	svc.fromEmail = os.Getenv("FROM_EMAIL")
	svc.fromName = os.Getenv("FROM_NAME")
	svc.appURL = os.Getenv("APP_URL")

	if svc.smtpPort == "" {
		svc.smtpPort = "587"
	}
	if svc.fromName == "" {
		svc.fromName = "AlgoViz"
	}
	if svc.appURL == "" {
		svc.appURL = "http://localhost:3000"
	}

	svc.templates = make(map[string]*template.Template)

	return svc.DefaultService.Configure(ctx)
}

func (svc *EmailService) Start() error {
	err := svc.loadTemplates()
	if err != nil {
		log.WithError(err).Error("Failed to load email templates")
		// Don't fail startup, just log the error
	}

	return nil
}

const receiptEmailHTML = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Payment Receipt - {{.AppName}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #4F46E5; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background-color: #f9f9f9; }
        .details { background-color: white; padding: 15px; border-radius: 5px; margin: 15px 0; }
        .button { display: inline-block; padding: 12px 24px; background-color: #4F46E5; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
        .footer { padding: 20px; text-align: center; color: #666; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Thank you for your purchase!</h1>
        </div>
        <div class="content">
            <h2>Hi {{.Name}},</h2>
            <p>Your payment has been received and your premium access is now active.</p>

            <div class="details">
                <strong>Receipt:</strong><br>
                <strong>Plan:</strong> {{.PlanName}}<br>
                <strong>Amount:</strong> {{.Amount}}<br>
                <strong>Date:</strong> {{.Date}}
            </div>

            <a href="{{.AppURL}}" class="button">Start Learning</a>
            <p>If you have any questions about your purchase, just reply to this email.</p>
        </div>
        <div class="footer">
            <p>&copy; 2026 {{.AppName}}. All rights reserved.</p>
        </div>
    </div>
</body>
</html>
`

type ReceiptEmailData struct {
	AppName  string
	Name     string
	PlanName string
	Amount   string
	Date     string
	AppURL   string
}

func (svc *EmailService) loadTemplates() error {
	var err error

	svc.templates["receipt"], err = template.New("receipt").Parse(receiptEmailHTML)
	if err != nil {
		return fmt.Errorf("failed to parse receipt email template: %v", err)
	}

	return nil
}

// SendReceiptEmail confirms a lifetime purchase. Amount is in the smallest
// currency unit, the way the gateway reports it.
func (svc *EmailService) SendReceiptEmail(email, name, planID string, amount int64, currency string) error {
	if svc.smtpHost == "" {
		log.Warn("SMTP not configured, skipping receipt email")
		return nil
	}
	if email == "" {
		return fmt.Errorf("no recipient email")
	}

	planName := "Premium Yearly"
	if planID == shared.PlanLifetime {
		planName = "Premium Lifetime"
	}
	if name == "" {
		name = "there"
	}

	data := ReceiptEmailData{
		AppName:  "AlgoViz",
		Name:     name,
		PlanName: planName,
		Amount:   fmt.Sprintf("%.2f %s", float64(amount)/100, strings.ToUpper(currency)),
		Date:     time.Now().Format("January 2, 2006"),
		AppURL:   svc.appURL,
	}

	subject := "Your AlgoViz Receipt"
	return svc.sendTemplateEmail(email, subject, "receipt", data)
}

func (svc *EmailService) sendTemplateEmail(to, subject, templateName string, data interface{}) error {
	tmpl, exists := svc.templates[templateName]
	if !exists {
		return fmt.Errorf("template %s not found", templateName)
	}

	var body bytes.Buffer
	err := tmpl.Execute(&body, data)
	if err != nil {
		return fmt.Errorf("failed to execute template: %v", err)
	}

	return svc.sendEmail(to, subject, body.String())
}

func (svc *EmailService) sendEmail(to, subject, body string) error {
	if svc.smtpHost == "" {
		return fmt.Errorf("SMTP not configured")
	}

	auth := smtp.PlainAuth("", svc.smtpUsername, svc.smtpPassword, svc.smtpHost)

	msg := []byte(fmt.Sprintf(
		"From: %s <%s>\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		svc.fromName, svc.fromEmail, to, subject, body))

	err := smtp.SendMail(
		svc.smtpHost+":"+svc.smtpPort,
		auth,
		svc.fromEmail,
		[]string{to},
		msg,
	)

	if err != nil {
		log.WithError(err).WithFields(log.Fields{"to": to, "subject": subject}).Error("Failed to send email")
		return fmt.Errorf("failed to send email: %v", err)
	}

	log.WithFields(log.Fields{"to": to, "subject": subject}).Info("Email sent successfully")
	return nil
}
