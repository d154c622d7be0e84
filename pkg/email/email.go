package email

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/resendlabs/resend-go"
)

// Attachment is a composed image ready to ride along with a delivery email.
type Attachment struct {
	Filename    string
	Content     []byte
	ContentType string
}

// EmailService sends guest-facing mail through Resend. When no API key is
// configured it falls back to writing rendered emails and attachments into a
// local outbox directory so nothing is dropped silently.
type EmailService struct {
	client       *resend.Client
	from         string
	fromName     string
	templatesDir string
	outboxDir    string
	logger       *log.Logger
}

type Options struct {
	ResendAPIKey string
	FromAddress  string
	FromName     string
	TemplatesDir string
	OutboxDir    string
}

func NewEmailService(opts Options) *EmailService {
	var client *resend.Client
	if opts.ResendAPIKey != "" {
		client = resend.NewClient(opts.ResendAPIKey)
	}

	logger := log.New(os.Stdout, "EMAIL: ", log.LstdFlags)
	if logFile, err := os.OpenFile("logs/email.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666); err == nil {
		logger = log.New(io.MultiWriter(os.Stdout, logFile), "EMAIL: ", log.LstdFlags)
	}

	svc := &EmailService{
		client:       client,
		from:         opts.FromAddress,
		fromName:     opts.FromName,
		templatesDir: opts.TemplatesDir,
		outboxDir:    opts.OutboxDir,
		logger:       logger,
	}

	if client == nil {
		svc.logger.Printf("RESEND_API_KEY not set, emails will be written to outbox dir %s", opts.OutboxDir)
	}

	return svc
}

// SendDeliveryEmail mails the composed photos as inline attachments.
func (s *EmailService) SendDeliveryEmail(to, eventName, businessName string, attachments []Attachment) error {
	s.logger.Printf("Sending delivery email to: %s (%d attachments)", to, len(attachments))

	html, err := s.parseTemplate("delivery.html", map[string]interface{}{
		"EventName":    eventName,
		"BusinessName": businessName,
		"PhotoCount":   len(attachments),
		"Year":         time.Now().Year(),
	})
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Your photos from %s", eventName)
	return s.send(to, subject, html, attachments)
}

// SendDownloadLinkEmail mails a tokenized download button instead of inline
// attachments; used for bundles too large to attach.
func (s *EmailService) SendDownloadLinkEmail(to, eventName, businessName, downloadURL string, expiresAt time.Time) error {
	s.logger.Printf("Sending download link email to: %s", to)

	html, err := s.parseTemplate("download-link.html", map[string]interface{}{
		"EventName":    eventName,
		"BusinessName": businessName,
		"DownloadURL":  downloadURL,
		"ExpiresAt":    expiresAt.Format("January 2, 2006 15:04 MST"),
		"Year":         time.Now().Year(),
	})
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Your photos from %s are ready", eventName)
	return s.send(to, subject, html, nil)
}

// SendSelectionInviteEmail mails the guest their single-use selection link,
// with a QR code for picking favorites on another device.
func (s *EmailService) SendSelectionInviteEmail(to, eventName, selectionURL string, qrPNG []byte) error {
	s.logger.Printf("Sending selection invite email to: %s", to)

	html, err := s.parseTemplate("selection-invite.html", map[string]interface{}{
		"EventName":    eventName,
		"SelectionURL": selectionURL,
		"Year":         time.Now().Year(),
	})
	if err != nil {
		return err
	}

	var attachments []Attachment
	if len(qrPNG) > 0 {
		attachments = append(attachments, Attachment{
			Filename:    "selection-qr.png",
			Content:     qrPNG,
			ContentType: "image/png",
		})
	}

	subject := fmt.Sprintf("Pick your favorites from %s", eventName)
	return s.send(to, subject, html, attachments)
}

// SendUploadReceivedEmail notifies a guest that their booth photos landed.
func (s *EmailService) SendUploadReceivedEmail(to, eventName string, count int) error {
	s.logger.Printf("Sending upload notification to: %s", to)

	html, err := s.parseTemplate("upload-received.html", map[string]interface{}{
		"EventName":  eventName,
		"PhotoCount": count,
		"Year":       time.Now().Year(),
	})
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Your photos from %s were received", eventName)
	return s.send(to, subject, html, nil)
}

func (s *EmailService) send(to, subject, html string, attachments []Attachment) error {
	if s.client == nil {
		return s.writeOutbox(to, subject, html, attachments)
	}

	params := &resend.SendEmailRequest{
		From:    s.fromName + " <" + s.from + ">",
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}
	for _, a := range attachments {
		params.Attachments = append(params.Attachments, resend.Attachment{
			Filename: a.Filename,
			Content:  base64.StdEncoding.EncodeToString(a.Content),
		})
	}

	resp, err := s.client.Emails.Send(params)
	if err != nil {
		s.logger.Printf("Failed to send email to %s: %v", to, err)
		return err
	}

	s.logger.Printf("Successfully sent email to %s (ID: %s)", to, resp.Id)
	return nil
}

// writeOutbox persists the rendered email where an operator can see it.
func (s *EmailService) writeOutbox(to, subject, html string, attachments []Attachment) error {
	dir := filepath.Join(s.outboxDir, fmt.Sprintf("%d-%s", time.Now().UnixNano(), to))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create outbox dir: %w", err)
	}

	body := fmt.Sprintf("To: %s\nSubject: %s\n\n%s", to, subject, html)
	if err := os.WriteFile(filepath.Join(dir, "email.html"), []byte(body), 0644); err != nil {
		return fmt.Errorf("failed to write outbox email: %w", err)
	}

	for _, a := range attachments {
		if err := os.WriteFile(filepath.Join(dir, a.Filename), a.Content, 0644); err != nil {
			return fmt.Errorf("failed to write outbox attachment %s: %w", a.Filename, err)
		}
	}

	s.logger.Printf("No mail transport configured; wrote email for %s to %s", to, dir)
	return nil
}

func (s *EmailService) parseTemplate(templateName string, data interface{}) (string, error) {
	templatePath := filepath.Join(s.templatesDir, templateName)

	tmpl, err := template.ParseFiles(templatePath)
	if err != nil {
		s.logger.Printf("Error parsing template %s: %v", templateName, err)
		return "", err
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		s.logger.Printf("Error executing template %s: %v", templateName, err)
		return "", err
	}

	return body.String(), nil
}
