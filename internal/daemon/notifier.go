package daemon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/smtp"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/fenilsonani/storage-intel/internal/config"
)

// Notifier delivers best-effort daemon notifications. Failures are logged
// and never affect the scan loop.
type Notifier struct {
	config *config.NotificationConfig
	logger *Logger
}

// NewNotifier creates a new notifier
func NewNotifier(cfg *config.NotificationConfig, logger *Logger) *Notifier {
	return &Notifier{config: cfg, logger: logger}
}

// NotificationMessage represents a notification
type NotificationMessage struct {
	Title     string
	Message   string
	Timestamp time.Time
	Type      string // "startup", "shutdown", "scan_success", "scan_failure"
	Data      map[string]interface{}
}

// SendStartupNotification sends a startup notification
func (n *Notifier) SendStartupNotification() {
	if !n.config.Enabled {
		return
	}
	n.sendAll(&NotificationMessage{
		Title:     "Storage Intel Daemon Started",
		Message:   "The storage scan daemon has started successfully",
		Timestamp: time.Now(),
		Type:      "startup",
	})
}

// SendShutdownNotification sends a shutdown notification
func (n *Notifier) SendShutdownNotification() {
	if !n.config.Enabled {
		return
	}
	n.sendAll(&NotificationMessage{
		Title:     "Storage Intel Daemon Stopped",
		Message:   "The storage scan daemon has stopped",
		Timestamp: time.Now(),
		Type:      "shutdown",
	})
}

// SendScanNotification reports one completed scan cycle.
func (n *Notifier) SendScanNotification(totalBytes int64, duration time.Duration, scanErr error) {
	if !n.config.Enabled {
		return
	}
	if scanErr != nil && !n.config.OnFailure {
		return
	}
	if scanErr == nil && !n.config.OnSuccess {
		return
	}

	msg := &NotificationMessage{
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"reclaimable_bytes": totalBytes,
			"duration":          duration.Round(time.Second).String(),
		},
	}
	if scanErr != nil {
		msg.Type = "scan_failure"
		msg.Title = "Storage Scan Failed"
		msg.Message = fmt.Sprintf("Scan cycle failed: %v", scanErr)
	} else {
		msg.Type = "scan_success"
		msg.Title = "Storage Scan Completed"
		msg.Message = fmt.Sprintf("Found %s of reclaimable storage in %s",
			humanize.IBytes(uint64(totalBytes)), duration.Round(time.Second))
	}
	n.sendAll(msg)
}

// sendAll sends notification through all configured channels
func (n *Notifier) sendAll(msg *NotificationMessage) {
	if n.config.Email.SMTPHost != "" {
		if err := n.sendEmail(msg); err != nil {
			n.logger.Error("Failed to send email notification: %v", err)
		} else {
			n.logger.Info("Email notification sent: %s", msg.Title)
		}
	}

	if n.config.Webhook.URL != "" {
		if err := n.sendWebhook(msg); err != nil {
			n.logger.Error("Failed to send webhook notification: %v", err)
		} else {
			n.logger.Info("Webhook notification sent: %s", msg.Title)
		}
	}
}

// sendEmail sends an email notification
func (n *Notifier) sendEmail(msg *NotificationMessage) error {
	cfg := &n.config.Email
	if len(cfg.To) == 0 {
		return fmt.Errorf("no email recipients configured")
	}

	body := fmt.Sprintf("%s\r\n\r\nTime: %s\r\n", msg.Message, msg.Timestamp.Format("2006-01-02 15:04:05"))
	for key, value := range msg.Data {
		body += fmt.Sprintf("%s: %v\r\n", key, value)
	}

	emailMsg := fmt.Sprintf("To: %s\r\nSubject: %s\r\n\r\n%s", cfg.To[0], msg.Title, body)
	auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.SMTPHost)
	addr := fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort)
	return smtp.SendMail(addr, auth, cfg.From, cfg.To, []byte(emailMsg))
}

// sendWebhook sends a webhook notification
func (n *Notifier) sendWebhook(msg *NotificationMessage) error {
	cfg := &n.config.Webhook

	payload := map[string]interface{}{
		"title":     msg.Title,
		"message":   msg.Message,
		"timestamp": msg.Timestamp.Format(time.RFC3339),
		"type":      msg.Type,
		"data":      msg.Data,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	method := cfg.Method
	if method == "" {
		method = "POST"
	}
	req, err := http.NewRequest(method, cfg.URL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range cfg.Headers {
		req.Header.Set(key, value)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
