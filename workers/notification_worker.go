package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"crypto-invest-platform/models"

	"gorm.io/gorm"
)

const maxDeliveryAttempts = 5

// NotificationClient drains the notification outbox to the external
// email collaborator. Delivery is strictly fire-and-forget from the
// money paths' point of view: they only ever insert outbox rows.
type NotificationClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	DB         *gorm.DB
}

func NewNotificationClient(db *gorm.DB) *NotificationClient {
	baseURL := os.Getenv("EMAIL_SERVICE_URL")
	if baseURL == "" {
		log.Fatal("EMAIL_SERVICE_URL environment variable is required")
	}
	token := os.Getenv("EMAIL_SERVICE_TOKEN")
	if token == "" {
		log.Fatal("EMAIL_SERVICE_TOKEN environment variable is required for notification delivery")
	}

	return &NotificationClient{
		BaseURL: baseURL,
		Token:   token,
		DB:      db,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// PollNotifications drains the outbox on an interval until ctx is done.
func PollNotifications(ctx context.Context, client *NotificationClient, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("[NOTIFY] outbox worker started (every %s)", interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("[NOTIFY] outbox worker stopping")
			return
		case <-ticker.C:
			if err := client.SendPending(ctx); err != nil {
				log.Printf("[NOTIFY] drain failed: %v", err)
			}
		}
	}
}

// SendPending delivers unsent notifications, oldest first. A failed
// delivery only bumps the attempt counter; rows that exhaust their
// attempts are left for operator inspection.
func (c *NotificationClient) SendPending(ctx context.Context) error {
	var pending []models.Notification
	err := c.DB.
		Where("sent = ? AND attempts < ?", false, maxDeliveryAttempts).
		Order("created_at ASC").
		Limit(50).
		Find(&pending).Error
	if err != nil {
		return fmt.Errorf("failed to fetch pending notifications: %w", err)
	}

	for i := range pending {
		n := &pending[i]
		if err := c.deliver(ctx, n); err != nil {
			log.Printf("[NOTIFY] delivery failed for %s (attempt %d): %v", n.ID, n.Attempts+1, err)
			c.DB.Model(n).Update("attempts", gorm.Expr("attempts + 1"))
			continue
		}
		now := time.Now()
		c.DB.Model(n).Updates(map[string]interface{}{
			"sent":     true,
			"sent_at":  now,
			"attempts": gorm.Expr("attempts + 1"),
		})
	}
	return nil
}

func (c *NotificationClient) deliver(ctx context.Context, n *models.Notification) error {
	payload, err := json.Marshal(map[string]string{
		"user_id": n.UserID,
		"subject": n.Subject,
		"body":    n.Body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST",
		fmt.Sprintf("%s/api/v1/emails", c.BaseURL), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Service-Token", c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call email service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("email service returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
