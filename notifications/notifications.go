package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/agnosto/dm-archiver/config"
	"github.com/agnosto/dm-archiver/logger"
	"github.com/agnosto/dm-archiver/service"
	"github.com/gen2brain/beeep"
)

const (
	colorSuccess = 3066993  // Green
	colorFailure = 15158332 // Red
)

type NotificationService struct {
	config *config.Config
	client *http.Client
	notify func(title, message, icon string) error
}

func NewNotificationService(cfg *config.Config) *NotificationService {
	return &NotificationService{
		config: cfg,
		client: &http.Client{Timeout: 15 * time.Second},
		notify: func(title, message, icon string) error { return beeep.Notify(title, message, icon) },
	}
}

// NotifyPass reports a finished pass. With notify_on = "changes" only passes
// that wrote rows or failed are reported.
func (ns *NotificationService) NotifyPass(report service.PassReport) {
	if !ns.config.Notifications.Enabled {
		return
	}
	if ns.config.Notifications.NotifyOn != "always" && !report.Changed() && report.Err == nil {
		return
	}

	title, message := summarize(report)

	if ns.config.Notifications.SystemNotify {
		ns.sendSystemNotification(message, title)
	}

	if ns.config.Notifications.DiscordWebhook != "" {
		if err := ns.sendDiscordNotification(title, message, report); err != nil {
			logger.Logger.Warn().Err(err).Msg("failed to send discord notification")
		}
	}
}

func summarize(report service.PassReport) (title, message string) {
	title = "DM Archiver"
	message = fmt.Sprintf("%d new posts, %d deleted posts recorded, %d already archived (%d messages)",
		report.Reconciled, report.Tombstoned, report.Duplicate, report.Received)
	if report.Failed > 0 {
		message += fmt.Sprintf(", %d failed", report.Failed)
	}
	if report.Err != nil {
		title = "DM Archiver: pass failed"
		message += "\n" + report.Err.Error()
	}
	return title, message
}

// sendSystemNotification sends a desktop notification
func (ns *NotificationService) sendSystemNotification(message, title string) {
	if err := ns.notify(title, message, ""); err != nil {
		logger.Logger.Warn().Err(err).Msg("failed to send system notification")
	}
}

type discordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
	Timestamp   string `json:"timestamp"`
	Footer      struct {
		Text string `json:"text"`
	} `json:"footer"`
}

type discordWebhookPayload struct {
	Content string         `json:"content"`
	Embeds  []discordEmbed `json:"embeds"`
}

// sendDiscordNotification posts the summary as an embed to the webhook
func (ns *NotificationService) sendDiscordNotification(title, message string, report service.PassReport) error {
	var content string
	if id := ns.config.Notifications.DiscordMentionID; id != "" {
		if roleID, found := strings.CutPrefix(id, "role:"); found {
			content = fmt.Sprintf("<@&%s>", roleID)
		} else {
			content = fmt.Sprintf("<@%s>", id)
		}
	}

	embed := discordEmbed{
		Title:       title,
		Description: message,
		Color:       colorSuccess,
		Timestamp:   report.StartedAt.Format(time.RFC3339),
	}
	if report.Err != nil {
		embed.Color = colorFailure
	}
	embed.Footer.Text = fmt.Sprintf("Run %s, took %s", report.RunID, report.Duration.Round(time.Millisecond))

	payload, err := json.Marshal(discordWebhookPayload{Content: content, Embeds: []discordEmbed{embed}})
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}

	resp, err := ns.client.Post(ns.config.Notifications.DiscordWebhook, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("discord webhook returned status: %d", resp.StatusCode)
	}
	return nil
}
