package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/forest-guardian/hydroprep/internal/properties"
	log "github.com/sirupsen/logrus"
)

type DiscordMessage struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

type DiscordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

var client = &http.Client{Timeout: 10 * time.Second}

func SendDiscordErrorNotification(errorMessage string) error {
	return send(properties.DiscordErrorNotificationUrl(), DiscordEmbed{
		Title:       "🚨 Pipeline failure",
		Description: fmt.Sprintf("Hydrological data preparation failed.\n\n%s", errorMessage),
		Color:       16711680, // Red color
	})
}

func SendDiscordSuccessNotification(successMessage string) error {
	return send(properties.DiscordSuccessNotificationUrl(), DiscordEmbed{
		Title:       "✅ Pipeline finished",
		Description: successMessage,
		Color:       65280, // Green color
	})
}

// send posts embed to url. Without a webhook configured nothing is sent.
func send(url string, embed DiscordEmbed) error {
	if url == "" {
		log.Debug("no discord webhook configured, skipping notification")
		return nil
	}

	payload, err := json.Marshal(DiscordMessage{Embeds: []DiscordEmbed{embed}})
	if err != nil {
		return err
	}

	resp, err := client.Post(url, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to send Discord notification, status code: %d", resp.StatusCode)
	}

	return nil
}
