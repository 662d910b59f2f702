package handlers

import (
	"fmt"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
)

// StatusDisplay содержит emoji и текст для отображения статуса
type StatusDisplay struct {
	Emoji string
	Text  string
}

// GetAlertStatusDisplay возвращает emoji и текст для статуса оповещения
func GetAlertStatusDisplay(status model.AlertStatus) StatusDisplay {
	switch status {
	case model.AlertStatusPending, model.AlertStatusSent:
		return StatusDisplay{Emoji: "🔔", Text: "Awaiting your answer"}
	case model.AlertStatusAcknowledged:
		return StatusDisplay{Emoji: "✅", Text: "Accepted"}
	case model.AlertStatusDeclined:
		return StatusDisplay{Emoji: "❌", Text: "Declined"}
	}
	return StatusDisplay{Emoji: "❓", Text: string(status)}
}

// GetVerificationDisplay возвращает emoji и текст для статуса проверки профиля
func GetVerificationDisplay(status model.VerificationStatus) StatusDisplay {
	switch status {
	case model.VerificationPending:
		return StatusDisplay{Emoji: "⏳", Text: "Waiting for verification"}
	case model.VerificationVerified:
		return StatusDisplay{Emoji: "✅", Text: "Verified"}
	case model.VerificationRejected:
		return StatusDisplay{Emoji: "🚫", Text: "Rejected"}
	}
	return StatusDisplay{Emoji: "❓", Text: string(status)}
}

// FormatAlert форматирует оповещение для отображения
func FormatAlert(alert *model.RareAlert) string {
	display := GetAlertStatusDisplay(alert.Status)

	return fmt.Sprintf(
		"%s Alert from %s\n\n"+
			"📊 Status: %s",
		display.Emoji,
		alert.CreatedAt.Format("02.01.2006 15:04"),
		display.Text,
	)
}

// FormatRareProfile форматирует профиль редкого донора
func FormatRareProfile(profile *model.RareDonorProfile) string {
	display := GetVerificationDisplay(profile.VerificationStatus)

	active := "no"
	if profile.IsActive {
		active = "yes"
	}

	return fmt.Sprintf(
		"🩸 Rare donor profile\n\n"+
			"Blood type: %s\n"+
			"Privacy: %s\n"+
			"%s %s\n"+
			"Receives alerts: %s",
		profile.BloodType,
		profile.PrivacyLevel,
		display.Emoji,
		display.Text,
		active,
	)
}
