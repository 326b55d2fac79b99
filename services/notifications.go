package services

import (
	"fmt"
	"log"
	"os"

	"github.com/DAHUB-GUIOT/natur-78-sub003/models"
	"github.com/DAHUB-GUIOT/natur-78-sub003/storage"
)

// NotificationService delivers platform notifications over email. Failures
// are logged and reported, never retried.
type NotificationService struct {
	mail *MailClient
}

func NewNotificationService() *NotificationService {
	return &NotificationService{mail: NewMailClient()}
}

// recipientEmail loads a user's address if they allow email notifications.
func (ns *NotificationService) recipientEmail(userID uint) (string, error) {
	var user models.User
	if err := storage.DB.First(&user, userID).Error; err != nil {
		return "", fmt.Errorf("user not found: %v", err)
	}

	if user.AllowsEmails != nil && !*user.AllowsEmails {
		return "", fmt.Errorf("user %d has email notifications disabled", userID)
	}

	return user.Email, nil
}

// SendMessageNotification tells the receiver they have a new message.
func (ns *NotificationService) SendMessageNotification(receiverID uint, senderName, preview string) error {
	to, err := ns.recipientEmail(receiverID)
	if err != nil {
		log.Printf("skipping message notification for user %d: %v", receiverID, err)
		return err
	}

	subject := "Nuevo mensaje en Festival NATUR"
	// Truncate on runes so accented content is never split mid-sequence
	if runes := []rune(preview); len(runes) > 120 {
		preview = string(runes[:120]) + "…"
	}
	html := fmt.Sprintf(`<p><strong>%s</strong> te ha enviado un mensaje:</p><blockquote>%s</blockquote>
	<p>Responde desde tu bandeja de mensajes en Festival NATUR.</p>`, senderName, preview)

	sent, sendErr := ns.mail.Send(to, subject, html)
	if sendErr != nil {
		log.Printf("failed to send message notification to user %d: %v", receiverID, sendErr)
		return sendErr
	}
	if !sent {
		log.Printf("message notification to user %d not sent (mail disabled)", receiverID)
	}
	return nil
}

// SendCompanyStatusNotification tells a company owner about an approval decision.
func (ns *NotificationService) SendCompanyStatusNotification(company *models.Company, status string) error {
	to, err := ns.recipientEmail(company.OwnerID)
	if err != nil {
		log.Printf("skipping company status notification for user %d: %v", company.OwnerID, err)
		return err
	}

	var subject, html string
	switch status {
	case "approved":
		subject = "Tu empresa ha sido aprobada"
		html = fmt.Sprintf(`<p>¡Felicitaciones! <strong>%s</strong> ya es visible en el directorio y el mapa de Festival NATUR.</p>`, company.Name)
	case "rejected":
		subject = "Tu empresa no fue aprobada"
		html = fmt.Sprintf(`<p>La solicitud de <strong>%s</strong> fue rechazada. Revisa las notas del equipo y vuelve a enviarla.</p><p>%s</p>`, company.Name, company.ReviewNotes)
	default:
		subject = "Actualización de tu empresa"
		html = fmt.Sprintf(`<p>El estado de <strong>%s</strong> cambió a: %s</p>`, company.Name, status)
	}

	_, sendErr := ns.mail.Send(to, subject, html)
	if sendErr != nil {
		log.Printf("failed to send company status notification to user %d: %v", company.OwnerID, sendErr)
	}
	return sendErr
}

// SendListingStatusNotification tells a company owner about a marketplace decision.
func (ns *NotificationService) SendListingStatusNotification(listing *models.Listing, ownerID uint, status string) error {
	to, err := ns.recipientEmail(ownerID)
	if err != nil {
		log.Printf("skipping listing status notification for user %d: %v", ownerID, err)
		return err
	}

	var subject, html string
	if status == "approved" {
		subject = "Tu publicación fue aprobada"
		html = fmt.Sprintf(`<p><strong>%s</strong> ya está publicada en el marketplace de Festival NATUR.</p>`, listing.Title)
	} else {
		subject = "Actualización de tu publicación"
		html = fmt.Sprintf(`<p>El estado de <strong>%s</strong> cambió a: %s</p><p>%s</p>`, listing.Title, status, listing.ReviewNotes)
	}

	_, sendErr := ns.mail.Send(to, subject, html)
	if sendErr != nil {
		log.Printf("failed to send listing status notification to user %d: %v", ownerID, sendErr)
	}
	return sendErr
}

// SendAdminNewCompanyNotification alerts the admin inbox that a company
// submitted its profile for review.
func (ns *NotificationService) SendAdminNewCompanyNotification(company *models.Company) error {
	adminEmail := os.Getenv("ADMIN_NOTIFY_EMAIL")
	if adminEmail == "" {
		return nil
	}

	subject := "Nueva empresa pendiente de revisión"
	html := fmt.Sprintf(`<p><strong>%s</strong> (%s, %s) envió su perfil para aprobación.</p>`,
		company.Name, company.Category, company.City)

	_, sendErr := ns.mail.Send(adminEmail, subject, html)
	if sendErr != nil {
		log.Printf("failed to send admin notification for company %d: %v", company.ID, sendErr)
	}
	return sendErr
}
