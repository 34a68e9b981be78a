package notifier

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/carbon-marketplace/internal/domain"
	"github.com/feral-file/carbon-marketplace/internal/logger"
)

// Message is an outbound email-style notification
type Message struct {
	ID        string                  `json:"id"`
	Kind      domain.NotificationKind `json:"kind"`
	Recipient string                  `json:"recipient"`
	Subject   string                  `json:"subject"`
	Body      string                  `json:"body"`
	// ReplyTo is set for contact form messages
	ReplyTo   string    `json:"reply_to,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier delivers notifications to account holders and operators
//
//go:generate mockgen -source=notifier.go -destination=../mocks/notifier.go -package=mocks -mock_names=Notifier=MockNotifier
type Notifier interface {
	// Send hands msg to the delivery channel. An error means the message was not accepted.
	Send(ctx context.Context, msg Message) error
}

// VerificationEmail builds the email verification code message
func VerificationEmail(recipient, code string, ttl time.Duration) Message {
	return Message{
		Kind:      domain.NotificationEmailVerification,
		Recipient: recipient,
		Subject:   "Email Verification - Carbon Credit Marketplace",
		Body: fmt.Sprintf("Thank you for registering with Carbon Credit Marketplace!\n\n"+
			"Your email verification code is: %s\n\n"+
			"This code will expire in %d minutes.\n"+
			"If you didn't request this verification, please ignore this email.",
			code, int(ttl.Minutes())),
	}
}

// TwoFactorEmail builds the login verification code message
func TwoFactorEmail(recipient, code string, ttl time.Duration) Message {
	return Message{
		Kind:      domain.NotificationTwoFactor,
		Recipient: recipient,
		Subject:   "Your Login Verification Code",
		Body: fmt.Sprintf("Someone is trying to login to your account. Use the code below to complete the login:\n\n"+
			"%s\n\n"+
			"This code will expire in %d minutes.\n"+
			"If this wasn't you, please secure your account immediately.",
			code, int(ttl.Minutes())),
	}
}

// ContactEmail builds the message forwarded to operators from the contact form
func ContactEmail(recipient, name, email, message string) Message {
	return Message{
		Kind:      domain.NotificationContact,
		Recipient: recipient,
		Subject:   "Contact Form: " + name,
		Body:      fmt.Sprintf("Name: %s\nEmail: %s\n\nMessage:\n%s", name, email, message),
		ReplyTo:   email,
	}
}

// logNotifier writes notifications to the log; used for local development
type logNotifier struct{}

// NewLogNotifier returns a Notifier that logs messages instead of delivering them
func NewLogNotifier() Notifier {
	return &logNotifier{}
}

func (n *logNotifier) Send(ctx context.Context, msg Message) error {
	logger.InfoCtx(ctx, "Notification",
		zap.String("kind", string(msg.Kind)),
		zap.String("recipient", logger.MaskEmail(msg.Recipient)),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body))
	return nil
}
