// Package notify sends the optional submitter receipt and operations alert.
package notify

import (
	"context"
	"fmt"
	"strings"

	"invoice-intake/internal/common/aws"
	"invoice-intake/internal/common/config"
	"invoice-intake/internal/common/errors"
	"invoice-intake/internal/common/logger"
	"invoice-intake/internal/sinks"
)

type emailSender interface {
	SendPlainText(ctx context.Context, from, to, subject, body string) (string, error)
}

type topicPublisher interface {
	PublishToTopic(ctx context.Context, topicARN, subject, message string) (string, error)
}

// Notifier delivers through SES and SNS. A nil sender or publisher disables that channel.
type Notifier struct {
	email     emailSender
	from      string
	publisher topicPublisher
	topicARN  string
	logger    logger.Logger
}

// New builds the enabled channels from configuration.
func New(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) (*Notifier, error) {
	var (
		email     emailSender
		publisher topicPublisher
	)
	if cfg.SES.Enabled {
		c, err := aws.NewSESClient(ctx, cfg.AWS.Region)
		if err != nil {
			return nil, err
		}
		email = c
	}
	if cfg.SNS.Enabled {
		c, err := aws.NewSNSClient(ctx, cfg.AWS.Region)
		if err != nil {
			return nil, err
		}
		publisher = c
	}
	return NewWithClients(email, cfg.SES.FromEmail, publisher, cfg.SNS.TopicARN, log), nil
}

func NewWithClients(email emailSender, from string, publisher topicPublisher, topicARN string, log logger.Logger) *Notifier {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Notifier{email: email, from: from, publisher: publisher, topicARN: topicARN, logger: log}
}

func (n *Notifier) SendReceipt(ctx context.Context, r sinks.Receipt) error {
	if n.email == nil || r.To == "" {
		return nil
	}

	subject := "Invoice received: " + r.InvoiceTitle
	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\n\n", r.Name)
	fmt.Fprintf(&body, "We have received your invoice submission \"%s\".\n", r.InvoiceTitle)
	if r.InvoiceNumber != "" {
		fmt.Fprintf(&body, "Invoice number: %s\n", r.InvoiceNumber)
	}
	fmt.Fprintf(&body, "Reference: %s\n\nThank you.\n", r.RecordID)

	id, err := n.email.SendPlainText(ctx, n.from, r.To, subject, body.String())
	if err != nil {
		return errors.NewNotificationSendFailedError("receipt", err)
	}
	n.logger.Debug("Receipt sent", map[string]interface{}{"messageId": id, "recordId": r.RecordID})
	return nil
}

func (n *Notifier) SendAlert(ctx context.Context, a sinks.Alert) error {
	if n.publisher == nil {
		return nil
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "Record creation failed for %s (%s).\n", a.Submitter, a.Title)
	fmt.Fprintf(&msg, "Reason: %s\n", a.Reason)
	if len(a.Orphaned) > 0 {
		msg.WriteString("Files uploaded before the failure:\n")
		for _, u := range a.Orphaned {
			msg.WriteString("  " + u + "\n")
		}
	}

	id, err := n.publisher.PublishToTopic(ctx, n.topicARN, "Invoice submission failed", msg.String())
	if err != nil {
		return errors.NewNotificationSendFailedError("alert", err)
	}
	n.logger.Debug("Alert published", map[string]interface{}{"messageId": id})
	return nil
}
