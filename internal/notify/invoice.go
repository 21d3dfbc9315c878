// Package notify turns settled-purchase events into customer invoice emails.
// The API process only enqueues; the actual send happens in cmd/worker so a
// slow mail server never holds up a checkout response.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/noah-isme/backend-kasir/internal/events"
	"github.com/noah-isme/backend-kasir/internal/queue"
)

const invoiceEmailTask = "invoice-email"

// InvoiceEmailTask returns the queue kind used for invoice email jobs.
func InvoiceEmailTask() string { return invoiceEmailTask }

// InvoicePayload is the task body exchanged between the enqueuer and worker.
type InvoicePayload struct {
	InvoiceNo   string        `json:"invoiceNo"`
	Email       string        `json:"email"`
	TotalAmount string        `json:"totalAmount"`
	Items       []InvoiceItem `json:"items"`
}

// InvoiceItem is a single billed line on the invoice email.
type InvoiceItem struct {
	Name      string `json:"name"`
	Qty       int    `json:"qty"`
	LineTotal string `json:"lineTotal"`
}

// InvoiceNotifier enqueues an invoice email task for every settled purchase.
// It implements events.Notifier.
type InvoiceNotifier struct {
	Queue       queue.Enqueuer
	MaxAttempts int
}

// Notify implements the events.Notifier interface.
func (n InvoiceNotifier) Notify(ctx context.Context, event events.Event) error {
	if event.Topic != events.TopicPurchaseSettled {
		return nil
	}
	var payload InvoicePayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("invoice notify: decode payload: %w", err)
	}
	if strings.TrimSpace(payload.Email) == "" || strings.TrimSpace(payload.InvoiceNo) == "" {
		return nil
	}
	maxAttempts := n.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 6
	}
	return n.Queue.Enqueue(ctx, queue.Task{
		Kind:           invoiceEmailTask,
		Payload:        event.Payload,
		IdempotencyKey: payload.InvoiceNo,
		MaxAttempts:    maxAttempts,
	})
}
