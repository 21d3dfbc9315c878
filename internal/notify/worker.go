package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/queue"
)

// EmailWorker renders and sends invoice emails consumed from the queue.
type EmailWorker struct {
	Mail   common.EmailSender
	Logger zerolog.Logger
}

// Handle processes a single invoice-email task.
func (w EmailWorker) Handle(_ context.Context, task queue.Task) error {
	var payload InvoicePayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		// malformed payloads cannot succeed on retry
		w.Logger.Error().Err(err).Msg("invoice email: drop malformed payload")
		return nil
	}
	if strings.TrimSpace(payload.Email) == "" {
		return nil
	}
	subject := fmt.Sprintf("Invoice %s", payload.InvoiceNo)
	if err := w.Mail.Send(payload.Email, subject, RenderInvoiceBody(payload)); err != nil {
		return fmt.Errorf("invoice email: send %s: %w", payload.InvoiceNo, err)
	}
	w.Logger.Info().Str("invoice_no", payload.InvoiceNo).Str("to", payload.Email).Msg("invoice email sent")
	return nil
}

// RenderInvoiceBody builds the plain-text invoice summary.
func RenderInvoiceBody(p InvoicePayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Invoice: %s\n", p.InvoiceNo)
	fmt.Fprintf(&b, "Total: %s\n", p.TotalAmount)
	b.WriteString("Items:\n")
	for _, item := range p.Items {
		fmt.Fprintf(&b, "- %s (x%d) : %s\n", item.Name, item.Qty, item.LineTotal)
	}
	return b.String()
}
