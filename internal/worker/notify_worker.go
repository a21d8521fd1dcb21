package worker

// notify_worker.go
// Processes buyer notification jobs from QueueNotify: mails the invoice
// number to the buyer after a successful settlement. Failures are logged and
// the job is parked in the DLQ — they are never surfaced to the seller.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lashkaryadi/kuber-be/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// NotifyWorker sends invoice notifications via SMTP.
type NotifyWorker struct {
	mailer *infra.Mailer
}

func NewNotifyWorker(mailer *infra.Mailer) *NotifyWorker {
	return &NotifyWorker{mailer: mailer}
}

// Process sends the notification email for one settlement.
func (w *NotifyWorker) Process(ctx context.Context, rdb *redis.Client, raw json.RawMessage) {
	var payload NotifyPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("notify_worker: invalid payload")
		return
	}
	if payload.Buyer == "" {
		log.Warn().Msg("notify_worker: empty buyer — skipping")
		return
	}

	subject := fmt.Sprintf("Invoice %s", payload.InvoiceNumber)
	body := fmt.Sprintf(
		"Thank you for your purchase.\n\nInvoice number: %s\nAmount due: %s %s\n",
		payload.InvoiceNumber, payload.Currency, payload.Amount,
	)

	if err := w.mailer.Send(payload.Buyer, subject, body); err != nil {
		log.Error().Err(err).Str("buyer", payload.Buyer).Msg("notify_worker: failed to send email")
		SendToDLQ(ctx, rdb, QueueNotify, "notify", raw, err.Error(), 1)
		return
	}
	log.Info().Str("buyer", payload.Buyer).Str("invoice", payload.InvoiceNumber).Msg("notify_worker: notification sent")
}
