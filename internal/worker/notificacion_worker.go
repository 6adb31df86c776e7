package worker

// notificacion_worker.go
// Processes issuance notification jobs from QueueNotificaciones:
// mails a short document summary to the address the request supplied.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type NotificacionWorker struct {
	mailer *infra.Mailer
}

func NewNotificacionWorker(mailer *infra.Mailer) *NotificacionWorker {
	return &NotificacionWorker{mailer: mailer}
}

// Process sends the summary email; undeliverable jobs land in the DLQ.
func (w *NotificacionWorker) Process(ctx context.Context, rdb *redis.Client, raw json.RawMessage) {
	var payload NotificacionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("notificacion_worker: invalid payload")
		return
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("notificacion_worker: empty to_email — skipping")
		return
	}

	subject := fmt.Sprintf("Documento %s emitido", payload.Numero)
	body := fmt.Sprintf(
		"Se emitió el documento %s (%s) por un total de %s %s.",
		payload.Numero, payload.Tipo, payload.Moneda, payload.Total,
	)
	if err := w.mailer.SendResumen(payload.ToEmail, subject, body); err != nil {
		log.Error().Err(err).Str("to", payload.ToEmail).Str("numero", payload.Numero).
			Msg("notificacion_worker: failed to send email")
		SendToDLQ(ctx, rdb, QueueNotificaciones, "notificacion", raw, err.Error(), 1)
		return
	}
	log.Info().Str("to", payload.ToEmail).Str("numero", payload.Numero).
		Msg("notificacion_worker: resumen enviado")
}
