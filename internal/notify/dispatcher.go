package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// Dispatcher subscribes to the notification channel and hands each event
// to the mailer, one message per recipient. Failures are logged and the
// loop keeps going: notification delivery never escalates anywhere.
type Dispatcher struct {
	client  *redis.Client
	channel string
	mailer  Mailer
}

func NewDispatcher(client *redis.Client, channel string, mailer Mailer) *Dispatcher {
	return &Dispatcher{client: client, channel: channel, mailer: mailer}
}

// Run blocks consuming events until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	sub := d.client.Subscribe(ctx, d.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			d.handle(ctx, msg.Payload)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, payload string) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		log.Printf("[notify] drop malformed event: %v", err)
		return
	}

	subject, body := render(ev)
	for _, to := range ev.Recipients {
		if to.Email == "" {
			continue
		}
		if err := d.mailer.Send(ctx, to, subject, body); err != nil {
			log.Printf("[notify] send to=%s event=%s: %v", to.Email, ev.ID, err)
		}
	}
}

func render(ev Event) (subject, body string) {
	switch ev.Kind {
	case KindProjectAssigned:
		subject = fmt.Sprintf("QA Manager - Asignación de proyecto: %s", ev.ProjectTitle)
		body = fmt.Sprintf("Has sido asignado/a como analista QA para el proyecto %s.", ev.ProjectTitle)
	case KindDefectReported:
		subject = fmt.Sprintf("QA Manager - Nuevo defecto en proyecto: %s", ev.ProjectTitle)
		body = fmt.Sprintf("%s ha reportado un defecto en el proyecto %s: %s", ev.Actor, ev.ProjectTitle, ev.Detail)
	case KindCommentAdded:
		subject = fmt.Sprintf("QA Manager - Nuevo comentario en proyecto: %s", ev.ProjectTitle)
		body = fmt.Sprintf("%s ha añadido un nuevo comentario en el proyecto %s.", ev.Actor, ev.ProjectTitle)
	default:
		subject = "QA Manager - Notificación"
		body = ev.Detail
	}
	return subject, body
}
