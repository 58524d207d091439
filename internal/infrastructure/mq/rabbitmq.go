package mq

import (
	"context"
	"encoding/json"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"gallery-api/config"
)

// "Rely on metrics, not guesses."
const bufferSize = 128

// Routing keys published on the gallery exchange.
const (
	ActionUserCreated        = "user.created"
	ActionUserDeleted        = "user.deleted"
	ActionImageCreated       = "image.created"
	ActionImageDeleted       = "image.deleted"
	ActionBgRemovalRequested = "image.bg_removal.requested"
)

type (
	InputCh  = chan Event
	RabbitMQ struct {
		cfg   config.MQ
		log   *zap.Logger
		conn  *amqp091.Connection
		pubCh *amqp091.Channel
		in    InputCh
	}
	Event struct {
		Id      uuid.UUID `json:"event_id"`
		TS      time.Time `json:"time_stamp"`
		Action  string    `json:"event_action"`
		UserID  string    `json:"user_id"`
		Payload any       `json:"payload"`
	}

	UserPayload struct {
		UUID     uuid.UUID `json:"uuid"`
		Username string    `json:"username"`
		Email    string    `json:"email"`
	}
	ImagePayload struct {
		UUID  uuid.UUID `json:"uuid"`
		Title string    `json:"title"`
		URLs  []string  `json:"urls"`
	}
	// BgRemovalJob asks a worker to produce a background-removed variant of
	// SourceURL and append it to the image.
	BgRemovalJob struct {
		ImageUUID uuid.UUID `json:"image_uuid"`
		UserUUID  uuid.UUID `json:"user_uuid"`
		SourceURL string    `json:"source_url"`
		Title     string    `json:"title"`
	}
)

func NewEvent(action string, userID uuid.UUID, payload any) Event {
	return Event{
		Id:      uuid.New(),
		TS:      time.Now().UTC(),
		Action:  action,
		UserID:  userID.String(),
		Payload: payload,
	}
}

func DecodeBgRemovalJob(body []byte) (BgRemovalJob, error) {
	var e struct {
		Payload BgRemovalJob `json:"payload"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return BgRemovalJob{}, err
	}
	return e.Payload, nil
}

func New(cfg config.MQ, logger *zap.Logger) *RabbitMQ {
	return &RabbitMQ{
		cfg: cfg,
		log: logger,
		in:  make(chan Event, bufferSize),
	}
}

func (r *RabbitMQ) Connect(ctx context.Context, dsn string) error {
	dialer := &net.Dialer{Timeout: 10 * time.Second}

	amqpCfg := amqp091.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Properties: amqp091.Table{
			"connection_name": "galleryapi",
		},
		Dial: func(network, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, network, addr)
		},
		TLSClientConfig: nil,
	}

	var err error
	r.conn, err = amqp091.DialConfig(dsn, amqpCfg)
	if err != nil {
		return err
	}
	r.pubCh, err = r.conn.Channel()
	if err != nil {
		_ = r.conn.Close()
		return err
	}

	r.log.Info("rabbitmq connected successfully")

	return err
}

func (r *RabbitMQ) Init() error {
	var err error
	if err = r.pubCh.ExchangeDeclare(
		r.cfg.Exchange,
		r.cfg.ExchangeType,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		_ = r.pubCh.Close()
		return err
	}
	q, err := r.pubCh.QueueDeclare(
		r.cfg.QueueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	return r.pubCh.QueueBind(q.Name, ActionBgRemovalRequested, r.cfg.Exchange, false, nil)
}

// Publish hands e to the publisher worker without blocking the request. It
// reports false when the buffer is full.
func (r *RabbitMQ) Publish(e Event) bool {
	select {
	case r.in <- e:
		return true
	default:
		r.log.Warn("mq buffer is full, event dropped",
			zap.String("action", e.Action),
			zap.Stringer("event_id", e.Id),
		)
		return false
	}
}

func (r *RabbitMQ) PublisherWorker(ctx context.Context) {
	r.log.Info("starting publisher worker ")

	defer func() {
		r.log.Info("publisher worker gracefully stopped")
	}()

	for {
		select {
		case e := <-r.in:
			if err := r.publish(ctx, e); err != nil {
				// alert
				r.log.Error("mq publish error", zap.Error(err), zap.String("action", e.Action))
			}
		case <-ctx.Done():
			_ = r.pubCh.Close()
			return
		}
	}
}

func (r *RabbitMQ) publish(ctx context.Context, e Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		// alert
		return err
	}

	pub := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    e.Id.String(),
		Timestamp:    e.TS,
		Type:         e.Action,
		Body:         b,
	}

	return r.pubCh.PublishWithContext(
		ctx,
		r.cfg.Exchange,
		e.Action,
		false,
		false,
		pub,
	)
}

func (r *RabbitMQ) GetConn() *amqp091.Connection { return r.conn }
