package ports

import "context"

// JobConsumer drains background jobs from the broker. DeliveryWorker blocks
// until ctx is done or the delivery channel closes.
type JobConsumer interface {
	Connect(dsn string) error
	Init() error
	DeliveryWorker(ctx context.Context)
}
