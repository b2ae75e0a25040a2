package testing

import (
	"sync"

	"github.com/rabbitmq/amqp091-go"
	"github.com/veedubyou/vocal-extractor-be/src/shared/lib/rabbitmq"
)

var _ rabbitmq.Publisher = &RecordingPublisher{}

// RecordingPublisher captures published messages for assertion instead
// of sending them to a broker. Safe for concurrent publishes since job
// events are published off the request goroutine.
type RecordingPublisher struct {
	mutex    sync.Mutex
	messages []amqp091.Publishing
}

func (r *RecordingPublisher) Publish(msg amqp091.Publishing) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.messages = append(r.messages, msg)
	return nil
}

func (r *RecordingPublisher) Messages() []amqp091.Publishing {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	messages := make([]amqp091.Publishing, len(r.messages))
	copy(messages, r.messages)
	return messages
}
