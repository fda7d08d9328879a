package pipeline

import (
	"encoding/json"

	"github.com/signlabs/signvoice/internal/bus"
	"github.com/signlabs/signvoice/internal/protocol"
)

type busPublisher struct {
	bus *bus.Client
}

// NewBusPublisher broadcasts confirmed events on the bus.
func NewBusPublisher(client *bus.Client) EventPublisher {
	return &busPublisher{bus: client}
}

func (p *busPublisher) PublishConfirmed(evt protocol.ConfirmedEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.bus.Conn().Publish(protocol.SubjectEventConfirmed, data)
}
