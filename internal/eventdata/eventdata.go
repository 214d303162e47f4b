// Package eventdata buffers realtime events raised while handling a request.
// Handlers flush the buffer to the socket hub only after the work succeeded.
package eventdata

import (
	"context"
)

type key struct{}

var eventDataKey key

type Event struct {
	Channel string      `json:"channel"`
	Event   string      `json:"event"`
	Data    interface{} `json:"data"`
}

type EventData struct {
	Events []Event
}

func WithEventData(ctx context.Context) context.Context {
	data := &EventData{
		Events: make([]Event, 0),
	}
	return context.WithValue(ctx, eventDataKey, data)
}

func GetEventData(ctx context.Context) *EventData {
	val := ctx.Value(eventDataKey)
	ed, ok := val.(*EventData)
	if !ok {
		return nil
	}
	return ed
}

func (d *EventData) Append(ev Event) {
	d.Events = append(d.Events, ev)
}

// Drain returns the buffered events and empties the buffer.
func (d *EventData) Drain() []Event {
	out := d.Events
	d.Events = nil
	return out
}
