package service

import "railroad-api/internal/event"

func publish(events event.Publisher, t event.Type, subject string, attrs map[string]any) {
	if events == nil {
		return
	}
	events.Publish(event.New(t, subject, attrs))
}
