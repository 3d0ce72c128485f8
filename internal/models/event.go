package models

import "encoding/json"

// Event is the display metadata for a performance. Read-only from the
// scanning service's perspective; tickets reference it through their
// sort key.
type Event struct {
	EventID string
	Meta    map[string]string
}

// Fields flattens the event into a JSON-ready map.
func (e *Event) Fields() map[string]interface{} {
	fields := make(map[string]interface{}, len(e.Meta)+1)
	for k, v := range e.Meta {
		fields[k] = metaValue(v)
	}
	fields["event_id"] = e.EventID
	return fields
}

func (e *Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Fields())
}
