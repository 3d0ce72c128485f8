package models

import (
	"encoding/json"
	"strconv"
)

// Ticket is a single admission credential. ScannedAt is nil until the
// ticket is redeemed and is never reset afterwards. Meta carries the
// provisioning attributes (seat id, start time, sort key, ...) verbatim;
// the scanning API never mutates them.
type Ticket struct {
	TicketID     string
	ScannedAt    *int64
	ScannedCount int64
	Meta         map[string]string
}

// Scanned reports whether the ticket has already been redeemed.
func (t *Ticket) Scanned() bool {
	return t.ScannedAt != nil
}

// EventID derives the related event id from the ticket's sort key,
// formatted as "<prefix>-<event_id>". Empty when the ticket carries no
// usable sort key.
func (t *Ticket) EventID() string {
	sk, ok := t.Meta["sk"]
	if !ok {
		return ""
	}
	for i := 0; i < len(sk); i++ {
		if sk[i] == '-' {
			return sk[i+1:]
		}
	}
	return ""
}

// Fields flattens the ticket into a JSON-ready map. Counters stay int64
// and numeric metadata becomes json.Number so integers survive
// serialization without drifting through float64.
func (t *Ticket) Fields() map[string]interface{} {
	fields := make(map[string]interface{}, len(t.Meta)+3)
	for k, v := range t.Meta {
		fields[k] = metaValue(v)
	}
	fields["ticket_id"] = t.TicketID
	fields["scanned_count"] = t.ScannedCount
	if t.ScannedAt != nil {
		fields["scanned_at"] = *t.ScannedAt
	} else {
		fields["scanned_at"] = nil
	}
	return fields
}

func (t *Ticket) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Fields())
}

// metaValue keeps integer-valued attributes as json.Number instead of
// strings, matching what the provisioning process wrote.
func metaValue(v string) interface{} {
	if _, err := strconv.ParseInt(v, 10, 64); err == nil {
		return json.Number(v)
	}
	return v
}
