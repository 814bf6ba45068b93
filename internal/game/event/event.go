package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// SystemGuildID marks events that belong to no guild.
const SystemGuildID int64 = 0

// Event is one entry of the expedition log.
type Event struct {
	Timestamp   time.Time
	GuildID     int64
	GuildName   string
	Type        Type
	Description string
	Priority    Priority
	Tick        int
	Payload     Payload // may be nil
}

type wireEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	GuildID     int64     `json:"guild_id"`
	GuildName   string    `json:"guild_name"`
	Type        Type      `json:"event_type"`
	Description string    `json:"description"`
	Priority    Priority  `json:"priority"`
	Tick        int       `json:"tick_number"`
	Details     Payload   `json:"details,omitempty"`
}

// MarshalJSON renders the event with its payload under "details".
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireEvent{
		Timestamp:   e.Timestamp,
		GuildID:     e.GuildID,
		GuildName:   e.GuildName,
		Type:        e.Type,
		Description: e.Description,
		Priority:    e.Priority,
		Tick:        e.Tick,
		Details:     e.Payload,
	})
}

// DetailsJSON renders only the payload, or "{}" when there is none.
func (e Event) DetailsJSON() ([]byte, error) {
	if e.Payload == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s details: %w", e.Type, err)
	}
	return b, nil
}

// String renders the live feed line "[15:04:05] Guild: description".
func (e Event) String() string {
	name := e.GuildName
	if e.GuildID == SystemGuildID && name == "" {
		name = "SYSTEM"
	}
	return fmt.Sprintf("[%s] %s: %s", e.Timestamp.Format(time.TimeOnly), name, e.Description)
}
