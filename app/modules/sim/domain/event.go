package simdomain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType categorizes an event log entry.
type EventType string

const (
	EventInjured       EventType = "injured"
	EventHealed        EventType = "healed"
	EventPlayerFeat    EventType = "playerFeat"
	EventPlayoffs      EventType = "playoffs"
	EventGameSimError  EventType = "gameSimError"
	EventTragicDeath   EventType = "tragicDeath"
	EventRosterError   EventType = "rosterError"
	EventSeriesDecided EventType = "seriesDecided"
	EventExhibition    EventType = "exhibition"
	EventRatingsLoss   EventType = "ratingsLoss"
)

// Event is one entry in the league event log.
type Event struct {
	ID               uuid.UUID `json:"id"`
	Type             EventType `json:"type"`
	Text             string    `json:"text"`
	Season           int       `json:"season"`
	TIDs             []int     `json:"tids,omitempty"`
	PIDs             []int     `json:"pids,omitempty"`
	GID              *int      `json:"gid,omitempty"`
	ShowNotification bool      `json:"showNotification"`
	// Persistent notifications stay on screen until dismissed.
	Persistent bool `json:"persistent"`
	// SaveToDB is false for messages that only make sense right now.
	SaveToDB  bool      `json:"saveToDb"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewEvent stamps an event with an id and time. Events are saved by default.
func NewEvent(t EventType, season int, text string) Event {
	return Event{
		ID:        uuid.New(),
		Type:      t,
		Text:      text,
		Season:    season,
		SaveToDB:  true,
		CreatedAt: time.Now().UTC(),
	}
}

// Realtime update categories.
const (
	UpdateGameSim        = "gameSim"
	UpdatePlayerMovement = "playerMovement"
	UpdateNewPhase       = "newPhase"
	UpdateStatus         = "status"
)

// RealtimeUpdate tells observers what changed.
type RealtimeUpdate struct {
	Updates    []string          `json:"updates"`
	Status     SimState          `json:"status,omitempty"`
	LiveGameID *int              `json:"liveGameId,omitempty"`
	PlayByPlay []PlayByPlayEvent `json:"playByPlay,omitempty"`
}

// Feat thresholds for single-game player notes.
var featThresholds = []struct {
	stat  string
	min   int
	label string
}{
	{StatPssYds, 400, "passing yards"},
	{StatPssTD, 5, "passing touchdowns"},
	{StatRusYds, 200, "rushing yards"},
	{StatRecYds, 200, "receiving yards"},
	{StatDefSk, 4, "sacks"},
	{StatDefInt, 3, "interceptions"},
}

// Feats lists the notable single-game achievements in stats.
func Feats(stats StatLine) []string {
	var out []string
	for _, f := range featThresholds {
		if v := stats[f.stat]; v >= f.min {
			out = append(out, fmt.Sprintf("%d %s", v, f.label))
		}
	}
	if td := stats[StatRusTD] + stats[StatRecTD]; td >= 4 {
		out = append(out, fmt.Sprintf("%d touchdowns", td))
	}
	return out
}
