// Package events provides the activity event bus for the Reelist backend.
// Modules publish catalogue activity (new movies, ratings, follows) for
// auditing and the activity feed; nothing on the write path depends on
// delivery.
package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

// Catalogue-wide event types
const (
	// User events
	EventUserCreated  EventType = "user.created"
	EventUserLoggedIn EventType = "user.logged_in"
	EventUserFollowed EventType = "user.followed"

	// Movie events
	EventMovieCreated EventType = "movie.created"
	EventMovieUpdated EventType = "movie.updated"
	EventMovieDeleted EventType = "movie.deleted"

	// Relationship events
	EventRatingCreated  EventType = "rating.created"
	EventSeenMarked     EventType = "seen.marked"
	EventWatchlistAdded EventType = "watchlist.added"
	EventReportOpened   EventType = "report.opened"
	EventReportClosed   EventType = "report.closed"

	// List events
	EventListCreated EventType = "list.created"

	// System events
	EventSystemStarted EventType = "system.started"
	EventSystemStopped EventType = "system.stopped"
)

// EventPriority represents the priority level of an event
type EventPriority int

const (
	PriorityLow      EventPriority = 1
	PriorityNormal   EventPriority = 5
	PriorityHigh     EventPriority = 10
	PriorityCritical EventPriority = 20
)

// Event represents a catalogue activity event
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Source    string                 `json:"source"` // system, user:id
	Target    string                 `json:"target"` // movie:id, user:id, list:id
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data"`
	Priority  EventPriority          `json:"priority"`
	Timestamp time.Time              `json:"timestamp"`
}

// EventHandler represents a function that handles events
type EventHandler func(event Event) error

// EventFilter restricts a subscription or a stored-event query
type EventFilter struct {
	Types   []EventType `json:"types,omitempty"`
	Sources []string    `json:"sources,omitempty"`
}

// Subscription represents an event subscription
type Subscription struct {
	ID         string       `json:"id"`
	Filter     EventFilter  `json:"filter"`
	Handler    EventHandler `json:"-"`
	Subscriber string       `json:"subscriber"`
	Created    time.Time    `json:"created"`
}

// EventStats summarizes bus activity
type EventStats struct {
	TotalEvents         int64            `json:"total_events"`
	EventsByType        map[string]int64 `json:"events_by_type"`
	EventsBySource      map[string]int64 `json:"events_by_source"`
	ActiveSubscriptions int              `json:"active_subscriptions"`
}

// NewEvent creates a new event with default values
func NewEvent(eventType EventType, source, title, message string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    source,
		Title:     title,
		Message:   message,
		Data:      make(map[string]interface{}),
		Priority:  PriorityNormal,
		Timestamp: time.Now(),
	}
}

// NewSystemEvent creates an event sourced by the system itself
func NewSystemEvent(eventType EventType, title, message string) Event {
	return NewEvent(eventType, "system", title, message)
}

// NewUserEvent creates an event sourced by a user action
func NewUserEvent(eventType EventType, userID string, title, message string) Event {
	return NewEvent(eventType, "user:"+userID, title, message)
}

// MatchesFilter checks if an event matches the given filter
func MatchesFilter(event Event, filter EventFilter) bool {
	if len(filter.Types) > 0 {
		found := false
		for _, t := range filter.Types {
			if event.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(filter.Sources) > 0 {
		found := false
		for _, s := range filter.Sources {
			if event.Source == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
