package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ActivityEvent is the persisted form of an Event
type ActivityEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	EventID   string    `gorm:"uniqueIndex;not null" json:"event_id"`
	Type      string    `gorm:"not null;index" json:"type"`
	Source    string    `gorm:"not null;index" json:"source"`
	Target    string    `gorm:"index" json:"target"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Data      string    `gorm:"type:text" json:"data"` // JSON-encoded event data
	Priority  int       `gorm:"not null" json:"priority"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName returns the table name for ActivityEvent
func (ActivityEvent) TableName() string {
	return "activity_events"
}

// ToEvent converts an ActivityEvent back to an Event
func (ae *ActivityEvent) ToEvent() (Event, error) {
	event := Event{
		ID:        ae.EventID,
		Type:      EventType(ae.Type),
		Source:    ae.Source,
		Target:    ae.Target,
		Title:     ae.Title,
		Message:   ae.Message,
		Priority:  EventPriority(ae.Priority),
		Timestamp: ae.CreatedAt,
		Data:      make(map[string]interface{}),
	}
	if ae.Data != "" {
		if err := json.Unmarshal([]byte(ae.Data), &event.Data); err != nil {
			return event, fmt.Errorf("failed to unmarshal event data: %w", err)
		}
	}
	return event, nil
}

// FromEvent fills an ActivityEvent from an Event
func (ae *ActivityEvent) FromEvent(event Event) error {
	ae.EventID = event.ID
	ae.Type = string(event.Type)
	ae.Source = event.Source
	ae.Target = event.Target
	ae.Title = event.Title
	ae.Message = event.Message
	ae.Priority = int(event.Priority)
	ae.CreatedAt = event.Timestamp

	if len(event.Data) > 0 {
		data, err := json.Marshal(event.Data)
		if err != nil {
			return fmt.Errorf("failed to marshal event data: %w", err)
		}
		ae.Data = string(data)
	}
	return nil
}

// DatabaseEventStorage persists events in the main database
type DatabaseEventStorage struct {
	db *gorm.DB
}

// NewDatabaseEventStorage creates database-backed event storage
func NewDatabaseEventStorage(db *gorm.DB) *DatabaseEventStorage {
	return &DatabaseEventStorage{db: db}
}

// Migrate creates the activity event table
func (s *DatabaseEventStorage) Migrate() error {
	return s.db.AutoMigrate(&ActivityEvent{})
}

// Store persists an event
func (s *DatabaseEventStorage) Store(ctx context.Context, event Event) error {
	var record ActivityEvent
	if err := record.FromEvent(event); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to store event: %w", err)
	}
	return nil
}

// Get retrieves events matching the filter, newest first
func (s *DatabaseEventStorage) Get(ctx context.Context, filter EventFilter, limit, offset int) ([]Event, int64, error) {
	query := s.db.WithContext(ctx).Model(&ActivityEvent{})

	if len(filter.Types) > 0 {
		types := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			types[i] = string(t)
		}
		query = query.Where("type IN ?", types)
	}
	if len(filter.Sources) > 0 {
		query = query.Where("source IN ?", filter.Sources)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	var records []ActivityEvent
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to query events: %w", err)
	}

	out := make([]Event, 0, len(records))
	for i := range records {
		event, err := records[i].ToEvent()
		if err != nil {
			return nil, 0, err
		}
		out = append(out, event)
	}
	return out, total, nil
}

// Count returns the total number of stored events
func (s *DatabaseEventStorage) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&ActivityEvent{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}
