package model

import "time"

// Category groups notifications by the kind of activity that produced them.
type Category string

const (
	CategoryApplication Category = "application"
	CategoryMessage     Category = "message"
	CategoryInterview   Category = "interview"
	CategoryOffer       Category = "offer"
	CategorySystem      Category = "system"
	CategoryReminder    Category = "reminder"
)

// AllCategories returns the closed category set in display order.
func AllCategories() []Category {
	return []Category{
		CategoryApplication,
		CategoryMessage,
		CategoryInterview,
		CategoryOffer,
		CategorySystem,
		CategoryReminder,
	}
}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	switch c {
	case CategoryApplication, CategoryMessage, CategoryInterview,
		CategoryOffer, CategorySystem, CategoryReminder:
		return true
	}
	return false
}

// Label returns the capitalised display name.
func (c Category) Label() string {
	switch c {
	case CategoryApplication:
		return "Applications"
	case CategoryMessage:
		return "Messages"
	case CategoryInterview:
		return "Interviews"
	case CategoryOffer:
		return "Offers"
	case CategorySystem:
		return "System"
	case CategoryReminder:
		return "Reminders"
	default:
		return string(c)
	}
}

// Priority is advisory and never changes delivery order.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Notification is a single feed entry shown to one user.
type Notification struct {
	// ID is unique within a feed. The sender assigns it.
	ID string `json:"id"`

	// Category is one of AllCategories.
	Category Category `json:"category"`

	// Priority is advisory only.
	Priority Priority `json:"priority"`

	Title string `json:"title"`
	Body  string `json:"body"`

	// IsRead is the only mutable field once delivered.
	IsRead bool `json:"isRead"`

	// CreatedAt is assigned by the sender and never changes.
	CreatedAt time.Time `json:"createdAt"`

	// ActionTarget is an opaque route the UI navigates to on activation.
	// Empty means no navigation.
	ActionTarget string `json:"actionTarget,omitempty"`

	// Owner is the user this notification belongs to.
	Owner string `json:"owner"`
}

// HasAction reports whether activating n should navigate somewhere.
func (n Notification) HasAction() bool {
	return n.ActionTarget != ""
}
