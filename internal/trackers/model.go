package trackers

import "time"

// Tracker is a field user who records progress events. Identity only;
// credentials live in the external auth service.
type Tracker struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateTrackerRequest registers a tracker.
type CreateTrackerRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Phone string `json:"phone,omitempty" validate:"omitempty,max=40"`
}

// UpdateTrackerRequest is a partial update.
type UpdateTrackerRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,max=40"`
}

// ListTrackersResponse is the directory listing payload.
type ListTrackersResponse struct {
	Trackers []Tracker `json:"trackers"`
}
