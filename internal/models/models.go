package models

import "time"

// User represents a registered user. The password hash never leaves the
// server; the json tag keeps it out of every response.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Prediction is one building guess from the external classifier. Confidence
// is produced by an untrusted service and is treated as an opaque float.
type Prediction struct {
	Building   string  `json:"building"`
	Confidence float64 `json:"confidence"`
}

// Navigation holds the walking guidance attached to a recognition result.
type Navigation struct {
	CurrentLocation string   `json:"current_location"`
	Directions      []string `json:"directions"`
}

// AnalysisResult is the persisted outcome of one recognition call. Records
// are immutable once written.
type AnalysisResult struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user_id"`
	ImagePath   *string      `json:"image_path,omitempty"`
	Predictions []Prediction `json:"predictions"`
	Navigation  Navigation   `json:"navigation"`
	CreatedAt   time.Time    `json:"created_at"`
}
