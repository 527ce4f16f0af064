package models

// EnrichedLead is a lead flattened together with its responsible user,
// pipeline status and primary contacts.
type EnrichedLead struct {
	ID              int64         `json:"id"`
	Name            string        `json:"name"`
	Price           float64       `json:"price"`
	GroupID         int64         `json:"group_id"`
	StatusID        int64         `json:"status_id"`
	PipelineID      int64         `json:"pipeline_id"`
	CreatedAt       int64         `json:"created_at"`
	ResponsibleUser UserSummary   `json:"responsible_user"`
	Status          StatusSummary `json:"status"`
	Contacts        []Contact     `json:"contacts"`
}

type UserSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type StatusSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}
