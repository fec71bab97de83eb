package dto

type QueueProcessResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success,omitempty"`
	JobID   string `json:"job_id,omitempty"`
	Attempt int    `json:"attempt,omitempty"`
}
