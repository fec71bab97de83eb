package dto

type DocumentResponse struct {
	ID               string   `json:"id"`
	OriginalFilename string   `json:"original_filename"`
	Status           string   `json:"status"`
	OCRText          string   `json:"ocr_text,omitempty"`
	WordCount        *int     `json:"word_count,omitempty"`
	ProcessingTime   *float64 `json:"processing_time,omitempty"`
	ErrorMessage     string   `json:"error_message,omitempty"`
	CreatedAt        string   `json:"created_at"`
}

type ProcessRequestResponse struct {
	JobID      string `json:"job_id"`
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
}
