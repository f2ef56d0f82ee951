package api

import "time"

type ExternalStatus string

const (
	StatusError ExternalStatus = "Error"
)

// AskStreamFrame is one server-sent event on /ask. Fragment frames carry a
// piece of the answer; the final frame has Done set with the full result.
type AskStreamFrame struct {
	Fragment     string `json:"fragment,omitempty"`
	Done         bool   `json:"done,omitempty"`
	FullAnswer   string `json:"full_answer,omitempty"`
	PipelineUsed string `json:"pipeline_used,omitempty"`
	Success      *bool  `json:"success,omitempty"`
}

type DocumentResponse struct {
	Id           string         `json:"id" example:"doc_cz109"`
	Name         string         `json:"name" example:"biology-notes.pdf"`
	VectorStatus string         `json:"vector_status" example:"completed"`
	ShortSummary string         `json:"short_summary,omitempty"`
	CreatedTime  time.Time      `json:"created_time"`
	Error        *OutgoingError `json:"error,omitempty"`
}

type DocumentListResponse struct {
	Documents []DocumentSummaryResponse `json:"documents"`
}

type DocumentSummaryResponse struct {
	Id           string `json:"id"`
	Name         string `json:"name"`
	ShortSummary string `json:"short_summary,omitempty"`
	VectorStatus string `json:"vector_status"`
}

type InitVectorizeResponse struct {
	DocumentId string `json:"document_id"`
	TaskId     string `json:"task_id"`
	StatusURL  string `json:"status_url"`
}

type OutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Document not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

// requests---------------------

type AskRequest struct {
	Question   string `json:"question" validate:"required"`
	DocumentID string `json:"document_id,omitempty"`
}

type UploadDocumentRequest struct {
	DocumentName string `json:"document_name" validate:"required"`
	Content      string `json:"content,omitempty"`
}
