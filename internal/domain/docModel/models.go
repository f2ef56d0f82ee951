package docModel

import "time"

type VectorStatus string

const (
	VectorPending    VectorStatus = "pending"
	VectorProcessing VectorStatus = "processing"
	VectorCompleted  VectorStatus = "completed"
	VectorFailed     VectorStatus = "failed"
)

type DocType string

var (
	PDF DocType = "PDF"
	DOC DocType = "DOC"
	TXT DocType = "TXT"
	ERR DocType = "ERROR"
)

// Document is the stored record for one user note/upload.
// Exactly one of InlineContent / SourcePath carries the source text.
type Document struct {
	Id            string       `json:"id"`
	OwnerId       string       `json:"owner_id"`
	Name          string       `json:"name"`
	ContentType   DocType      `json:"content_type"`
	InlineContent string       `json:"inline_content,omitempty"`
	SourcePath    string       `json:"source_path,omitempty"`
	ShortSummary  string       `json:"short_summary,omitempty"`
	VectorStatus  VectorStatus `json:"vector_status"`
	Generation    string       `json:"generation,omitempty"` //chunk generation currently searchable
	CreatedTime   time.Time    `json:"created_time"`
	LastVectorize time.Time    `json:"last_vectorize,omitempty"`
}

func (d Document) HasInlineContent() bool {
	return d.InlineContent != ""
}

// DocumentSummary is the compact view the classifier routes on.
// ShortSummary is only ever set once VectorStatus is completed.
type DocumentSummary struct {
	DocumentId   string       `json:"document_id"`
	Name         string       `json:"name"`
	ShortSummary string       `json:"short_summary,omitempty"`
	VectorStatus VectorStatus `json:"vector_status"`
}

func (d Document) Summary() DocumentSummary {
	s := DocumentSummary{
		DocumentId:   d.Id,
		Name:         d.Name,
		VectorStatus: d.VectorStatus,
	}
	if d.VectorStatus == VectorCompleted {
		s.ShortSummary = d.ShortSummary
	}
	return s
}

// Chunk is one embedded slice of a document. SequenceIndex is global across
// the document, Generation tags the vectorization run that produced it.
type Chunk struct {
	Id            string `json:"chunk_id"`
	DocumentId    string `json:"document_id"`
	OwnerId       string `json:"owner_id"`
	SequenceIndex int    `json:"sequence_index"`
	Text          string `json:"content"`
	Generation    string `json:"generation"`
	DocName       string `json:"doc_name"`
}
