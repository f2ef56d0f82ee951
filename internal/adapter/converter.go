package adapter

import (
	"fmt"

	"github.com/akolanti/NotesRAG/internal/api"
	"github.com/akolanti/NotesRAG/internal/domain/docModel"
	"github.com/akolanti/NotesRAG/internal/domain/ragModel"
)

func ToFragmentFrame(event ragModel.StreamEvent) api.AskStreamFrame {
	return api.AskStreamFrame{Fragment: event.Fragment}
}

func ToDoneFrame(event ragModel.StreamEvent) api.AskStreamFrame {
	success := event.Success
	return api.AskStreamFrame{
		Done:         true,
		FullAnswer:   event.Answer,
		PipelineUsed: string(event.PipelineUsed),
		Success:      &success,
	}
}

func ToDocumentResponse(doc docModel.Document) api.DocumentResponse {
	return api.DocumentResponse{
		Id:           doc.Id,
		Name:         doc.Name,
		VectorStatus: string(doc.VectorStatus),
		ShortSummary: doc.Summary().ShortSummary,
		CreatedTime:  doc.CreatedTime,
	}
}

func ToDocumentListResponse(summaries []docModel.DocumentSummary) api.DocumentListResponse {
	out := api.DocumentListResponse{
		Documents: make([]api.DocumentSummaryResponse, 0, len(summaries)),
	}
	for _, s := range summaries {
		out.Documents = append(out.Documents, api.DocumentSummaryResponse{
			Id:           s.DocumentId,
			Name:         s.Name,
			ShortSummary: s.ShortSummary,
			VectorStatus: string(s.VectorStatus),
		})
	}
	return out
}

func ToInitVectorizeResponse(documentId string, taskId string) api.InitVectorizeResponse {
	return api.InitVectorizeResponse{
		DocumentId: documentId,
		TaskId:     taskId,
		StatusURL:  fmt.Sprintf("documents/%s", documentId),
	}
}

func BadRequest(id string, error string, code int) api.DocumentResponse {
	return api.DocumentResponse{
		Id:           id,
		VectorStatus: string(api.StatusError),
		Error: &api.OutgoingError{
			Code:    code,
			Message: error,
			Retry:   false,
		},
	}
}
