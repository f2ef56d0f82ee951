package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/akolanti/NotesRAG/internal/adapter"
	"github.com/akolanti/NotesRAG/internal/adapter/utils"
	"github.com/akolanti/NotesRAG/internal/config"
	"github.com/akolanti/NotesRAG/internal/domain/docModel"
	"github.com/akolanti/NotesRAG/internal/rag/vectorizer"
)

// PostDocumentHandler handles the uploading of notes for vectorization.
// @Summary      Upload a document
// @Description  Receives inline text or a file via multipart/form-data, stores the document, and queues a vectorize task. Answering against the document becomes possible once vector_status is completed.
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        document_name  formData  string  true   "The display name of the document"
// @Param        content        formData  string  false  "Inline text content"
// @Param        document       formData  file    false  "A PDF, DOCX or text file"
// @Success      202  {object}  api.InitVectorizeResponse "Accepted - vectorization queued"
// @Failure      400  {object}  api.DocumentResponse "Missing fields or file too large"
// @Failure      500  {object}  api.DocumentResponse "Storage or Write Error"
// @Router       /documents [post]
func (h *Handler) PostDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		logRH.Warn("Invalid Context by request ", r.RemoteAddr)
		return
	}

	const maxUploadSize = 32 << 20 //32mb
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "File too large or bad request")
		return
	}

	docName := r.FormValue("document_name")
	if docName == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "", "document_name is required")
		return
	}

	newDoc := docModel.Document{
		Id:           utils.GetNewUUID(),
		OwnerId:      contextString(r.Context(), config.USER_ID_KEY),
		Name:         docName,
		VectorStatus: docModel.VectorPending,
		CreatedTime:  time.Now(),
	}

	if inline := r.FormValue("content"); inline != "" {
		newDoc.InlineContent = inline
		newDoc.ContentType = docModel.TXT
	} else if !h.saveUploadedFile(w, r, &newDoc) {
		return
	}

	if err := h.documents.SaveDocument(r.Context(), newDoc); err != nil {
		logRH.Error("Couldn't save document :", "err", err)
		WriteErrorResponse(w, http.StatusInternalServerError, newDoc.Id, "Storage error")
		return
	}
	h.queueVectorize(w, r, newDoc.Id, newDoc.OwnerId)
}

// VectorizeDocumentHandler godoc
// @Summary      Re-run vectorization
// @Description  Queues a fresh vectorize task for an existing document. The previous chunk set stays searchable until the new one replaces it.
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      202  {object}  api.InitVectorizeResponse "Accepted - vectorization queued"
// @Failure      404  {object}  api.DocumentResponse "Document not found"
// @Router       /documents/{id}/vectorize [post]
func (h *Handler) VectorizeDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	doc, found := h.ownedDocument(r, utils.GetChiURLParam(r, "id"))
	if !found {
		WriteErrorResponse(w, http.StatusNotFound, utils.GetChiURLParam(r, "id"), "Document not found")
		return
	}
	h.queueVectorize(w, r, doc.Id, doc.OwnerId)
}

// GetDocumentHandler godoc
// @Summary      Get document status
// @Description  Retrieves one document with its vectorization status and summary.
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  api.DocumentResponse "The document"
// @Failure      404  {object}  api.DocumentResponse "Document not found"
// @Router       /documents/{id} [get]
func (h *Handler) GetDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	idString := utils.GetChiURLParam(r, "id")
	logRH.Debug("Get Document Request:", "URL path", r.URL.Path)

	doc, found := h.ownedDocument(r, idString)
	if !found {
		WriteErrorResponse(w, http.StatusNotFound, idString, "Document not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToDocumentResponse(doc))
}

// ListDocumentsHandler godoc
// @Summary      List documents
// @Description  Lists the caller's documents with their vectorization status.
// @Tags         Documents
// @Produce      json
// @Success      200  {object}  api.DocumentListResponse "The caller's documents"
// @Router       /documents [get]
func (h *Handler) ListDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	summaries, err := h.documents.ListSummaries(r.Context(), contextString(r.Context(), config.USER_ID_KEY))
	if err != nil {
		logRH.Error("Couldn't list documents :", "err", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "", "Storage error")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToDocumentListResponse(summaries))
}

// ownedDocument looks a document up and hides other users' documents behind
// a not-found.
func (h *Handler) ownedDocument(r *http.Request, id string) (docModel.Document, bool) {
	if id == "" {
		return docModel.Document{}, false
	}
	doc, found := h.documents.GetDocument(r.Context(), id)
	if !found || doc.OwnerId != contextString(r.Context(), config.USER_ID_KEY) {
		return docModel.Document{}, false
	}
	return doc, true
}

func (h *Handler) saveUploadedFile(w http.ResponseWriter, r *http.Request, newDoc *docModel.Document) bool {
	targetDir, errString := getTargetDirectory()
	if errString != "" {
		logRH.Error("Couldn't get target directory :", "err", errString)
		WriteErrorResponse(w, http.StatusInternalServerError, "", errString)
		return false
	}

	fileReader, fileMetadata, err := r.FormFile("document")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, newDoc.Name, "content or a document file is required")
		return false
	}
	defer fileReader.Close()

	docType := vectorizer.GetDocType(fileMetadata.Filename)
	if docType == docModel.ERR {
		WriteErrorResponse(w, http.StatusBadRequest, newDoc.Name, "Unsupported file type")
		return false
	}

	filename := fmt.Sprintf("%d-%s", time.Now().UnixNano(), fileMetadata.Filename)
	tempFilePath := filepath.Join(targetDir, filename)
	destinationFileWriter, err := os.Create(tempFilePath)
	if err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, newDoc.Name, "Storage error")
		return false
	}
	defer destinationFileWriter.Close()

	if _, err := io.Copy(destinationFileWriter, fileReader); err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, newDoc.Name, "Write error")
		return false
	}

	newDoc.SourcePath = tempFilePath
	newDoc.ContentType = docType
	return true
}

func (h *Handler) queueVectorize(w http.ResponseWriter, r *http.Request, documentId string, ownerId string) {
	newTask, err := h.tasks.Enqueue(r.Context(), documentId, ownerId, contextString(r.Context(), config.TRACE_ID_KEY))
	if err != nil {
		logRH.Error("Couldn't queue vectorize task :", "err", err)
		WriteErrorResponse(w, http.StatusInternalServerError, documentId, "Could not queue vectorization")
		return
	}
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitVectorizeResponse(documentId, newTask.Id))
}
