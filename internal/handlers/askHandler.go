package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/akolanti/NotesRAG/internal/adapter"
	"github.com/akolanti/NotesRAG/internal/api"
	"github.com/akolanti/NotesRAG/internal/config"
	"github.com/akolanti/NotesRAG/internal/domain/ragModel"
	"github.com/akolanti/NotesRAG/internal/domain/taskModel"
	"github.com/akolanti/NotesRAG/internal/metrics"
	"github.com/akolanti/NotesRAG/internal/rag/session"
	"github.com/akolanti/NotesRAG/internal/task"
)

// Handler carries the wired services for every route. One instance is built
// in main and shared; it holds no per-request state.
type Handler struct {
	session   *session.Controller
	tasks     *task.Service
	documents taskModel.DocumentStore
}

func NewHandler(sessionController *session.Controller, tasks *task.Service, documents taskModel.DocumentStore) *Handler {
	return &Handler{
		session:   sessionController,
		tasks:     tasks,
		documents: documents,
	}
}

func GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	return
}

// AskHandler godoc
// @Summary      Ask a question
// @Description  Routes the question to document retrieval or general knowledge and streams the answer as server-sent events. Fragment frames arrive in order; the final frame carries the full answer.
// @Tags         Questions
// @Accept       json
// @Produce      text/event-stream
// @Param        request  body      api.AskRequest  true  "Question and optional target document"
// @Success      200      {object}  api.AskStreamFrame "Stream of answer frames"
// @Failure      400      {object}  api.DocumentResponse "Invalid request"
// @Router       /ask [post]
func (h *Handler) AskHandler(w http.ResponseWriter, request *http.Request) {
	if !validateContext(request.Context()) {
		logRH.Warn("Invalid Context by request ", request.RemoteAddr)
		return
	}

	var requestData api.AskRequest
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			logRH.Error("Couldn't close the Ask handler reader :", err)
		}
	}(request.Body)
	if err := json.NewDecoder(request.Body).Decode(&requestData); err != nil || requestData.Question == "" {
		logRH.Warn("Bad Ask Request: ", "error:", err)
		WriteErrorResponse(w, http.StatusBadRequest, "", "question is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteErrorResponse(w, http.StatusInternalServerError, "", "Streaming not supported")
		return
	}

	question := ragModel.Question{
		Text:       requestData.Question,
		DocumentID: requestData.DocumentID,
		UserID:     contextString(request.Context(), config.USER_ID_KEY),
		TraceID:    contextString(request.Context(), config.TRACE_ID_KEY),
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	//request.Context() ends when the caller disconnects, which cancels the
	//whole session - no frames are written after that
	for event := range h.session.Ask(request.Context(), question) {
		if event.Done {
			writeSSEFrame(w, flusher, adapter.ToDoneFrame(event))
			return
		}
		metrics.CaptureFragmentStreamed()
		writeSSEFrame(w, flusher, adapter.ToFragmentFrame(event))
	}
}
