package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// the recorder must still satisfy Flusher or streaming handlers break
var _ http.Flusher = (*HttpStatusRecorder)(nil)

func TestHttpStatusRecorder_RecordsWrittenStatus(t *testing.T) {
	underlying := httptest.NewRecorder()
	recorder := &HttpStatusRecorder{ResponseWriter: underlying, Status: 200}

	recorder.WriteHeader(http.StatusNotFound)

	if recorder.Status != http.StatusNotFound {
		t.Errorf("recorded status got %d, want %d", recorder.Status, http.StatusNotFound)
	}
	if underlying.Code != http.StatusNotFound {
		t.Errorf("underlying writer got %d, want %d", underlying.Code, http.StatusNotFound)
	}
}

func TestHttpStatusRecorder_FlushReachesUnderlyingWriter(t *testing.T) {
	underlying := httptest.NewRecorder()
	recorder := &HttpStatusRecorder{ResponseWriter: underlying, Status: 200}

	recorder.Flush()

	if !underlying.Flushed {
		t.Error("Flush was not forwarded to the wrapped writer")
	}
}
