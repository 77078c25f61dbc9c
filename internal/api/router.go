// Package api exposes the processing trigger over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"sitevoice-go/internal/logger"
	"sitevoice-go/internal/processor"
)

const maxBodyBytes = 1 << 20

// Processor handles one trigger.
type Processor interface {
	Process(ctx context.Context, req processor.TriggerRequest) (processor.Response, error)
}

type handlers struct {
	proc Processor
	log  *logger.Logger
}

// NewRouter wires the trigger endpoints, the health check and the CORS
// preflight responder.
func NewRouter(proc Processor, log *logger.Logger) *mux.Router {
	if log == nil {
		log = logger.New()
	}
	h := &handlers{proc: proc, log: log.With("component", "api")}

	r := mux.NewRouter()
	r.Use(CORSMiddleware, LoggingMiddleware(h.log))

	r.Methods(http.MethodOptions).PathPrefix("/").HandlerFunc(preflight)
	r.HandleFunc("/healthz", health).Methods(http.MethodGet)
	r.HandleFunc("/transcribe", h.process).Methods(http.MethodPost)
	r.HandleFunc("/process", h.process).Methods(http.MethodPost)
	return r
}

func preflight(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ok")
}

func health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) process(w http.ResponseWriter, r *http.Request) {
	reqLog := h.log.WithRequest(r).WithField("handler", "process")

	var req processor.TriggerRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty request body")
		}
		reqLog.WithError(err).Warn("malformed request")
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.ID() == "" {
		reqLog.Warn("missing voice note id")
		writeError(w, http.StatusBadRequest, processor.ErrMissingID.Error())
		return
	}

	res, err := h.proc.Process(r.Context(), req)
	if err != nil {
		reqLog.WithError(err).WithField("voice_note_id", req.ID()).Error("processing failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
