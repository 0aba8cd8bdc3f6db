package http

import (
	"encoding/json"
	"net/http"
	apperrors "rsvp/pkg/errors"
)

const ContentTypeNDJSON = "application/x-ndjson"

type SuccessResponse struct {
	Data any `json:"data"`
}

// CursorPage is the body of a keyset-paginated listing.
type CursorPage struct {
	Data  any `json:"data"`
	Pager any `json:"pager"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func WriteError(w http.ResponseWriter, err error) {
	apperrors.WriteError(w, err)
}

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, SuccessResponse{Data: data})
}

func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, SuccessResponse{Data: data})
}

func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func WriteCursorPage(w http.ResponseWriter, data any, pager any) {
	WriteJSON(w, http.StatusOK, CursorPage{Data: data, Pager: pager})
}

// NDJSONWriter streams one JSON document per line, flushing after each.
type NDJSONWriter struct {
	w       http.ResponseWriter
	enc     *json.Encoder
	flusher http.Flusher
	started bool
}

func NewNDJSONWriter(w http.ResponseWriter) *NDJSONWriter {
	f, _ := w.(http.Flusher)
	return &NDJSONWriter{w: w, enc: json.NewEncoder(w), flusher: f}
}

func (nw *NDJSONWriter) Write(item any) error {
	if !nw.started {
		nw.Start()
	}
	if err := nw.enc.Encode(item); err != nil {
		return err
	}
	if nw.flusher != nil {
		nw.flusher.Flush()
	}
	return nil
}

// Start sends the 200 header. It is called implicitly by the first Write.
func (nw *NDJSONWriter) Start() {
	if nw.started {
		return
	}
	nw.started = true
	nw.w.Header().Set("Content-Type", ContentTypeNDJSON)
	nw.w.WriteHeader(http.StatusOK)
}
