package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"rsvp/internal/reservations/service"
	apperrors "rsvp/pkg/errors"
	httputil "rsvp/pkg/http"
	"rsvp/pkg/logger"
	"rsvp/pkg/model"
)

const basePath = "/api/v1/reservations"

type ReservationHandler struct {
	service service.ReservationService
	log     *logger.Logger
}

func NewReservationHandler(service service.ReservationService, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		log:     log,
	}
}

// ReserveRequest is the body of POST /api/v1/reservations. An omitted or
// unrecognized status starts the reservation as pending.
type ReserveRequest struct {
	UserID     string                  `json:"user_id"`
	ResourceID string                  `json:"resource_id"`
	Start      time.Time               `json:"start"`
	End        time.Time               `json:"end"`
	Note       string                  `json:"note"`
	Status     model.ReservationStatus `json:"status,omitempty"`
}

type UpdateNoteRequest struct {
	Note string `json:"note"`
}

func (h *ReservationHandler) Reserve(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req ReserveRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	rsvp, err := h.service.Reserve(r.Context(), &model.Reservation{
		UserID:     req.UserID,
		ResourceID: req.ResourceID,
		Start:      req.Start,
		End:        req.End,
		Note:       req.Note,
		Status:     req.Status,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, rsvp)
}

func (h *ReservationHandler) Confirm(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := parseID(ps)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rsvp, err := h.service.Confirm(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, rsvp)
}

func (h *ReservationHandler) UpdateNote(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := parseID(ps)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req UpdateNoteRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	rsvp, err := h.service.UpdateNote(r.Context(), id, req.Note)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, rsvp)
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := parseID(ps)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Cancel(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := parseID(ps)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rsvp, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, rsvp)
}

// Query streams the matching page as newline-delimited JSON, one reservation
// per line.
func (h *ReservationHandler) Query(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query, err := parseQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rows, err := h.service.Query(r.Context(), query)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	stream := httputil.NewNDJSONWriter(w)
	stream.Start()
	for _, rsvp := range rows {
		if err := stream.Write(rsvp); err != nil {
			h.log.FromContext(r.Context()).Warn("Reservation stream interrupted",
				"handler", "Query",
				"error", err,
			)
			return
		}
	}
}

func (h *ReservationHandler) Filter(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	pager, rows, err := h.service.Filter(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCursorPage(w, rows, pager)
}

// Listen is reserved for pushing reservation changes to clients.
func (h *ReservationHandler) Listen(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	httputil.WriteError(w, apperrors.NotImplemented("listen"))
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST(basePath, h.Reserve)
	router.GET(basePath+"/query", h.Query)
	router.GET(basePath+"/filter", h.Filter)
	router.GET(basePath+"/listen", h.Listen)
	router.GET(basePath+"/id/:id", h.Get)
	router.PATCH(basePath+"/id/:id", h.UpdateNote)
	router.DELETE(basePath+"/id/:id", h.Cancel)
	router.POST(basePath+"/id/:id/confirm", h.Confirm)
}

func parseID(ps httprouter.Params) (int64, error) {
	raw := ps.ByName("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperrors.BadRequest(apperrors.CodeInvalidReservationID, "invalid reservation id: "+strconv.Quote(raw), err)
	}
	return id, nil
}

func parseQuery(r *http.Request) (*model.ReservationQuery, error) {
	start, err := httputil.QueryTime(r, "start")
	if err != nil {
		return nil, err
	}
	end, err := httputil.QueryTime(r, "end")
	if err != nil {
		return nil, err
	}
	page, err := httputil.QueryInt(r, "page")
	if err != nil {
		return nil, err
	}
	pageSize, err := httputil.QueryInt(r, "page_size")
	if err != nil {
		return nil, err
	}
	desc, err := httputil.QueryBool(r, "desc")
	if err != nil {
		return nil, err
	}

	return &model.ReservationQuery{
		UserID:     httputil.QueryString(r, "user_id"),
		ResourceID: httputil.QueryString(r, "resource_id"),
		Status:     model.ParseReservationStatus(httputil.QueryString(r, "status")),
		Start:      start,
		End:        end,
		Page:       page,
		PageSize:   pageSize,
		Desc:       desc,
	}, nil
}

func parseFilter(r *http.Request) (*model.ReservationFilter, error) {
	cursor, err := httputil.QueryInt64(r, "cursor")
	if err != nil {
		return nil, err
	}
	pageSize, err := httputil.QueryInt(r, "page_size")
	if err != nil {
		return nil, err
	}
	desc, err := httputil.QueryBool(r, "desc")
	if err != nil {
		return nil, err
	}

	return &model.ReservationFilter{
		UserID:     httputil.QueryString(r, "user_id"),
		ResourceID: httputil.QueryString(r, "resource_id"),
		Status:     model.ParseReservationStatus(httputil.QueryString(r, "status")),
		Cursor:     cursor,
		PageSize:   pageSize,
		Desc:       desc,
	}, nil
}
