package controllers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"eventmanager/internal/delivery/http/helpers"
	"eventmanager/internal/domain"
)

// naiveLayouts are accepted for timestamps without an offset; they are read as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// flexTime decodes RFC 3339 timestamps as well as offset-less ones.
type flexTime struct {
	time.Time
}

func (t *flexTime) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if raw == "" {
		return nil
	}
	if v, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		t.Time = v
		return nil
	}
	for _, layout := range naiveLayouts {
		if v, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			t.Time = v
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", raw)
}

// EventRequest is the request body for POST /events/ and PUT /events/{id}/.
type EventRequest struct {
	Name         string   `json:"name" validate:"required,max=255"`
	Description  *string  `json:"description"`
	StartTime    flexTime `json:"start_time" swaggertype:"string" format:"date-time"`
	EndTime      flexTime `json:"end_time" swaggertype:"string" format:"date-time"`
	Location     string   `json:"location" validate:"required,max=255"`
	MaxAttendees int      `json:"max_attendees" validate:"gt=0"`
}

// Validate implements helpers.Validator for the time window, which tags cannot express.
func (e EventRequest) Validate() []string {
	if e.StartTime.IsZero() || e.EndTime.IsZero() {
		return []string{"start_time and end_time are required"}
	}
	if !e.StartTime.Before(e.EndTime.Time) {
		return []string{"start_time must be before end_time"}
	}
	return nil
}

func (e EventRequest) input() domain.EventInput {
	return domain.EventInput{
		Name:         strings.TrimSpace(e.Name),
		Description:  e.Description,
		StartTime:    e.StartTime.Time,
		EndTime:      e.EndTime.Time,
		Location:     strings.TrimSpace(e.Location),
		MaxAttendees: e.MaxAttendees,
	}
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateEvent godoc
// @Summary Create an event
// @Description Creates a scheduled event. start_time must be before end_time and max_attendees must be positive.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body EventRequest true "Event data"
// @Success 201 {object} domain.Event
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or validation_error"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 503 {object} helpers.APIResponse "error.code: service_unavailable"
// @Router /events/ [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.CreateEvent(r.Context(), req.input())
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, event)
}

// GetEvent godoc
// @Summary Get an event
// @Description Returns the event with its status refreshed against the current time.
// @Tags events
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} domain.Event
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{id} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	event, err := c.Service.GetEvent(r.Context(), id)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, event)
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Replaces the descriptive fields of an event. The status is recomputed against the current time and never moves backwards.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Param event body EventRequest true "Event data"
// @Success 200 {object} domain.Event
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or validation_error"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{id}/ [put]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req EventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.UpdateEvent(r.Context(), id, req.input())
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, event)
}

// ListEvents godoc
// @Summary List events
// @Description Lists events ordered by start time. Statuses are refreshed before filtering.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param status query string false "upcoming, scheduled, ongoing or completed"
// @Param location query string false "Exact location"
// @Success 200 {array} domain.Event
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /events/ [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter domain.EventFilter
	if raw := q.Get("status"); raw != "" {
		status, ok := domain.ParseEventStatus(raw)
		if !ok {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid status: "+raw)
			return
		}
		filter.Status = status
	}
	filter.Location = strings.TrimSpace(q.Get("location"))

	events, err := c.Service.ListEvents(r.Context(), filter)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	if events == nil {
		events = []*domain.Event{}
	}
	helpers.WriteJSON(w, http.StatusOK, events)
}

// pathID parses a positive integer path parameter, writing a 400 when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}
