package controllers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"eventmanager/internal/delivery/http/helpers"
	"eventmanager/internal/domain"
)

// AttendeeRequest is the request body for POST /events/attendees/{event_id}/.
type AttendeeRequest struct {
	FirstName   string `json:"first_name" validate:"required,max=100"`
	LastName    string `json:"last_name" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email,max=255"`
	PhoneNumber string `json:"phone_number" validate:"required,max=20"`
}

type AttendeeController struct {
	Logger         *slog.Logger
	Service        domain.AttendeeService
	MaxUploadBytes int64
}

func NewAttendeeController(logger *slog.Logger, svc domain.AttendeeService, maxUploadBytes int64) *AttendeeController {
	return &AttendeeController{
		Logger:         logger,
		Service:        svc,
		MaxUploadBytes: maxUploadBytes,
	}
}

// RegisterAttendee godoc
// @Summary Register an attendee for an event
// @Description Registers an attendee while capacity remains. An email can register only once per event. A confirmation email is sent best-effort.
// @Tags attendees
// @Accept json
// @Produce json
// @Param event_id path int true "Event ID"
// @Param attendee body AttendeeRequest true "Attendee data"
// @Success 201 {object} domain.Attendee
// @Failure 400 {object} helpers.APIResponse "error.code: validation_error or conflict (duplicate email, fully booked)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 503 {object} helpers.APIResponse "error.code: service_unavailable"
// @Router /events/attendees/{event_id}/ [post]
func (c *AttendeeController) RegisterAttendee(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "event_id")
	if !ok {
		return
	}
	var req AttendeeRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	attendee, err := c.Service.RegisterAttendee(r.Context(), eventID, req.FirstName, req.LastName, req.Email, req.PhoneNumber)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, attendee)
}

// ListAttendees godoc
// @Summary List attendees of an event
// @Description Name and email filters are case-insensitive substring matches. check_in_status is exact.
// @Tags attendees
// @Produce json
// @Param event_id path int true "Event ID"
// @Param first_name query string false "First name contains"
// @Param last_name query string false "Last name contains"
// @Param email query string false "Email contains"
// @Param check_in_status query bool false "Checked in"
// @Success 200 {array} domain.Attendee
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/attendees/{event_id}/ [get]
func (c *AttendeeController) ListAttendees(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "event_id")
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := domain.AttendeeFilter{
		FirstName: strings.TrimSpace(q.Get("first_name")),
		LastName:  strings.TrimSpace(q.Get("last_name")),
		Email:     strings.TrimSpace(q.Get("email")),
	}
	if raw := q.Get("check_in_status"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "check_in_status must be a boolean")
			return
		}
		filter.CheckInStatus = &v
	}

	attendees, err := c.Service.ListAttendees(r.Context(), eventID, filter)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	if attendees == nil {
		attendees = []*domain.Attendee{}
	}
	helpers.WriteJSON(w, http.StatusOK, attendees)
}

// CheckIn godoc
// @Summary Check in an attendee
// @Description Marks the attendee as checked in. Checking in twice succeeds.
// @Tags attendees
// @Produce json
// @Security BearerAuth
// @Param attendee_id path int true "Attendee ID"
// @Success 200 {object} helpers.MessageResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /attendees/checkin/{attendee_id}/ [put]
func (c *AttendeeController) CheckIn(w http.ResponseWriter, r *http.Request) {
	attendeeID, ok := pathID(w, r, "attendee_id")
	if !ok {
		return
	}
	if err := c.Service.CheckIn(r.Context(), attendeeID); err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, helpers.MessageResponse{Message: "Attendee checked in successfully"})
}

// BulkCheckIn godoc
// @Summary Bulk check-in from CSV
// @Description Checks in every attendee of the event whose email appears in the "email" column of the uploaded CSV. Unknown emails are ignored.
// @Tags attendees
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param event_id path int true "Event ID"
// @Param file formData file true "CSV file with an email column"
// @Success 200 {object} helpers.MessageResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or validation_error"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{event_id}/bulk_checkin/ [post]
func (c *AttendeeController) BulkCheckIn(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "event_id")
	if !ok {
		return
	}
	if c.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, c.MaxUploadBytes)
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			helpers.WriteJSONError(w, http.StatusRequestEntityTooLarge, helpers.ErrCodeBadRequest,
				fmt.Sprintf("file exceeds %d bytes", tooLarge.Limit))
			return
		}
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "file is required")
		return
	}
	defer file.Close()

	n, err := c.Service.BulkCheckIn(r.Context(), eventID, file)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, helpers.MessageResponse{
		Message: fmt.Sprintf("%d attendees checked in successfully!", n),
	})
}
