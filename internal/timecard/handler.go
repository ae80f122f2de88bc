package timecard

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mattrav05/timeclock-app/internal/domain"
	dErrors "github.com/mattrav05/timeclock-app/pkg/domain-errors"
	"github.com/mattrav05/timeclock-app/pkg/platform/httputil"
)

// Handler exposes the admin timecard endpoints.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register mounts the timecard routes on an admin-authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/admin/employees/{id}/timecard", h.list)
	r.Put("/api/admin/employees/{id}/timecard", h.mutate)
}

type entryPayload struct {
	EmployeeID   string  `json:"employeeId"`
	EmployeeName string  `json:"employeeName"`
	ClockInTime  string  `json:"clockInTime"`
	ClockOutTime string  `json:"clockOutTime,omitempty"`
	Date         string  `json:"date"`
	LocationLat  float64 `json:"locationLat"`
	LocationLng  float64 `json:"locationLng"`
	HoursWorked  float64 `json:"hoursWorked"`
	IsEdited     bool    `json:"isEdited"`
	EditedBy     string  `json:"editedBy,omitempty"`
	Notes        string  `json:"notes,omitempty"`
}

func toEntryPayload(entry domain.TimeEntry) entryPayload {
	p := entryPayload{
		EmployeeID:   entry.EmployeeID,
		EmployeeName: entry.EmployeeName,
		ClockInTime:  entry.ClockInTime.UTC().Format(time.RFC3339),
		Date:         entry.Date,
		LocationLat:  entry.LocationLat,
		LocationLng:  entry.LocationLng,
		HoursWorked:  entry.HoursWorked,
		IsEdited:     entry.IsEdited,
		EditedBy:     entry.EditedBy,
		Notes:        entry.Notes,
	}
	if !entry.ClockOutTime.IsZero() {
		p.ClockOutTime = entry.ClockOutTime.UTC().Format(time.RFC3339)
	}
	return p
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")
	entries, err := h.service.List(r.Context(), employeeID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	payload := make([]entryPayload, 0, len(entries))
	for _, entry := range entries {
		payload = append(payload, toEntryPayload(entry))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"entries": payload})
}

type mutateRequest struct {
	Action string `json:"action"`
	Entry  struct {
		ClockInTime    string `json:"clockInTime"`
		NewClockInTime string `json:"newClockInTime,omitempty"`
		ClockOutTime   string `json:"clockOutTime,omitempty"`
		Notes          string `json:"notes,omitempty"`
	} `json:"entry"`
}

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")
	req, err := httputil.Decode[mutateRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	switch req.Action {
	case "edit":
		newClockIn := req.Entry.NewClockInTime
		if newClockIn == "" {
			newClockIn = req.Entry.ClockInTime
		}
		correction, err := parseCorrection(newClockIn, req.Entry.ClockOutTime, req.Entry.Notes)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		entry, err := h.service.Edit(r.Context(), employeeID, req.Entry.ClockInTime, correction)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"entry": toEntryPayload(*entry)})

	case "add":
		correction, err := parseCorrection(req.Entry.ClockInTime, req.Entry.ClockOutTime, req.Entry.Notes)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		entry, err := h.service.Add(r.Context(), employeeID, correction)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"entry": toEntryPayload(*entry)})

	case "delete":
		if err := h.service.Delete(r.Context(), employeeID, req.Entry.ClockInTime); err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"deleted": true})

	default:
		httputil.WriteError(w, dErrors.Newf(dErrors.CodeBadRequest, "unknown action %q", req.Action))
	}
}

func parseCorrection(clockIn, clockOut, notes string) (Correction, error) {
	c := Correction{Notes: notes}
	if clockIn != "" {
		t, err := time.Parse(time.RFC3339, clockIn)
		if err != nil {
			return c, dErrors.New(dErrors.CodeInvalidInput, "clockInTime must be RFC 3339")
		}
		c.ClockInTime = t
	}
	if clockOut != "" {
		t, err := time.Parse(time.RFC3339, clockOut)
		if err != nil {
			return c, dErrors.New(dErrors.CodeInvalidInput, "clockOutTime must be RFC 3339")
		}
		c.ClockOutTime = t
	}
	return c, nil
}
