package attendance

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mattrav05/timeclock-app/internal/domain"
	"github.com/mattrav05/timeclock-app/pkg/platform/httputil"
	"github.com/mattrav05/timeclock-app/pkg/requestcontext"
)

// Handler exposes the employee clock endpoints. All routes assume the
// employee session middleware already ran.
type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

// Register mounts the clock routes on an employee-authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/clockin", h.clockIn)
	r.Post("/api/clockout", h.clockOut)
	r.Get("/api/status", h.status)
	r.Get("/api/timesheet", h.timesheet)
}

type clockInRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
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

func (h *Handler) clockIn(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[clockInRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	employeeID := requestcontext.EmployeeID(r.Context())
	entry, channel, err := h.engine.ClockIn(r.Context(), employeeID, req.Latitude, req.Longitude)
	if err != nil {
		var oor *OutOfRangeError
		if errors.As(err, &oor) {
			httputil.WriteErrorDetails(w, err, map[string]any{
				"jobSite":       oor.SiteName,
				"address":       oor.Address,
				"distance":      oor.Distance,
				"allowedRadius": oor.Radius,
			})
			return
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"entry":      toEntryPayload(*entry),
		"verifiedBy": string(channel),
	})
}

func (h *Handler) clockOut(w http.ResponseWriter, r *http.Request) {
	employeeID := requestcontext.EmployeeID(r.Context())
	entry, err := h.engine.ClockOut(r.Context(), employeeID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"entry":       toEntryPayload(*entry),
		"hoursWorked": entry.HoursWorked,
	})
}

type statusResponse struct {
	EmployeeID   string        `json:"employeeId"`
	Name         string        `json:"name"`
	Status       string        `json:"currentStatus"`
	OpenEntry    *entryPayload `json:"openEntry,omitempty"`
	Inconsistent bool          `json:"inconsistent,omitempty"`
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	employeeID := requestcontext.EmployeeID(r.Context())
	report, err := h.engine.Status(r.Context(), employeeID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := statusResponse{
		EmployeeID:   report.Employee.ID,
		Name:         report.Employee.Name,
		Status:       string(report.Employee.CurrentStatus),
		Inconsistent: report.Inconsistent,
	}
	if report.OpenEntry != nil {
		p := toEntryPayload(*report.OpenEntry)
		resp.OpenEntry = &p
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

type timesheetResponse struct {
	Entries    []entryPayload `json:"entries"`
	TodayHours float64        `json:"todayHours"`
	WeekHours  float64        `json:"weekHours"`
}

func (h *Handler) timesheet(w http.ResponseWriter, r *http.Request) {
	employeeID := requestcontext.EmployeeID(r.Context())
	sheet, err := h.engine.Timesheet(r.Context(), employeeID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := timesheetResponse{
		Entries:    make([]entryPayload, 0, len(sheet.Entries)),
		TodayHours: sheet.TodayHours,
		WeekHours:  sheet.WeekHours,
	}
	for _, entry := range sheet.Entries {
		resp.Entries = append(resp.Entries, toEntryPayload(entry))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
