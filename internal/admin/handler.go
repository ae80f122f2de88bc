package admin

import (
	"bytes"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mattrav05/timeclock-app/internal/domain"
	"github.com/mattrav05/timeclock-app/pkg/platform/httputil"
)

// Handler exposes the admin management endpoints.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register mounts the admin routes on an admin-authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/admin/dashboard", h.dashboard)
	r.Get("/api/admin/employees", h.listEmployees)
	r.Post("/api/admin/employees", h.createEmployee)
	r.Put("/api/admin/employees/{id}", h.updateEmployee)
	r.Get("/api/admin/networks", h.listNetworks)
	r.Post("/api/admin/networks", h.addNetwork)
	r.Put("/api/admin/networks/{id}", h.updateNetwork)
	r.Get("/api/admin/export", h.exportCSV)
}

type employeePayload struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	IsActive           bool    `json:"isActive"`
	CurrentStatus      string  `json:"currentStatus"`
	LastClockIn        string  `json:"lastClockIn,omitempty"`
	LastClockOut       string  `json:"lastClockOut,omitempty"`
	TotalHoursThisWeek float64 `json:"totalHoursThisWeek"`
}

func toEmployeePayload(emp domain.Employee) employeePayload {
	p := employeePayload{
		ID:                 emp.ID,
		Name:               emp.Name,
		IsActive:           emp.IsActive,
		CurrentStatus:      string(emp.CurrentStatus),
		TotalHoursThisWeek: emp.TotalHoursThisWeek,
	}
	if !emp.LastClockIn.IsZero() {
		p.LastClockIn = emp.LastClockIn.UTC().Format(time.RFC3339)
	}
	if !emp.LastClockOut.IsZero() {
		p.LastClockOut = emp.LastClockOut.UTC().Format(time.RFC3339)
	}
	return p
}

type entryPayload struct {
	EmployeeID   string  `json:"employeeId"`
	EmployeeName string  `json:"employeeName"`
	ClockInTime  string  `json:"clockInTime"`
	ClockOutTime string  `json:"clockOutTime,omitempty"`
	Date         string  `json:"date"`
	HoursWorked  float64 `json:"hoursWorked"`
	IsEdited     bool    `json:"isEdited"`
}

func toEntryPayload(entry domain.TimeEntry) entryPayload {
	p := entryPayload{
		EmployeeID:   entry.EmployeeID,
		EmployeeName: entry.EmployeeName,
		ClockInTime:  entry.ClockInTime.UTC().Format(time.RFC3339),
		Date:         entry.Date,
		HoursWorked:  entry.HoursWorked,
		IsEdited:     entry.IsEdited,
	}
	if !entry.ClockOutTime.IsZero() {
		p.ClockOutTime = entry.ClockOutTime.UTC().Format(time.RFC3339)
	}
	return p
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.service.Dashboard(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	type summaryPayload struct {
		employeePayload
		TodayHours float64 `json:"todayHours"`
		WeekHours  float64 `json:"weekHours"`
	}
	summaries := make([]summaryPayload, 0, len(dash.Employees))
	for _, s := range dash.Employees {
		summaries = append(summaries, summaryPayload{
			employeePayload: toEmployeePayload(s.Employee),
			TodayHours:      s.TodayHours,
			WeekHours:       s.WeekHours,
		})
	}
	clockedIn := make([]employeePayload, 0, len(dash.ClockedIn))
	for _, emp := range dash.ClockedIn {
		clockedIn = append(clockedIn, toEmployeePayload(emp))
	}
	recent := make([]entryPayload, 0, len(dash.RecentEntries))
	for _, entry := range dash.RecentEntries {
		recent = append(recent, toEntryPayload(entry))
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"employees":      summaries,
		"clockedIn":      clockedIn,
		"todayHours":     dash.TodayHours,
		"weekHours":      dash.WeekHours,
		"recentEntries":  recent,
		"openEntryCount": dash.OpenEntryCount,
	})
}

func (h *Handler) listEmployees(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("includeInactive") == "true"
	employees, err := h.service.ListEmployees(r.Context(), includeInactive)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	payload := make([]employeePayload, 0, len(employees))
	for _, emp := range employees {
		payload = append(payload, toEmployeePayload(emp))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"employees": payload})
}

type createEmployeeRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (h *Handler) createEmployee(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[createEmployeeRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	emp, err := h.service.CreateEmployee(r.Context(), req.Name, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{"employee": toEmployeePayload(*emp)})
}

type updateEmployeeRequest struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"isActive"`
	Password *string `json:"password"`
}

func (h *Handler) updateEmployee(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[updateEmployeeRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	emp, err := h.service.UpdateEmployee(r.Context(), chi.URLParam(r, "id"), EmployeeUpdate{
		Name:     req.Name,
		IsActive: req.IsActive,
		Password: req.Password,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"employee": toEmployeePayload(*emp)})
}

type networkPayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IPAddress string `json:"ipAddress"`
	IsActive  bool   `json:"isActive"`
	Notes     string `json:"notes,omitempty"`
}

func toNetworkPayload(rule domain.NetworkRule) networkPayload {
	return networkPayload{
		ID:        rule.ID,
		Name:      rule.Name,
		IPAddress: rule.IPAddress,
		IsActive:  rule.IsActive,
		Notes:     rule.Notes,
	}
}

func (h *Handler) listNetworks(w http.ResponseWriter, r *http.Request) {
	rules, err := h.service.ListNetworks(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	payload := make([]networkPayload, 0, len(rules))
	for _, rule := range rules {
		payload = append(payload, toNetworkPayload(rule))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"networks": payload})
}

type addNetworkRequest struct {
	Name      string `json:"name"`
	IPAddress string `json:"ipAddress"`
	Notes     string `json:"notes"`
}

func (h *Handler) addNetwork(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[addNetworkRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rule, err := h.service.AddNetwork(r.Context(), req.Name, req.IPAddress, req.Notes)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{"network": toNetworkPayload(*rule)})
}

type updateNetworkRequest struct {
	Name      *string `json:"name"`
	IPAddress *string `json:"ipAddress"`
	IsActive  *bool   `json:"isActive"`
	Notes     *string `json:"notes"`
}

func (h *Handler) updateNetwork(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[updateNetworkRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rule, err := h.service.UpdateNetwork(r.Context(), chi.URLParam(r, "id"), NetworkUpdate{
		Name:      req.Name,
		IPAddress: req.IPAddress,
		IsActive:  req.IsActive,
		Notes:     req.Notes,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"network": toNetworkPayload(*rule)})
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	// Buffered so a mid-export failure still yields a clean error response
	// instead of a truncated file.
	var buf bytes.Buffer
	if err := h.service.ExportCSV(r.Context(), &buf, r.URL.Query().Get("employeeId")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="time-entries.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
