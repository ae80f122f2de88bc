package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mattrav05/timeclock-app/pkg/platform/httputil"
)

// Handler exposes the login endpoints.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register mounts the public login routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/auth/login", h.loginEmployee)
	r.Post("/api/admin/auth", h.loginAdmin)
}

type employeeLoginRequest struct {
	EmployeeID string `json:"employeeId"`
	Password   string `json:"password"`
}

type employeeLoginResponse struct {
	Token    string               `json:"token"`
	Employee employeeLoginProfile `json:"employee"`
}

type employeeLoginProfile struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"currentStatus"`
}

func (h *Handler) loginEmployee(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[employeeLoginRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	token, emp, err := h.service.LoginEmployee(r.Context(), req.EmployeeID, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, employeeLoginResponse{
		Token: token,
		Employee: employeeLoginProfile{
			ID:     emp.ID,
			Name:   emp.Name,
			Status: string(emp.CurrentStatus),
		},
	})
}

type adminLoginRequest struct {
	Password string `json:"password"`
}

type adminLoginResponse struct {
	Token string `json:"token"`
}

func (h *Handler) loginAdmin(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[adminLoginRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	token, err := h.service.LoginAdmin(r.Context(), req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, adminLoginResponse{Token: token})
}
