package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/orgportal-api/internal/service"
	"github.com/noah-isme/orgportal-api/pkg/response"
)

// EmployeeHandler handles portal user profile endpoints.
type EmployeeHandler struct {
	employees *service.EmployeeService
}

// NewEmployeeHandler constructs an employee handler.
func NewEmployeeHandler(employees *service.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{employees: employees}
}

// Me godoc
// @Summary Get the caller's profile with document counter
// @Tags Employees
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /me [get]
func (h *EmployeeHandler) Me(c *gin.Context) {
	employee, err := h.employees.Profile(c.Request.Context(), identityFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employee)
}
