package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/repairshop/workshop/internal/core/ports"
)

// StaffHandler serves internal account management.
type StaffHandler struct {
	staff ports.StaffService
}

func NewStaffHandler(staff ports.StaffService) *StaffHandler {
	return &StaffHandler{staff: staff}
}

// Create opens a staff account.
//
// @Summary      Create staff user
// @Tags         staff
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      staffRequest  true  "Staff details"
// @Success      201   {object}  staffResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /staff [post]
func (h *StaffHandler) Create(c echo.Context) error {
	var req staffRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.staff.CreateStaff(c.Request().Context(), toCreateStaffInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toStaffResponse(user))
}

// Get returns a staff account.
//
// @Summary      Get staff user
// @Tags         staff
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Staff ID"
// @Success      200  {object}  staffResponse
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /staff/{id} [get]
func (h *StaffHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	user, err := h.staff.GetStaff(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toStaffResponse(user))
}
