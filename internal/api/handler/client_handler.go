package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/repairshop/workshop/internal/core/ports"
)

// ClientHandler serves client account management for staff.
type ClientHandler struct {
	clients ports.ClientService
}

func NewClientHandler(clients ports.ClientService) *ClientHandler {
	return &ClientHandler{clients: clients}
}

// List returns all clients.
//
// @Summary      List clients
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   clientResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /clients [get]
func (h *ClientHandler) List(c echo.Context) error {
	clients, err := h.clients.ListClients(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toClientResponses(clients))
}

// Search returns the clients whose first or last name contains ?keyword=.
//
// @Summary      Search clients
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Param        keyword  query     string  true  "Name keyword"
// @Success      200      {array}   clientResponse
// @Failure      400      {object}  errorResponse
// @Failure      401      {object}  errorResponse
// @Failure      403      {object}  errorResponse
// @Router       /clients/search [get]
func (h *ClientHandler) Search(c echo.Context) error {
	keyword := strings.TrimSpace(c.QueryParam("keyword"))
	if keyword == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "keyword is required")
	}
	clients, err := h.clients.SearchClients(c.Request().Context(), keyword)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toClientResponses(clients))
}

// Get returns a single client.
//
// @Summary      Get client
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Client ID"
// @Success      200  {object}  clientResponse
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /clients/{id} [get]
func (h *ClientHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	client, err := h.clients.GetClient(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toClientResponse(client))
}

// Create opens a client account and, unless disabled, queues the
// generated credentials for delivery.
//
// @Summary      Create client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      clientRequest  true  "Client details"
// @Success      201   {object}  clientResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /clients [post]
func (h *ClientHandler) Create(c echo.Context) error {
	var req clientRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	client, err := h.clients.CreateClient(c.Request().Context(), toCreateClientInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toClientResponse(client))
}

// Update replaces a client's contact details.
//
// @Summary      Update client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int            true  "Client ID"
// @Param        body  body      clientRequest  true  "Client details"
// @Success      200   {object}  clientResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /clients/{id} [put]
func (h *ClientHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req clientRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	client, err := h.clients.UpdateClient(c.Request().Context(), id, toUpdateClientInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toClientResponse(client))
}

// ResendCredentials generates a new password and queues it for delivery.
//
// @Summary      Resend client credentials
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Client ID"
// @Success      200  {object}  messageResponse
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /clients/{id}/resend-credentials [post]
func (h *ClientHandler) ResendCredentials(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.clients.ResendCredentials(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "credentials sent"})
}

// ToggleStatus flips a client between active and disabled.
//
// @Summary      Toggle client status
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Client ID"
// @Success      200  {object}  clientResponse
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /clients/{id}/toggle-status [post]
func (h *ClientHandler) ToggleStatus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	client, err := h.clients.ToggleStatus(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toClientResponse(client))
}

// Delete removes a client.
//
// @Summary      Delete client
// @Tags         clients
// @Security     BearerAuth
// @Param        id   path      int  true  "Client ID"
// @Success      204
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /clients/{id} [delete]
func (h *ClientHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.clients.DeleteClient(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
