package tickets

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jambushrusti/platform/internal/apperror"
	"github.com/jambushrusti/platform/internal/plugins/auth"
)

// Handler handles HTTP requests for support tickets.
type Handler struct {
	service TicketService
}

// NewHandler creates a new tickets handler.
func NewHandler(service TicketService) *Handler {
	return &Handler{service: service}
}

// File creates a ticket (POST /api/tickets). Works with or without a
// session; the demo-bypassed guard injects one when present.
func (h *Handler) File(c echo.Context) error {
	var input TicketInput
	if err := c.Bind(&input); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	ticket, err := h.service.FileTicket(c.Request().Context(), auth.GetUserID(c), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ticket)
}

// MyTickets lists the signed-in member's tickets (GET /api/tickets/mine).
func (h *Handler) MyTickets(c echo.Context) error {
	tickets, err := h.service.MyTickets(c.Request().Context(), auth.GetUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"tickets": tickets})
}

// Get returns one ticket (GET /api/tickets/:id).
func (h *Handler) Get(c echo.Context) error {
	ticket, err := h.service.GetTicket(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ticket)
}

// Thread returns a ticket's replies (GET /api/tickets/:id/messages).
func (h *Handler) Thread(c echo.Context) error {
	messages, err := h.service.Thread(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"messages": messages})
}

// Reply appends to a ticket's thread (POST /api/tickets/:id/messages).
func (h *Handler) Reply(c echo.Context) error {
	var input MessageInput
	if err := c.Bind(&input); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	session := auth.GetSession(c)
	fromStaff := auth.HasRole(session, auth.RoleAdmin, auth.RoleSuperadmin)

	message, err := h.service.Reply(c.Request().Context(), c.Param("id"), auth.GetUserID(c), fromStaff, input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, message)
}

// --- Staff endpoints ---

// List returns a page of all tickets (GET /api/support/tickets?status=open).
func (h *Handler) List(c echo.Context) error {
	page := intQuery(c, "page", 1)
	perPage := intQuery(c, "per_page", 20)

	tickets, total, err := h.service.ListTickets(c.Request().Context(), c.QueryParam("status"), page, perPage)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"tickets": tickets,
		"total":   total,
		"page":    page,
	})
}

// Transition moves a ticket between statuses (POST /api/support/tickets/:id/status).
func (h *Handler) Transition(c echo.Context) error {
	var body struct {
		Status string `json:"status" form:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	ticket, err := h.service.Transition(c.Request().Context(), c.Param("id"), body.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ticket)
}

// intQuery reads an integer query parameter with a default.
func intQuery(c echo.Context, name string, def int) int {
	v := c.QueryParam(name)
	if v == "" {
		return def
	}
	var n int
	for _, r := range v {
		if r < '0' || r > '9' {
			return def
		}
		n = n*10 + int(r-'0')
		if n > 1_000_000 {
			return def
		}
	}
	return n
}
