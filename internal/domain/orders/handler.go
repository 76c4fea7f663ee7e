package orders

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicbase/labd/internal/platform/auth"
	"github.com/clinicbase/labd/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "physician", "nurse", "lab_tech", "cashier"))
	readGroup.GET("/lab-orders", h.ListOrders)
	readGroup.GET("/lab-orders/:id", h.GetOrder)
	readGroup.POST("/lab-orders/quote", h.Quote)

	writeGroup := api.Group("", auth.RequireRole("admin", "physician", "lab_tech"))
	writeGroup.POST("/lab-orders", h.CreateOrder)
	writeGroup.PUT("/lab-orders/:id", h.UpdateOrder)
	writeGroup.DELETE("/lab-orders/:id", h.DeleteOrder)
	writeGroup.PUT("/lab-orders/:id/status", h.SetStatus)
}

// issuesResponse is the structured 4xx body for rejected order requests.
type issuesResponse struct {
	Error  string       `json:"error"`
	Issues *OrderIssues `json:"issues"`
}

func (h *Handler) CreateOrder(c echo.Context) error {
	var req OrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	o, issues, err := h.svc.CreateOrder(c.Request().Context(), &req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if issues != nil {
		return c.JSON(http.StatusBadRequest, issuesResponse{Error: "order validation failed", Issues: issues})
	}
	return c.JSON(http.StatusCreated, o)
}

func (h *Handler) UpdateOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req OrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	o, issues, err := h.svc.UpdateOrder(c.Request().Context(), id, &req)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "lab order not found")
	}
	if issues != nil {
		return c.JSON(http.StatusBadRequest, issuesResponse{Error: "order validation failed", Issues: issues})
	}
	return c.JSON(http.StatusOK, o)
}

// Quote prices a request without persisting anything, for live totals in
// the order form.
func (h *Handler) Quote(c echo.Context) error {
	var req OrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	draft, issues, err := h.svc.Prepare(c.Request().Context(), &req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if issues != nil {
		return c.JSON(http.StatusBadRequest, issuesResponse{Error: "order validation failed", Issues: issues})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"requested_tests": draft.RequestedTests,
		"quote":           draft.Quote,
	})
}

func (h *Handler) GetOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	o, err := h.svc.GetOrder(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "lab order not found")
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) DeleteOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteOrder(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListOrders(c echo.Context) error {
	p := pagination.FromContext(c)
	if pid := c.QueryParam("patient_id"); pid != "" {
		patientID, err := uuid.Parse(pid)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		list, total, err := h.svc.ListOrdersByPatient(c.Request().Context(), patientID, p.Limit, p.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(list, total, p.Limit, p.Offset))
	}
	list, total, err := h.svc.ListOrders(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(list, total, p.Limit, p.Offset))
}

func (h *Handler) SetStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	o, err := h.svc.SetStatus(c.Request().Context(), id, body.Status)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, o)
}
