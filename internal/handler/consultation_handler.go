package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Eursukkul/consultation-service/internal/dto"
	"github.com/Eursukkul/consultation-service/internal/models"
	"github.com/Eursukkul/consultation-service/internal/service"
	"github.com/labstack/echo/v4"
)

type ConsultationHandler struct {
	svc service.ConsultationService
	loc *time.Location
}

func NewConsultationHandler(svc service.ConsultationService, loc *time.Location) *ConsultationHandler {
	return &ConsultationHandler{svc: svc, loc: loc}
}

// RegisterRoutes mounts the consultation endpoints. Only the reference
// lookup used by the confirmation page is public.
func (h *ConsultationHandler) RegisterRoutes(api *echo.Group, auth echo.MiddlewareFunc) {
	g := api.Group("/consultations")
	g.GET("/ref/:ref", h.GetByReference)
	g.GET("/stats/overview", h.Stats, auth)
	g.GET("/:id", h.Get, auth)
	g.GET("", h.List, auth)
	g.PUT("/:id", h.Update, auth)
}

func (h *ConsultationHandler) GetByReference(c echo.Context) error {
	cons, err := h.svc.GetByReference(c.Request().Context(), c.Param("ref"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.ConsultationEnvelope{Success: true, Data: dto.ToConsultationResponse(cons)})
}

func (h *ConsultationHandler) Get(c echo.Context) error {
	cons, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.ConsultationEnvelope{Success: true, Data: dto.ToConsultationResponse(cons)})
}

func (h *ConsultationHandler) List(c echo.Context) error {
	filter := service.ListFilter{
		Page:  queryInt(c, "page"),
		Limit: queryInt(c, "limit"),
	}
	if s := strings.TrimSpace(c.QueryParam("status")); s != "" {
		st := models.ConsultationStatus(strings.ToLower(s))
		filter.Status = &st
	}
	if t := strings.TrimSpace(c.QueryParam("consultationType")); t != "" {
		ct := models.ConsultationType(strings.ToLower(t))
		filter.ConsultationType = &ct
	}

	items, total, err := h.svc.List(c.Request().Context(), filter)
	if err != nil {
		return toHTTPError(err)
	}

	page, limit := service.NormalizePage(filter.Page, filter.Limit)
	return c.JSON(http.StatusOK, dto.ConsultationListResponse{
		Success: true,
		Data:    dto.ToConsultationResponses(items),
		Pagination: dto.Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: service.Pages(total, limit),
		},
	})
}

func (h *ConsultationHandler) Update(c echo.Context) error {
	var req dto.UpdateConsultationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	patch, err := req.ToPatch(h.loc)
	if err != nil {
		return toHTTPError(err)
	}

	cons, err := h.svc.Update(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.ConsultationEnvelope{
		Success: true,
		Message: "Consultation updated successfully",
		Data:    dto.ToConsultationResponse(cons),
	})
}

func (h *ConsultationHandler) Stats(c echo.Context) error {
	st, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.StatsResponse{Success: true, Data: *st})
}

// queryInt returns 0 for a missing or malformed parameter.
func queryInt(c echo.Context, name string) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return 0
	}
	return n
}
