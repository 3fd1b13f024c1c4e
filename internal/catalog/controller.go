package catalog

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"tourly/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

func (ctrl *Controller) ListTours(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	tours, total, err := ctrl.service.ListTours(c.Request.Context(), limit, offset)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to fetch tours", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Tours fetched successfully", gin.H{
		"tours":  tours,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	}, nil)
}

func (ctrl *Controller) GetTour(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid tour ID", nil, err.Error())
		return
	}

	tour, err := ctrl.service.GetTour(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrTourNotFound):
			response.RespondJSON(c, "error", http.StatusNotFound, "Tour not found", nil, err.Error())
		default:
			response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to fetch tour", nil, err.Error())
		}
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Tour fetched successfully", tour, nil)
}

func (ctrl *Controller) GetVariant(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid variant ID", nil, err.Error())
		return
	}

	variant, err := ctrl.service.GetVariant(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrVariantNotFound):
			response.RespondJSON(c, "error", http.StatusNotFound, "Variant not found", nil, err.Error())
		default:
			response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to fetch variant", nil, err.Error())
		}
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Variant fetched successfully", variant, nil)
}

func (ctrl *Controller) ListSessions(c *gin.Context) {
	variantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid variant ID", nil, err.Error())
		return
	}

	now := time.Now().UTC()
	from := now
	to := now.AddDate(0, 3, 0)

	if raw := c.Query("from"); raw != "" {
		if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			from = parsed
		} else {
			response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid from date, expected YYYY-MM-DD", nil, err.Error())
			return
		}
	}
	if raw := c.Query("to"); raw != "" {
		if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			to = parsed
		} else {
			response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid to date, expected YYYY-MM-DD", nil, err.Error())
			return
		}
	}

	sessions, err := ctrl.service.ListSessions(c.Request.Context(), variantID, from, to)
	if err != nil {
		switch {
		case errors.Is(err, ErrVariantNotFound):
			response.RespondJSON(c, "error", http.StatusNotFound, "Variant not found", nil, err.Error())
		default:
			response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to fetch sessions", nil, err.Error())
		}
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Sessions fetched successfully", gin.H{"sessions": sessions}, nil)
}
