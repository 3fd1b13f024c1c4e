package pricing

import (
	"errors"
	"net/http"
	"time"

	"tourly/internal/catalog"
	"tourly/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	catalogService catalog.Service
}

func NewController(catalogService catalog.Service) *Controller {
	return &Controller{catalogService: catalogService}
}

// GetVariantPrices returns the resolved per-passenger-type prices for a
// variant on a given travel date.
func (ctrl *Controller) GetVariantPrices(c *gin.Context) {
	variantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid variant ID", nil, err.Error())
		return
	}

	raw := c.Query("date")
	if raw == "" {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Missing date query parameter", nil, "date is required, expected YYYY-MM-DD")
		return
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", nil, err.Error())
		return
	}

	variant, err := ctrl.catalogService.GetVariantWithPricing(c.Request.Context(), variantID)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrVariantNotFound):
			response.RespondJSON(c, "error", http.StatusNotFound, "Variant not found", nil, err.Error())
		default:
			response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to fetch variant", nil, err.Error())
		}
		return
	}

	prices := Resolve(variant, date)

	response.RespondJSON(c, "success", http.StatusOK, "Prices resolved successfully", gin.H{
		"variant_id":    variant.ID,
		"date":          date.Format("2006-01-02"),
		"currency_code": variant.CurrencyCode,
		"tax_inclusive": variant.TaxInclusive,
		"prices":        prices,
	}, nil)
}
