package bookings

import (
	"net/http"
	"strconv"

	"tourly/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Controller struct {
	service   Service
	validator *validator.Validate
}

func NewController(service Service) *Controller {
	return &Controller{
		service:   service,
		validator: validator.New(),
	}
}

func (ctrl *Controller) GetBooking(c *gin.Context) {
	actorID, actorRole, ok := actor(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	booking, err := ctrl.service.GetBooking(c.Request.Context(), actorID, actorRole, id)
	if err != nil {
		response.RespondError(c, "Failed to fetch booking", err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Booking fetched successfully", booking, nil)
}

func (ctrl *Controller) ListMyBookings(c *gin.Context) {
	actorID, _, ok := actor(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	bookings, total, err := ctrl.service.ListUserBookings(c.Request.Context(), actorID, limit, offset)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to fetch bookings", nil, err.Error())
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Bookings fetched successfully", gin.H{
		"bookings": bookings,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	}, nil)
}

func (ctrl *Controller) UpdateContact(c *gin.Context) {
	actorID, _, ok := actor(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}
	if err := ctrl.validator.Struct(req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	booking, err := ctrl.service.UpdateContact(c.Request.Context(), actorID, id, req)
	if err != nil {
		response.RespondError(c, "Failed to update contact details", err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Contact details saved", booking, nil)
}

func (ctrl *Controller) SelectPaymentMethod(c *gin.Context) {
	actorID, _, ok := actor(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	var req SelectPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}
	if err := ctrl.validator.Struct(req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	booking, err := ctrl.service.SelectPaymentMethod(c.Request.Context(), actorID, id, req)
	if err != nil {
		response.RespondError(c, "Failed to select payment method", err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Payment method selected", booking, nil)
}

func (ctrl *Controller) Confirm(c *gin.Context) {
	actorID, _, ok := actor(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	booking, err := ctrl.service.Confirm(c.Request.Context(), actorID, id)
	if err != nil {
		response.RespondError(c, "Failed to confirm booking", err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Booking confirmed", booking, nil)
}

func (ctrl *Controller) InitiatePayment(c *gin.Context) {
	actorID, _, ok := actor(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	paymentURL, err := ctrl.service.InitiateGatewayPayment(c.Request.Context(), actorID, id, c.ClientIP())
	if err != nil {
		response.RespondError(c, "Failed to initiate payment", err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Payment URL created", gin.H{"payment_url": paymentURL}, nil)
}

func (ctrl *Controller) Cancel(c *gin.Context) {
	actorID, _, ok := actor(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.Reason == "" {
		req.Reason = "Cancelled by customer"
	}

	booking, err := ctrl.service.Cancel(c.Request.Context(), actorID, id, req.Reason, CancelledByUser)
	if err != nil {
		response.RespondError(c, "Failed to cancel booking", err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Booking cancelled", booking, nil)
}

func (ctrl *Controller) SupplierAccept(c *gin.Context) {
	actorID, actorRole, ok := actor(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	booking, err := ctrl.service.SupplierAccept(c.Request.Context(), actorID, actorRole, id)
	if err != nil {
		response.RespondError(c, "Failed to accept booking", err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Booking accepted", booking, nil)
}

func (ctrl *Controller) SupplierReject(c *gin.Context) {
	actorID, actorRole, ok := actor(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	booking, err := ctrl.service.SupplierReject(c.Request.Context(), actorID, actorRole, id, req.Reason)
	if err != nil {
		response.RespondError(c, "Failed to reject booking", err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Booking rejected", booking, nil)
}

// actor pulls the authenticated identity set by the JWT middleware.
func actor(c *gin.Context) (uuid.UUID, string, bool) {
	rawID, exists := c.Get("user_id")
	if !exists {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Authentication required", nil, "missing identity")
		return uuid.Nil, "", false
	}
	id, err := uuid.Parse(rawID.(string))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Authentication required", nil, "invalid identity")
		return uuid.Nil, "", false
	}
	role, _ := c.Get("user_role")
	roleStr, _ := role.(string)
	return id, roleStr, true
}
