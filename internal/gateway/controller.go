package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"tourly/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IPN acknowledgment codes defined by the gateway's retry protocol.
const (
	rspSuccess          = "00"
	rspOrderNotFound    = "01"
	rspAlreadyConfirmed = "02"
	rspInvalidAmount    = "04"
	rspInvalidSignature = "97"
	rspUnknownError     = "99"
)

var (
	// ErrBookingNotFound routes to IPN code 01.
	ErrBookingNotFound = errors.New("booking not found")
	// ErrAlreadySettled routes to IPN code 02.
	ErrAlreadySettled = errors.New("booking payment already settled")
	// ErrAmountMismatch routes to IPN code 04.
	ErrAmountMismatch = errors.New("callback amount does not match booking total")
)

// BookingPayments is the narrow contract the callback handlers need from
// the booking side; implemented by the bookings service.
type BookingPayments interface {
	// SettleGatewayPayment records the outcome of one gateway transaction.
	// success=false marks a failed attempt without settling.
	SettleGatewayPayment(ctx context.Context, bookingID uuid.UUID, txnRef string, amount float64, success bool) error
}

type Controller struct {
	client      *Client
	bookings    BookingPayments
	frontendURL string
	logger      *logger.Logger
}

func NewController(client *Client, bookings BookingPayments, frontendURL string, log *logger.Logger) *Controller {
	return &Controller{client: client, bookings: bookings, frontendURL: frontendURL, logger: log}
}

type ipnResponse struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

// HandleIPN is the server-to-server callback. The gateway retries until it
// receives a well-formed acknowledgment, so every outcome maps to a code
// rather than an HTTP error.
func (ctrl *Controller) HandleIPN(c *gin.Context) {
	params, valid := ctrl.client.VerifyCallback(c.Request.URL.Query())
	txnRef := params["vnp_TxnRef"]
	responseCode := params["vnp_ResponseCode"]

	ctrl.logger.LogGatewayCallback(c.Request.Context(), txnRef, responseCode, valid)

	if !valid {
		c.JSON(http.StatusOK, ipnResponse{RspCode: rspInvalidSignature, Message: "Invalid signature"})
		return
	}

	bookingID, err := BookingIDFromTxnRef(txnRef)
	if err != nil {
		c.JSON(http.StatusOK, ipnResponse{RspCode: rspOrderNotFound, Message: "Order not found"})
		return
	}

	amount := parseGatewayAmount(params["vnp_Amount"])
	success := responseCode == "00"

	err = ctrl.bookings.SettleGatewayPayment(c.Request.Context(), bookingID, txnRef, amount, success)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, ipnResponse{RspCode: rspSuccess, Message: "Confirm success"})
	case errors.Is(err, ErrBookingNotFound):
		c.JSON(http.StatusOK, ipnResponse{RspCode: rspOrderNotFound, Message: "Order not found"})
	case errors.Is(err, ErrAlreadySettled):
		c.JSON(http.StatusOK, ipnResponse{RspCode: rspAlreadyConfirmed, Message: "Order already confirmed"})
	case errors.Is(err, ErrAmountMismatch):
		c.JSON(http.StatusOK, ipnResponse{RspCode: rspInvalidAmount, Message: "Invalid amount"})
	default:
		ctrl.logger.ErrorWithContext(c.Request.Context(), "IPN settlement failed", err, map[string]interface{}{
			"txn_ref": txnRef,
		})
		c.JSON(http.StatusOK, ipnResponse{RspCode: rspUnknownError, Message: "Unknown error"})
	}
}

// HandleReturn is the browser redirect target. It forwards the customer to
// the frontend with outcome parameters; settlement itself belongs to the
// IPN path, the return page is informational.
func (ctrl *Controller) HandleReturn(c *gin.Context) {
	params, valid := ctrl.client.VerifyCallback(c.Request.URL.Query())
	txnRef := params["vnp_TxnRef"]
	responseCode := params["vnp_ResponseCode"]

	ctrl.logger.LogGatewayCallback(c.Request.Context(), txnRef, responseCode, valid)

	redirect, err := url.Parse(ctrl.frontendURL)
	if err != nil {
		c.String(http.StatusInternalServerError, "misconfigured frontend URL")
		return
	}
	redirect.Path = "/payment/result"

	query := url.Values{}
	query.Set("txnRef", txnRef)
	if !valid {
		query.Set("status", "invalid")
	} else if responseCode == "00" {
		query.Set("status", "success")
	} else {
		query.Set("status", "failed")
		query.Set("code", responseCode)
	}
	if bookingID, err := BookingIDFromTxnRef(txnRef); err == nil {
		query.Set("bookingId", bookingID.String())
	}
	redirect.RawQuery = query.Encode()

	c.Redirect(http.StatusFound, redirect.String())
}

// parseGatewayAmount unscales the gateway's integer ×100 amount convention.
func parseGatewayAmount(raw string) float64 {
	var scaled float64
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0
		}
		scaled = scaled*10 + float64(r-'0')
	}
	return scaled / 100
}
