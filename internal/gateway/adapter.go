package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"tourly/internal/payments"
	"tourly/internal/shared/config"
	"tourly/pkg/logger"

	"github.com/google/uuid"
)

const (
	gatewayVersion = "2.1.0"
	createDateFmt  = "20060102150405"
)

// Client talks the gateway's redirect-and-callback protocol: building
// signed payment URLs, issuing refund API calls and charging stored
// payment profiles. It satisfies payments.Vault.
type Client struct {
	cfg    config.GatewayConfig
	signer *Signer
	http   *http.Client
	loc    *time.Location
	logger *logger.Logger
}

func NewClient(cfg config.GatewayConfig, log *logger.Logger) *Client {
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		loc = time.FixedZone("ICT", 7*3600)
	}
	return &Client{
		cfg:    cfg,
		signer: NewSigner(cfg.Secret),
		http:   &http.Client{Timeout: 30 * time.Second},
		loc:    loc,
		logger: log,
	}
}

// PaymentURLRequest describes one redirect payment attempt.
type PaymentURLRequest struct {
	BookingID uuid.UUID
	Amount    float64
	OrderInfo string
	ClientIP  string
	Locale    string
}

// BuildPaymentURL assembles the signed redirect URL the browser is sent to.
// Amounts are scaled by 100 per the gateway's integer convention.
func (c *Client) BuildPaymentURL(req PaymentURLRequest) (paymentURL, txnRef string) {
	now := time.Now().In(c.loc)
	txnRef = NewTxnRef(req.BookingID, now)

	locale := req.Locale
	if locale == "" {
		locale = "vn"
	}

	params := map[string]string{
		"vnp_Version":    gatewayVersion,
		"vnp_Command":    "pay",
		"vnp_TmnCode":    c.cfg.TmnCode,
		"vnp_Amount":     fmt.Sprintf("%.0f", req.Amount*100),
		"vnp_CurrCode":   "VND",
		"vnp_TxnRef":     txnRef,
		"vnp_OrderInfo":  req.OrderInfo,
		"vnp_OrderType":  "other",
		"vnp_Locale":     locale,
		"vnp_ReturnUrl":  c.cfg.ReturnURL,
		"vnp_IpAddr":     req.ClientIP,
		"vnp_CreateDate": now.Format(createDateFmt),
		"vnp_ExpireDate": now.Add(15 * time.Minute).Format(createDateFmt),
	}

	query := c.signer.Canonicalize(params)
	signature := c.signer.SignRaw(query)

	return c.cfg.PayURL + "?" + query + "&" + paramSecureHash + "=" + signature, txnRef
}

// VerifyCallback checks the signature on an inbound IPN or return request.
func (c *Client) VerifyCallback(query url.Values) (map[string]string, bool) {
	params := make(map[string]string, len(query))
	for key := range query {
		params[key] = query.Get(key)
	}
	return params, c.signer.Verify(params)
}

// Refund calls the gateway refund API. The signing input for refunds is a
// pipe-delimited string in a fixed field order, not the sorted query form.
func (c *Client) Refund(ctx context.Context, req payments.RefundRequest) error {
	now := time.Now().In(c.loc)
	requestID := uuid.New().String()
	txnRef := req.ChargeRef
	amount := fmt.Sprintf("%.0f", req.Amount*100)
	createDate := now.Format(createDateFmt)
	orderInfo := req.Reason
	if orderInfo == "" {
		orderInfo = "Refund booking " + req.BookingID.String()
	}

	const (
		command         = "refund"
		transactionType = "02" // full refund
		createBy        = "system"
		ipAddr          = "127.0.0.1"
	)

	signData := strings.Join([]string{
		requestID, gatewayVersion, command, c.cfg.TmnCode, transactionType,
		txnRef, amount, "", createDate, createBy, createDate, ipAddr, orderInfo,
	}, "|")

	body := map[string]string{
		"vnp_RequestId":       requestID,
		"vnp_Version":         gatewayVersion,
		"vnp_Command":         command,
		"vnp_TmnCode":         c.cfg.TmnCode,
		"vnp_TransactionType": transactionType,
		"vnp_TxnRef":          txnRef,
		"vnp_Amount":          amount,
		"vnp_TransactionNo":   "",
		"vnp_TransactionDate": createDate,
		"vnp_CreateBy":        createBy,
		"vnp_CreateDate":      createDate,
		"vnp_IpAddr":          ipAddr,
		"vnp_OrderInfo":       orderInfo,
		"vnp_SecureHash":      c.signer.SignRaw(signData),
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal refund request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build refund request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("refund call failed: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var result struct {
		ResponseCode string `json:"vnp_ResponseCode"`
		Message      string `json:"vnp_Message"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("unexpected refund response: %w", err)
	}
	if result.ResponseCode != "00" {
		return fmt.Errorf("gateway refused refund: code=%s message=%s", result.ResponseCode, result.Message)
	}

	c.logger.Info("gateway refund accepted",
		"booking_id", req.BookingID,
		"txn_ref", txnRef,
		"amount", req.Amount,
	)
	return nil
}

// Charge bills a stored payment profile through the gateway token API.
func (c *Client) Charge(ctx context.Context, req payments.ChargeRequest) (string, error) {
	now := time.Now().In(c.loc)
	requestID := uuid.New().String()
	txnRef := NewTxnRef(req.BookingID, now)
	amount := fmt.Sprintf("%.0f", req.Amount*100)

	body := map[string]string{
		"vnp_RequestId":  requestID,
		"vnp_Version":    gatewayVersion,
		"vnp_Command":    "token_pay",
		"vnp_TmnCode":    c.cfg.TmnCode,
		"vnp_Token":      req.CustomerRef,
		"vnp_TxnRef":     txnRef,
		"vnp_Amount":     amount,
		"vnp_CurrCode":   req.Currency,
		"vnp_OrderInfo":  req.Description,
		"vnp_CreateDate": now.Format(createDateFmt),
	}
	body[paramSecureHash] = c.signer.SignRaw(c.canonicalBody(body))

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal charge request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build charge request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("charge call failed: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var result struct {
		ResponseCode  string `json:"vnp_ResponseCode"`
		Message       string `json:"vnp_Message"`
		TransactionNo string `json:"vnp_TransactionNo"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("unexpected charge response: %w", err)
	}
	if result.ResponseCode != "00" {
		return "", fmt.Errorf("gateway refused charge: code=%s message=%s", result.ResponseCode, result.Message)
	}

	c.logger.Info("gateway charge accepted",
		"booking_id", req.BookingID,
		"txn_ref", txnRef,
		"amount", req.Amount,
	)
	return txnRef, nil
}

func (c *Client) canonicalBody(body map[string]string) string {
	keys := make([]string, 0, len(body))
	for key := range body {
		if key == paramSecureHash || key == paramSecureHashType {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, body[key])
	}
	return strings.Join(parts, "|")
}
