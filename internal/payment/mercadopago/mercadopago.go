package mercadopago

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cupom-store/internal/constants"
	"github.com/cupom-store/internal/payment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrConfigInvalid    = errors.New("mercadopago config invalid")
	ErrRequestFailed    = errors.New("mercadopago request failed")
	ErrResponseInvalid  = errors.New("mercadopago response invalid")
	ErrSignatureInvalid = errors.New("mercadopago signature invalid")
	ErrNotFound         = payment.ErrPaymentNotFound
)

const (
	defaultBaseURL  = "https://api.mercadopago.com"
	defaultTimeout  = 10 * time.Second
	defaultCurrency = "BRL"
)

// Config Mercado Pago 接入配置
type Config struct {
	AccessToken     string
	BaseURL         string
	WebhookSecret   string
	NotificationURL string
	Timeout         time.Duration
}

// ValidateConfig 校验配置
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return fmt.Errorf("%w: access_token is required", ErrConfigInvalid)
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return fmt.Errorf("%w: base_url is invalid", ErrConfigInvalid)
	}
	return nil
}

func (c *Config) normalize() {
	c.AccessToken = strings.TrimSpace(c.AccessToken)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	c.WebhookSecret = strings.TrimSpace(c.WebhookSecret)
	c.NotificationURL = strings.TrimSpace(c.NotificationURL)
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Client Mercado Pago REST 客户端
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient 创建客户端，所有请求都带有超时
func NewClient(cfg Config) (*Client, error) {
	cfg.normalize()
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}, nil
}

// WebhookSecret 返回 Webhook 签名密钥
func (c *Client) WebhookSecret() string {
	return c.cfg.WebhookSecret
}

type identification struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

type payerBody struct {
	Email          string          `json:"email"`
	FirstName      string          `json:"first_name,omitempty"`
	Identification *identification `json:"identification,omitempty"`
}

type paymentBody struct {
	TransactionAmount float64   `json:"transaction_amount"`
	Description       string    `json:"description"`
	PaymentMethodID   string    `json:"payment_method_id"`
	Token             string    `json:"token,omitempty"`
	Installments      int       `json:"installments,omitempty"`
	Payer             payerBody `json:"payer"`
	ExternalReference string    `json:"external_reference"`
	NotificationURL   string    `json:"notification_url,omitempty"`
}

type paymentResponse struct {
	ID                json.Number `json:"id"`
	Status            string      `json:"status"`
	StatusDetail      string      `json:"status_detail"`
	ExternalReference string      `json:"external_reference"`
	TransactionAmount json.Number `json:"transaction_amount"`
	DateApproved      *time.Time  `json:"date_approved"`
	PointOfInteraction struct {
		TransactionData struct {
			QRCode       string `json:"qr_code"`
			QRCodeBase64 string `json:"qr_code_base64"`
			TicketURL    string `json:"ticket_url"`
		} `json:"transaction_data"`
	} `json:"point_of_interaction"`
}

// CreateCharge 创建 PIX 或信用卡扣款
func (c *Client) CreateCharge(ctx context.Context, input payment.ChargeInput) (*payment.ChargeResult, error) {
	if !input.Amount.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: amount must be positive", ErrConfigInvalid)
	}
	if strings.TrimSpace(input.ExternalReference) == "" {
		return nil, fmt.Errorf("%w: external_reference is required", ErrConfigInvalid)
	}
	body := paymentBody{
		TransactionAmount: input.Amount.Round(2).InexactFloat64(),
		Description:       input.Description,
		Payer:             payerBody{Email: input.Payer.Email, FirstName: input.Payer.FirstName},
		ExternalReference: input.ExternalReference,
		NotificationURL:   c.cfg.NotificationURL,
	}
	if input.Payer.CPF != "" {
		body.Payer.Identification = &identification{Type: "CPF", Number: input.Payer.CPF}
	}
	switch input.Method {
	case constants.CouponPayPix:
		body.PaymentMethodID = "pix"
	case constants.CouponPayCard:
		if strings.TrimSpace(input.CardToken) == "" {
			return nil, fmt.Errorf("%w: card token is required", ErrConfigInvalid)
		}
		body.PaymentMethodID = strings.TrimSpace(input.CardMethodID)
		body.Token = input.CardToken
		body.Installments = input.Installments
		if body.Installments <= 0 {
			body.Installments = 1
		}
	default:
		return nil, fmt.Errorf("%w: unsupported method %q", ErrConfigInvalid, input.Method)
	}

	idempotencyKey := input.IdempotencyKey
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}
	respBody, status, err := c.do(ctx, http.MethodPost, "/v1/payments", body, map[string]string{
		"X-Idempotency-Key": idempotencyKey,
	})
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("%w: create payment http %d: %s", ErrRequestFailed, status, truncate(respBody))
	}
	var resp paymentResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode payment failed", ErrResponseInvalid)
	}
	if resp.ID.String() == "" {
		return nil, fmt.Errorf("%w: payment id missing", ErrResponseInvalid)
	}
	data := resp.PointOfInteraction.TransactionData
	return &payment.ChargeResult{
		ID:           resp.ID.String(),
		Status:       ToPaymentStatus(resp.Status),
		StatusDetail: resp.StatusDetail,
		QRCode:       data.QRCode,
		QRCodeBase64: data.QRCodeBase64,
		TicketURL:    data.TicketURL,
	}, nil
}

// GetPayment 查询支付并转换为标准记录
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*payment.Status, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, fmt.Errorf("%w: payment id is required", ErrConfigInvalid)
	}
	respBody, status, err := c.do(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(paymentID), nil, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("%w: get payment http %d", ErrRequestFailed, status)
	}
	var resp paymentResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode payment failed", ErrResponseInvalid)
	}
	return toStatus(resp), nil
}

// SearchPaymentByReference 按外部引用查询最近一笔支付，没有时返回 nil
func (c *Client) SearchPaymentByReference(ctx context.Context, externalReference string) (*payment.Status, error) {
	if strings.TrimSpace(externalReference) == "" {
		return nil, fmt.Errorf("%w: external_reference is required", ErrConfigInvalid)
	}
	query := url.Values{}
	query.Set("external_reference", externalReference)
	query.Set("sort", "date_created")
	query.Set("criteria", "desc")
	respBody, status, err := c.do(ctx, http.MethodGet, "/v1/payments/search?"+query.Encode(), nil, nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("%w: search payment http %d", ErrRequestFailed, status)
	}
	var resp struct {
		Results []paymentResponse `json:"results"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode search failed", ErrResponseInvalid)
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	return toStatus(resp.Results[0]), nil
}

type preferenceItemBody struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

type preferenceBody struct {
	Items             []preferenceItemBody `json:"items"`
	BackURLs          map[string]string    `json:"back_urls,omitempty"`
	AutoReturn        string               `json:"auto_return,omitempty"`
	ExternalReference string               `json:"external_reference"`
	NotificationURL   string               `json:"notification_url,omitempty"`
	Payer             *payerBody           `json:"payer,omitempty"`
}

// CreateCheckoutPreference 创建托管结账偏好
func (c *Client) CreateCheckoutPreference(ctx context.Context, input payment.PreferenceInput) (*payment.PreferenceResult, error) {
	if len(input.Items) == 0 {
		return nil, fmt.Errorf("%w: items are required", ErrConfigInvalid)
	}
	body := preferenceBody{
		Items:             make([]preferenceItemBody, 0, len(input.Items)),
		ExternalReference: input.ExternalReference,
		NotificationURL:   c.cfg.NotificationURL,
	}
	for _, item := range input.Items {
		body.Items = append(body.Items, preferenceItemBody{
			ID:         item.ID,
			Title:      item.Title,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice.Round(2).InexactFloat64(),
			CurrencyID: defaultCurrency,
		})
	}
	if backURLs := buildBackURLs(input.BackURLs); len(backURLs) > 0 {
		body.BackURLs = backURLs
		if backURLs["success"] != "" {
			body.AutoReturn = "approved"
		}
	}
	if input.PayerEmail != "" {
		body.Payer = &payerBody{Email: input.PayerEmail}
	}

	respBody, status, err := c.do(ctx, http.MethodPost, "/checkout/preferences", body, nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("%w: create preference http %d: %s", ErrRequestFailed, status, truncate(respBody))
	}
	var resp struct {
		ID        string `json:"id"`
		InitPoint string `json:"init_point"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode preference failed", ErrResponseInvalid)
	}
	if resp.ID == "" || resp.InitPoint == "" {
		return nil, fmt.Errorf("%w: preference id or init_point missing", ErrResponseInvalid)
	}
	return &payment.PreferenceResult{ID: resp.ID, InitPoint: resp.InitPoint}, nil
}

// VerifyWebhookSignature 校验 x-signature 头
// 签名清单格式为 id:<data.id>;request-id:<x-request-id>;ts:<ts>;
func VerifyWebhookSignature(secret, signatureHeader, requestID, dataID string) error {
	if strings.TrimSpace(secret) == "" {
		return nil
	}
	ts, signatures := parseSignatureHeader(signatureHeader)
	if ts == "" || len(signatures) == 0 {
		return fmt.Errorf("%w: malformed x-signature", ErrSignatureInvalid)
	}
	expected := computeSignature(secret, ts, requestID, dataID)
	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}
	return ErrSignatureInvalid
}

func computeSignature(secret, ts, requestID, dataID string) string {
	var manifest strings.Builder
	if dataID != "" {
		manifest.WriteString("id:" + strings.ToLower(dataID) + ";")
	}
	if requestID != "" {
		manifest.WriteString("request-id:" + requestID + ";")
	}
	manifest.WriteString("ts:" + ts + ";")
	h := hmac.New(sha256.New, []byte(secret))
	_, _ = h.Write([]byte(manifest.String()))
	return hex.EncodeToString(h.Sum(nil))
}

func parseSignatureHeader(header string) (string, []string) {
	var ts string
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.TrimSpace(kv[0]) {
		case "ts":
			ts = strings.TrimSpace(kv[1])
		case "v1":
			if v := strings.ToLower(strings.TrimSpace(kv[1])); v != "" {
				signatures = append(signatures, v)
			}
		}
	}
	return ts, signatures
}

// ToPaymentStatus 将网关状态映射为标准状态
func ToPaymentStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "approved":
		return constants.GatewayStatusApproved
	case "pending":
		return constants.GatewayStatusPending
	case "in_process", "in_mediation", "authorized":
		return constants.GatewayStatusInProcess
	case "rejected":
		return constants.GatewayStatusRejected
	case "cancelled", "canceled":
		return constants.GatewayStatusCancelled
	case "refunded", "charged_back":
		return constants.GatewayStatusRefunded
	default:
		return constants.GatewayStatusUnknown
	}
}

func toStatus(resp paymentResponse) *payment.Status {
	amount, err := decimal.NewFromString(resp.TransactionAmount.String())
	if err != nil {
		amount = decimal.Zero
	}
	return &payment.Status{
		ID:                resp.ID.String(),
		Status:            ToPaymentStatus(resp.Status),
		StatusDetail:      resp.StatusDetail,
		ExternalReference: resp.ExternalReference,
		Amount:            amount,
		ApprovedAt:        resp.DateApproved,
	}
}

func buildBackURLs(urls payment.BackURLs) map[string]string {
	out := map[string]string{}
	if v := strings.TrimSpace(urls.Success); v != "" {
		out["success"] = v
	}
	if v := strings.TrimSpace(urls.Failure); v != "" {
		out["failure"] = v
	}
	if v := strings.TrimSpace(urls.Pending); v != "" {
		out["pending"] = v
	}
	return out
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}, headers map[string]string) ([]byte, int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: encode request failed", ErrRequestFailed)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read response failed", ErrResponseInvalid)
	}
	return body, resp.StatusCode, nil
}

func truncate(body []byte) string {
	const limit = 256
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..." + strconv.Itoa(len(body)-limit) + " more bytes"
}
