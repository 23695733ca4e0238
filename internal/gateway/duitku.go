package gateway

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Client is the outbound payment-gateway boundary. The concrete Duitku client
// is constructed once in main and injected into the payment service, so tests
// can swap in a double.
type Client interface {
	CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*CreatePaymentResponse, error)
	VerifyCallback(merchantCode, amount, merchantOrderID, signature string) bool
}

type CreatePaymentRequest struct {
	MerchantOrderID string
	PaymentAmount   int64
	ProductDetail   string
	Email           string
	PhoneNumber     string
	CustomerName    string
	ExpiryPeriod    int // minutes
}

type CreatePaymentResponse struct {
	PaymentURL    string
	Reference     string
	PaymentMethod string
}

type DuitkuClient struct {
	merchantCode string
	apiKey       string
	baseURL      string
	callbackURL  string
	returnURL    string
	httpClient   *http.Client
}

func NewDuitkuClient(merchantCode, apiKey, baseURL, callbackURL, returnURL string, timeout time.Duration) *DuitkuClient {
	return &DuitkuClient{
		merchantCode: merchantCode,
		apiKey:       apiKey,
		baseURL:      baseURL,
		callbackURL:  callbackURL,
		returnURL:    returnURL,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

type inquiryRequest struct {
	MerchantCode    string `json:"merchantCode"`
	PaymentAmount   int64  `json:"paymentAmount"`
	MerchantOrderID string `json:"merchantOrderId"`
	ProductDetails  string `json:"productDetails"`
	Email           string `json:"email"`
	PhoneNumber     string `json:"phoneNumber,omitempty"`
	CustomerVaName  string `json:"customerVaName,omitempty"`
	CallbackURL     string `json:"callbackUrl"`
	ReturnURL       string `json:"returnUrl"`
	Signature       string `json:"signature"`
	ExpiryPeriod    int    `json:"expiryPeriod"`
}

type inquiryResponse struct {
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
	Reference     string `json:"reference"`
	PaymentURL    string `json:"paymentUrl"`
	PaymentMethod string `json:"paymentMethod"`
}

// CreatePayment registers a payment intent with the gateway and returns the
// redirect URL. Any non-"00" status or transport failure is an error; the
// caller decides what happens to the local payment row.
func (d *DuitkuClient) CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*CreatePaymentResponse, error) {
	body := inquiryRequest{
		MerchantCode:    d.merchantCode,
		PaymentAmount:   req.PaymentAmount,
		MerchantOrderID: req.MerchantOrderID,
		ProductDetails:  req.ProductDetail,
		Email:           req.Email,
		PhoneNumber:     req.PhoneNumber,
		CustomerVaName:  req.CustomerName,
		CallbackURL:     d.callbackURL,
		ReturnURL:       d.returnURL,
		Signature:       d.requestSignature(req.MerchantOrderID, req.PaymentAmount),
		ExpiryPeriod:    req.ExpiryPeriod,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode gateway request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		d.baseURL+"/webapi/api/merchant/v2/inquiry", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build gateway request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned HTTP %d: %s", resp.StatusCode, raw)
	}

	var result inquiryResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}

	if result.StatusCode != "00" {
		return nil, fmt.Errorf("gateway rejected payment: %s (%s)", result.StatusMessage, result.StatusCode)
	}

	return &CreatePaymentResponse{
		PaymentURL:    result.PaymentURL,
		Reference:     result.Reference,
		PaymentMethod: result.PaymentMethod,
	}, nil
}

// VerifyCallback recomputes the callback signature. The provider signs
// callbacks with md5(merchantCode + amount + merchantOrderId + apiKey),
// which differs from the outbound request ordering.
func (d *DuitkuClient) VerifyCallback(merchantCode, amount, merchantOrderID, signature string) bool {
	expected := md5Hex(merchantCode + amount + merchantOrderID + d.apiKey)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

// requestSignature signs outbound requests with
// md5(merchantCode + merchantOrderId + paymentAmount + apiKey).
func (d *DuitkuClient) requestSignature(merchantOrderID string, amount int64) string {
	return md5Hex(d.merchantCode + merchantOrderID + strconv.FormatInt(amount, 10) + d.apiKey)
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
