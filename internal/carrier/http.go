package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Vendor-mandated client identification headers. The mobile app sends these on
// every call and the API rejects requests without them.
const (
	headerUserAgent  = "okhttp/4.9.3"
	headerPlatform   = "android"
	headerAppVersion = "4.2.1"
	headerChannel    = "mobile"
)

const (
	pathLogin           = "/api/v1/auth/otp"
	pathVerify          = "/api/v1/auth/token"
	pathTransferRequest = "/api/v1/credit-transfer/request"
	pathTransferConfirm = "/api/v1/credit-transfer/confirm"
	pathVoucher         = "/api/v1/voucher/recharge"
	pathMessages        = "/api/v1/messages"
	pathBalance         = "/api/v1/balance"
)

// Login OTPs trigger a real SMS per call; keep a conservative outbound rate
// so a burst of customers cannot get the store's app identity throttled.
const loginRatePerMinute = 30

// HTTPClient implements Client against the vendor's application API.
type HTTPClient struct {
	httpClient   *http.Client
	baseURL      string
	loginLimiter *rate.Limiter
	logger       *slog.Logger
}

// NewHTTPClient builds a vendor client for the given base URL.
func NewHTTPClient(baseURL string, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		baseURL:      strings.TrimRight(baseURL, "/"),
		loginLimiter: rate.NewLimiter(rate.Every(time.Minute/loginRatePerMinute), 5),
		logger:       logger,
	}
}

// Login starts an OTP-gated vendor login for the given phone.
func (c *HTTPClient) Login(ctx context.Context, phone string) (LoginResult, error) {
	if err := c.loginLimiter.Wait(ctx); err != nil {
		return LoginResult{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	var resp struct {
		OTPToken string `json:"otp_token"`
		Message  string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, pathLogin, nil, map[string]string{"msisdn": phone}, &resp); err != nil {
		return LoginResult{}, err
	}
	if resp.OTPToken == "" {
		return LoginResult{}, &RejectedError{Message: resp.Message}
	}
	return LoginResult{ContinuationID: resp.OTPToken, Message: resp.Message}, nil
}

// VerifyOTP exchanges the login OTP for a bearer token.
func (c *HTTPClient) VerifyOTP(ctx context.Context, cred Credential, otp string) (string, error) {
	var resp struct {
		AccessToken string `json:"access_token"`
		Message     string `json:"message"`
	}
	payload := map[string]string{
		"otp_token": cred.ContinuationID,
		"otp":       otp,
		"device_id": cred.DeviceID,
	}
	if err := c.do(ctx, http.MethodPost, pathVerify, &cred, payload, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", &RejectedError{Message: resp.Message}
	}
	return resp.AccessToken, nil
}

// InitiateTransfer asks the vendor to start a balance transfer to destPhone.
func (c *HTTPClient) InitiateTransfer(ctx context.Context, cred Credential, destPhone string, amountIQD int64) error {
	var resp struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	payload := map[string]any{"msisdn": destPhone, "amount": amountIQD}
	if err := c.do(ctx, http.MethodPost, pathTransferRequest, &cred, payload, &resp); err != nil {
		return err
	}
	if resp.Status == "" {
		return &RejectedError{Message: resp.Message}
	}
	return nil
}

// ConfirmTransfer completes a transfer with the second OTP.
func (c *HTTPClient) ConfirmTransfer(ctx context.Context, cred Credential, otp string) error {
	var resp struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, pathTransferConfirm, &cred, map[string]string{"otp": otp}, &resp); err != nil {
		return err
	}
	if resp.Status == "" {
		return &RejectedError{Message: resp.Message}
	}
	return nil
}

// ApplyVoucher redeems a scratch voucher against the account.
func (c *HTTPClient) ApplyVoucher(ctx context.Context, cred Credential, code string) (VoucherResult, error) {
	var resp struct {
		Status  string `json:"status"`
		Amount  int64  `json:"amount"`
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, pathVoucher, &cred, map[string]string{"voucher": code}, &resp); err != nil {
		return VoucherResult{}, err
	}
	if resp.Status == "" {
		return VoucherResult{}, &RejectedError{Message: resp.Message}
	}
	return VoucherResult{AmountIQD: resp.Amount, Message: resp.Message}, nil
}

// FetchMessages lists a page of the account's message log.
func (c *HTTPClient) FetchMessages(ctx context.Context, cred Credential, page, size int) ([]Message, error) {
	var resp struct {
		Messages []struct {
			ID        string `json:"id"`
			Sender    string `json:"sender"`
			Body      string `json:"body"`
			CreatedAt string `json:"created_at"`
		} `json:"messages"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	path := fmt.Sprintf("%s?page=%d&size=%d", pathMessages, page, size)
	if err := c.do(ctx, http.MethodGet, path, &cred, nil, &resp); err != nil {
		return nil, err
	}
	if unauthorizedMarker(resp.Error) || unauthorizedMarker(resp.Message) {
		return nil, ErrUnauthorized
	}
	if resp.Messages == nil {
		return nil, &RejectedError{Message: resp.Message}
	}

	messages := make([]Message, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		sentAt, err := time.Parse(time.RFC3339, m.CreatedAt)
		if err != nil {
			// Leaves SentAt zero; consumers must not build dedupe keys from it.
			c.logger.Warn("unparseable message timestamp",
				"message_id", m.ID, "created_at", m.CreatedAt, "error", err)
		}
		messages = append(messages, Message{ID: m.ID, Sender: m.Sender, Body: m.Body, SentAt: sentAt})
	}
	return messages, nil
}

// Balance returns the account's IQD balance.
func (c *HTTPClient) Balance(ctx context.Context, cred Credential) (int64, error) {
	var resp struct {
		Balance *int64 `json:"balance"`
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodGet, pathBalance, &cred, nil, &resp); err != nil {
		return 0, err
	}
	if resp.Balance == nil {
		return 0, &RejectedError{Message: resp.Message}
	}
	return *resp.Balance, nil
}

// do executes one vendor call with the fixed header set plus per-account
// device id and bearer token, decoding the JSON response into out.
func (c *HTTPClient) do(ctx context.Context, method, path string, cred *Credential, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("User-Agent", headerUserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Platform", headerPlatform)
	req.Header.Set("X-App-Version", headerAppVersion)
	req.Header.Set("X-Channel", headerChannel)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cred != nil {
		if cred.DeviceID != "" {
			req.Header.Set("X-Device-Id", cred.DeviceID)
		}
		if cred.AccessToken != "" {
			req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: vendor returned status %d", ErrUnreachable, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUnreachable, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.logger.Warn("undecodable vendor response", "path", path, "error", err)
		return fmt.Errorf("%w: decode response: %v", ErrUnreachable, err)
	}
	return nil
}

func unauthorizedMarker(message string) bool {
	return message != "" && strings.Contains(strings.ToLower(message), "unauthorized")
}
