package opn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pixelpay/topup/internal/charge/domain"
	"github.com/pixelpay/topup/internal/config"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Name() string {
	return "opn"
}

func (f *Factory) New(cfg config.PaymentConfig) (domain.Provider, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	secretKey := strings.TrimSpace(cfg.SecretKey)
	if baseURL == "" || secretKey == "" {
		return nil, domain.ErrInvalidConfig
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Provider{
		baseURL:   baseURL,
		secretKey: secretKey,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

// Provider talks to the Opn Payments (Omise) REST API. Charges are
// created with form-encoded requests authenticated by the secret key
// as basic-auth username.
type Provider struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

func (p *Provider) Name() string {
	return "opn"
}

func (p *Provider) CreateCardCharge(ctx context.Context, req domain.CreateCardChargeRequest) (*domain.Outcome, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.Amount, 10))
	form.Set("currency", strings.ToUpper(req.Currency))
	form.Set("card", req.CardToken)
	form.Set("metadata[transaction_id]", req.TransactionID)
	if req.Description != "" {
		form.Set("description", req.Description)
	}

	charge, err := p.post(ctx, "/charges", form)
	if err != nil {
		return nil, err
	}
	return decodeOutcome(charge), nil
}

func (p *Provider) CreateSourceCharge(ctx context.Context, req domain.CreateSourceChargeRequest) (*domain.Outcome, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.Amount, 10))
	form.Set("currency", strings.ToUpper(req.Currency))
	form.Set("source[type]", req.SourceType)
	form.Set("metadata[transaction_id]", req.TransactionID)
	if req.Description != "" {
		form.Set("description", req.Description)
	}
	if req.ReturnURL != "" {
		form.Set("return_uri", req.ReturnURL)
	}
	for key, value := range req.SourceOptions {
		form.Set(fmt.Sprintf("source[%s]", key), fmt.Sprint(value))
	}

	charge, err := p.post(ctx, "/charges", form)
	if err != nil {
		return nil, err
	}
	return decodeOutcome(charge), nil
}

func (p *Provider) GetCharge(ctx context.Context, chargeID string) (*domain.Outcome, error) {
	chargeID = strings.TrimSpace(chargeID)
	if chargeID == "" {
		return nil, domain.ErrChargeNotFound
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/charges/"+url.PathEscape(chargeID), nil)
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth(p.secretKey, "")

	charge, err := p.do(httpReq)
	if err != nil {
		return nil, err
	}
	return decodeOutcome(charge), nil
}

func (p *Provider) post(ctx context.Context, path string, form url.Values) (*chargeObject, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth(p.secretKey, "")
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return p.do(httpReq)
}

func (p *Provider) do(httpReq *http.Request) (*chargeObject, error) {
	resp, err := p.client.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, domain.ErrGatewayTimeout
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrGatewayError, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrChargeNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr errorObject
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("%w: %s (%s)", domain.ErrGatewayError, apiErr.Message, apiErr.Code)
		}
		return nil, fmt.Errorf("%w: http %d", domain.ErrGatewayError, resp.StatusCode)
	}

	var charge chargeObject
	if err := json.Unmarshal(body, &charge); err != nil {
		return nil, fmt.Errorf("%w: decode charge: %v", domain.ErrGatewayError, err)
	}
	if charge.ID == "" {
		return nil, fmt.Errorf("%w: charge id missing", domain.ErrGatewayError)
	}
	return &charge, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

type chargeObject struct {
	ID             string        `json:"id"`
	Status         string        `json:"status"`
	Paid           bool          `json:"paid"`
	AuthorizeURI   string        `json:"authorize_uri"`
	FailureCode    string        `json:"failure_code"`
	FailureMessage string        `json:"failure_message"`
	Source         *sourceObject `json:"source"`
}

type sourceObject struct {
	Type          string         `json:"type"`
	ScannableCode *scannableCode `json:"scannable_code"`
}

type scannableCode struct {
	Image *imageObject `json:"image"`
}

type imageObject struct {
	DownloadURI string `json:"download_uri"`
}

// decodeOutcome maps a charge object onto the outcome union. Failure
// wins over everything, then success, then the pending shapes in
// priority order: scannable QR code, redirect URL, raw status.
func decodeOutcome(charge *chargeObject) *domain.Outcome {
	outcome := &domain.Outcome{
		ChargeID:  charge.ID,
		RawStatus: charge.Status,
	}

	status := strings.ToLower(strings.TrimSpace(charge.Status))

	switch {
	case status == "failed" || charge.FailureCode != "":
		outcome.Kind = domain.OutcomeFailed
		outcome.FailureMessage = charge.FailureMessage
		if outcome.FailureMessage == "" {
			outcome.FailureMessage = charge.FailureCode
		}
	case status == "successful" || charge.Paid:
		outcome.Kind = domain.OutcomeSucceeded
	case qrPayload(charge) != "":
		outcome.Kind = domain.OutcomePendingQR
		outcome.QRPayload = qrPayload(charge)
	case charge.AuthorizeURI != "":
		outcome.Kind = domain.OutcomePendingRedirect
		outcome.RedirectURL = charge.AuthorizeURI
	default:
		outcome.Kind = domain.OutcomePendingUnknown
	}

	return outcome
}

func qrPayload(charge *chargeObject) string {
	if charge.Source == nil || charge.Source.ScannableCode == nil || charge.Source.ScannableCode.Image == nil {
		return ""
	}
	return charge.Source.ScannableCode.Image.DownloadURI
}

type errorObject struct {
	Object  string `json:"object"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
