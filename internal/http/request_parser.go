package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"fundledger/internal/core"
	"fundledger/internal/services"
)

// maxBodyBytes caps form and JSON submissions.
const maxBodyBytes = 64 << 10

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads at most maxBodyBytes of the body once and stores it for
// subsequent parsing.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}

	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	// Try JSON first if content looks like JSON
	if p.body[0] == '{' || p.body[0] == '[' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	// Fall back to form parsing
	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// GetRaw returns the raw body bytes.
func (p *RequestBodyParser) GetRaw() []byte {
	return p.body
}

// ContentType returns the Content-Type header value.
func (p *RequestBodyParser) ContentType() string {
	return p.contentType
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// Has reports whether key was submitted at all.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	if p.formData != nil {
		_, ok := p.formData[key]
		return ok
	}
	return false
}

// Amount parses key as a non-negative decimal amount.
func (p *RequestBodyParser) Amount(key string) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(p.Get(key))
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}

// errMalformed marks bodies that could not be decoded at all.
var errMalformed = errors.New("malformed request body")

// parseBody runs Parse and maps decoding failures to errMalformed.
func parseBody(p *RequestBodyParser) error {
	if err := p.Parse(); err != nil {
		return errors.Join(errMalformed, err)
	}
	return nil
}

// formValues echoes submitted fields back into a re-rendered form.
type formValues map[string]string

var (
	donationFields = []string{"name", "email", "phone", "project", "amount"}
	outflowFields  = []string{"name", "email", "phone", "project", "amount", "transaction_number", "mode"}
)

// submitted collects keys from a parsed body. Bodies that failed to parse
// yield empty values.
func submitted(p *RequestBodyParser, keys ...string) formValues {
	form := make(formValues, len(keys))
	for _, k := range keys {
		form[k] = p.Get(k)
	}
	if v, ok := form["transaction_number"]; ok && v == "" {
		form["transaction_number"] = p.Get("transactionNumber")
	}
	if v, ok := form["mode"]; ok {
		form["mode"] = strings.ToLower(v)
	}
	return form
}

// donationInput reads the public donation form. Amount problems are
// reported as core.ErrInvalidAmount so callers answer 422.
func donationInput(p *RequestBodyParser) (services.DonationInput, error) {
	if err := parseBody(p); err != nil {
		return services.DonationInput{}, err
	}
	amount, err := p.Amount("amount")
	if err != nil {
		return services.DonationInput{}, err
	}
	return services.DonationInput{
		Name:           p.Get("name"),
		Email:          p.Get("email"),
		Phone:          p.Get("phone"),
		Project:        p.Get("project"),
		Amount:         amount,
		IdempotencyKey: p.Get("idempotency_key"),
	}, nil
}

// outflowInput reads the member outflow form.
func outflowInput(p *RequestBodyParser) (services.OutflowInput, error) {
	if err := parseBody(p); err != nil {
		return services.OutflowInput{}, err
	}
	amount, err := p.Amount("amount")
	if err != nil {
		return services.OutflowInput{}, err
	}
	number := p.Get("transaction_number")
	if number == "" {
		number = p.Get("transactionNumber")
	}
	return services.OutflowInput{
		Name:              p.Get("name"),
		Email:             p.Get("email"),
		Phone:             p.Get("phone"),
		Project:           p.Get("project"),
		Amount:            amount,
		TransactionNumber: number,
		Mode:              core.PaymentMode(strings.ToLower(p.Get("mode"))),
		IdempotencyKey:    p.Get("idempotency_key"),
	}, nil
}
