package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"finchat/internal/core"
)

// maxBodyBytes bounds every request body the handlers read.
const maxBodyBytes = 64 << 10

// maxMessageLength bounds chat messages and free-text fields.
const maxMessageLength = 2000

var (
	errInvalidID    = errors.New("invalid transaction id")
	errFieldTooLong = errors.New("field too long")
)

// TransactionInput is the validated content of the add and edit forms.
type TransactionInput struct {
	Kind        core.Kind
	Amount      float64
	Category    string
	Description string
}

// fieldGetter is satisfied by url.Values and *RequestBodyParser.
type fieldGetter interface {
	Get(key string) string
}

// ParseTransactionInput validates the kind/amount/category/description
// fields. A blank category becomes core.DefaultCategory.
func ParseTransactionInput(form fieldGetter) (TransactionInput, error) {
	kind, err := core.ParseKind(form.Get("kind"))
	if err != nil {
		return TransactionInput{}, err
	}
	amount, err := core.ParseAmount(form.Get("amount"))
	if err != nil {
		return TransactionInput{}, err
	}
	category := sanitizeInput(form.Get("category"))
	description := sanitizeInput(form.Get("description"))
	if len(category) > 100 || len(description) > maxMessageLength {
		return TransactionInput{}, errFieldTooLong
	}
	return TransactionInput{
		Kind:        kind,
		Amount:      amount,
		Category:    core.NormalizeCategory(category),
		Description: description,
	}, nil
}

// ParseID reads a positive transaction id.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", errInvalidID, s)
	}
	return id, nil
}

// inputErrorMessage turns a parse error into text safe to show the user.
func inputErrorMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidKind):
		return "Type must be Income or Expense."
	case errors.Is(err, core.ErrInvalidAmount):
		return "Amount must be a number greater than or equal to 0."
	case errors.Is(err, errInvalidID):
		return "Invalid transaction id."
	case errors.Is(err, errFieldTooLong):
		return "Category or description is too long."
	default:
		return "Invalid request."
	}
}

// RequestBodyParser reads form or JSON bodies for any method, including
// DELETE, which http.Request.ParseForm ignores.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	query    url.Values
	parsed   bool
	err      error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{query: r.URL.Query()}
	if r.Body != nil {
		p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	}
	return p
}

// Parse decodes the body as JSON when it looks like JSON, else as a form.
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

	trimmed := strings.TrimSpace(string(p.body))
	if strings.HasPrefix(trimmed, "{") {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a sanitized value from the body, falling back to the query string.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
	}
	if p.formData != nil {
		if v := p.formData.Get(key); v != "" {
			return sanitizeInput(v)
		}
	}
	return sanitizeInput(p.query.Get(key))
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// RequireMethod returns a 405 response unless the method is one of methods.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

func RequireDeleteOrPOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodDelete, http.MethodPost)
}

// ParseBodyOrFail parses the body and returns a 400 response on failure.
func ParseBodyOrFail(r *http.Request) (*RequestBodyParser, *HTMXResponseBuilder) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return nil, BadRequestError("Invalid request format.")
	}
	return p, nil
}
