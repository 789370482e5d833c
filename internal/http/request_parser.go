// Package http provides HTTP server and handler implementations.
//
// This file implements parsing of expense submissions, which arrive either as JSON or
// as form-encoded bodies.

package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"expensetracker/internal/intake"
)

const maxBodyBytes = 64 << 10

// errBodyTooLarge is returned for submissions over maxBodyBytes.
var errBodyTooLarge = errors.New("request body too large")

// RequestBodyParser reads a request body once and exposes its fields whether the body
// is JSON or form-encoded.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]json.RawMessage
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}

	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	var tooLarge *http.MaxBytesError
	if errors.As(p.err, &tooLarge) {
		p.err = errBodyTooLarge
	}
	return p
}

// Parse attempts to parse the body as JSON or form data. The Content-Type header
// decides; without one, a body starting with '{' is taken as JSON.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.looksJSON(trimmed) {
		p.jsonData = make(map[string]json.RawMessage)
		if err := json.Unmarshal(trimmed, &p.jsonData); err != nil {
			p.err = fmt.Errorf("malformed JSON body: %w", err)
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	if p.err != nil {
		p.err = fmt.Errorf("malformed form body: %w", p.err)
	}
	return p.err
}

func (p *RequestBodyParser) looksJSON(body []byte) bool {
	if mt, _, err := mime.ParseMediaType(p.contentType); err == nil {
		switch {
		case mt == "application/json" || strings.HasSuffix(mt, "+json"):
			return true
		case mt == "application/x-www-form-urlencoded":
			return false
		}
	}
	return body[0] == '{'
}

// Get returns a string value from the parsed data (JSON or form). JSON numbers are
// returned as their literal text so "20.50" and 20.50 read the same.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		raw, ok := p.jsonData[key]
		if !ok {
			return ""
		}
		return jsonScalar(raw)
	}
	if p.formData != nil {
		return p.formData.Get(key)
	}
	return ""
}

// Form collects the expense fields of the body.
func (p *RequestBodyParser) Form() intake.Form {
	return intake.Form{
		Amount:      p.Get(intake.FieldAmount),
		Category:    p.Get(intake.FieldCategory),
		Date:        p.Get(intake.FieldDate),
		Description: p.Get(intake.FieldDescription),
	}
}

// jsonScalar renders a JSON string, number or bool as plain text; anything else is
// treated as absent.
func jsonScalar(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '{', '[', 'n':
		return ""
	default:
		return string(raw)
	}
}

// ParseExpenseForm reads an expense submission from r.
func ParseExpenseForm(w http.ResponseWriter, r *http.Request) (intake.Form, error) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		return intake.Form{}, err
	}
	return p.Form(), nil
}
