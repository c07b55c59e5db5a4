package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"
)

var ErrInvalidBody = errors.New("invalid request body")

// DecodeBody decodes a JSON or form-encoded request body into dst.
// Form values are re-encoded as a flat JSON object of strings, so dst field
// types must accept string input (see FlexInt and FlexFloat).
func DecodeBody(r *http.Request, dst any) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == ContentTypeForm {
		if err := r.ParseForm(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidBody, err)
		}
		return decodeValues(r.PostForm, dst)
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return nil
}

// DecodeQuery decodes URL query parameters into dst the same way DecodeBody
// handles form bodies.
func DecodeQuery(r *http.Request, dst any) error {
	return decodeValues(r.URL.Query(), dst)
}

func decodeValues(values url.Values, dst any) error {
	flat := make(map[string]string, len(values))
	for key := range values {
		flat[key] = values.Get(key)
	}
	data, err := json.Marshal(flat)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return nil
}

// FlexInt accepts a JSON number or a numeric string. Empty strings and null
// decode to zero.
type FlexInt int

func (n *FlexInt) UnmarshalJSON(data []byte) error {
	raw, err := unquoteNumber(data)
	if err != nil || raw == "" {
		*n = 0
		return err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid integer %q", raw)
	}
	*n = FlexInt(v)
	return nil
}

// FlexFloat accepts a JSON number or a numeric string. Empty strings and null
// decode to zero. Inf and NaN spellings are rejected.
type FlexFloat float64

func (n *FlexFloat) UnmarshalJSON(data []byte) error {
	raw, err := unquoteNumber(data)
	if err != nil || raw == "" {
		*n = 0
		return err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return fmt.Errorf("invalid number %q", raw)
	}
	*n = FlexFloat(v)
	return nil
}

func unquoteNumber(data []byte) (string, error) {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return "", nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal([]byte(s), &str); err != nil {
			return "", err
		}
		return strings.TrimSpace(str), nil
	}
	return s, nil
}
