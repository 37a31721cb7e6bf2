// Package codec holds the value transforms applied at the JSON boundary of
// individual attribute fields. Each type decodes its wire representation
// into a native Go value and, where the API needs it, encodes it back.
//
// Malformed input is always rejected with a *FieldError. Substituting a zero
// value would silently corrupt identity comparisons downstream.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// FieldError reports wire data a codec could not decode
type FieldError struct {
	// Codec is the name of the failing transform (e.g. "id", "minutes")
	Codec string
	// Value is the offending raw JSON, truncated for display
	Value string
	// Err is the parse error, if any
	Err error
}

func (e *FieldError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s value %s: %v", e.Codec, e.Value, e.Err)
	}
	return fmt.Sprintf("invalid %s value %s", e.Codec, e.Value)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func fieldError(codec string, raw []byte, err error) *FieldError {
	value := string(raw)
	if len(value) > 64 {
		value = value[:64] + "..."
	}
	return &FieldError{Codec: codec, Value: value, Err: err}
}

// unquote requires raw to be a JSON string and returns its contents
func unquote(codec string, raw []byte) (string, error) {
	if len(raw) == 0 || raw[0] != '"' {
		return "", fieldError(codec, raw, fmt.Errorf("expected a JSON string"))
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fieldError(codec, raw, err)
	}
	return s, nil
}

func isNull(raw []byte) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// ID is an unsigned identifier carried on the wire as a decimal string
type ID uint64

// MarshalJSON encodes the ID as a quoted decimal string
func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(strconv.FormatUint(uint64(id), 10))), nil
}

// UnmarshalJSON decodes a quoted decimal string
func (id *ID) UnmarshalJSON(raw []byte) error {
	s, err := unquote("id", raw)
	if err != nil {
		return err
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fieldError("id", raw, err)
	}
	*id = ID(n)
	return nil
}

// StringFloat is a float carried on the wire as a string
type StringFloat float64

// MarshalJSON encodes the value as a quoted decimal
func (f StringFloat) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(strconv.FormatFloat(float64(f), 'f', -1, 64))), nil
}

// UnmarshalJSON decodes a quoted decimal
func (f *StringFloat) UnmarshalJSON(raw []byte) error {
	s, err := unquote("string float", raw)
	if err != nil {
		return err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fieldError("string float", raw, err)
	}
	*f = StringFloat(v)
	return nil
}

// Minutes is a duration carried on the wire as a whole number of minutes
type Minutes struct {
	time.Duration
}

// MinutesOf converts d, dropping any sub-minute part
func MinutesOf(d time.Duration) Minutes {
	return Minutes{Duration: d.Truncate(time.Minute)}
}

// MarshalJSON encodes the duration as an integer minute count
func (m Minutes) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(m.Duration/time.Minute), 10)), nil
}

// UnmarshalJSON decodes a signed integer minute count
func (m *Minutes) UnmarshalJSON(raw []byte) error {
	n, err := strconv.ParseInt(string(bytes.TrimSpace(raw)), 10, 64)
	if err != nil {
		return fieldError("minutes", raw, err)
	}
	m.Duration = time.Duration(n) * time.Minute
	return nil
}

// ImageSrc is an image URL wrapped on the wire as {"src": "..."}.
// It has no encoder of its own, so it encodes as a plain string.
type ImageSrc string

// UnmarshalJSON unwraps the src field
func (s *ImageSrc) UnmarshalJSON(raw []byte) error {
	if isNull(raw) || len(raw) == 0 || raw[0] != '{' {
		return fieldError("image", raw, fmt.Errorf("expected an object with a src field"))
	}
	var wrap struct {
		Src *string `json:"src"`
	}
	if err := json.Unmarshal(raw, &wrap); err != nil {
		return fieldError("image", raw, err)
	}
	if wrap.Src == nil {
		return fieldError("image", raw, fmt.Errorf("missing src"))
	}
	*s = ImageSrc(*wrap.Src)
	return nil
}

// DateLayout is the wire layout of calendar dates
const DateLayout = "2006-01-02"

// Date is a calendar date without time of day, stored at UTC midnight
type Date struct {
	time.Time
}

// NewDate returns the Date for the given calendar day
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// MarshalJSON encodes the date as "YYYY-MM-DD"
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.Format(DateLayout))), nil
}

// UnmarshalJSON decodes "YYYY-MM-DD"
func (d *Date) UnmarshalJSON(raw []byte) error {
	s, err := unquote("date", raw)
	if err != nil {
		return err
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return fieldError("date", raw, err)
	}
	d.Time = t
	return nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}
