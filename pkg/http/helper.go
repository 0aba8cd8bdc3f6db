package http

import (
	"encoding/json"
	"errors"
	"net/http"
	apperrors "rsvp/pkg/errors"
	"strconv"
	"strings"
	"time"
)

// DecodeJSON reads a single JSON object from the request body.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperrors.New(apperrors.CodeInvalidInput, "request body too large", http.StatusRequestEntityTooLarge)
		}
		return apperrors.InvalidInput("invalid JSON body: " + err.Error())
	}
	return nil
}

func QueryInt(r *http.Request, name string) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperrors.InvalidInput("invalid " + name + " parameter: " + s)
	}
	return v, nil
}

func QueryInt64(r *http.Request, name string) (int64, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, apperrors.InvalidInput("invalid " + name + " parameter: " + s)
	}
	return v, nil
}

func QueryBool(r *http.Request, name string) (bool, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, apperrors.InvalidInput("invalid " + name + " parameter: " + s)
	}
	return v, nil
}

// QueryTime parses an RFC3339 timestamp. A missing parameter yields nil.
func QueryTime(r *http.Request, name string) (*time.Time, error) {
	s := strings.TrimSpace(r.URL.Query().Get(name))
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, apperrors.BadRequest(apperrors.CodeInvalidTime, "invalid "+name+" parameter: "+s, err)
	}
	t = t.UTC()
	return &t, nil
}

func QueryString(r *http.Request, name string) string {
	return strings.TrimSpace(r.URL.Query().Get(name))
}
