package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"rsvp/pkg/model"
	"strconv"
	"time"
)

const reservationsPath = "/api/v1/reservations"

// ReservationsClient talks to the reservations HTTP API.
type ReservationsClient struct {
	httpClient *HttpClient
}

func NewReservationsClient(baseURL string) *ReservationsClient {
	return &ReservationsClient{httpClient: NewHttpClient(baseURL)}
}

type ReserveRequest struct {
	UserID     string    `json:"user_id"`
	ResourceID string    `json:"resource_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Note       string    `json:"note,omitempty"`
}

type FilterResult struct {
	Data  []*model.Reservation `json:"data"`
	Pager model.FilterPager    `json:"pager"`
}

func (c *ReservationsClient) Reserve(ctx context.Context, req ReserveRequest) (*model.Reservation, error) {
	resp, err := c.httpClient.Do(ctx, http.MethodPost, reservationsPath, req)
	if err != nil {
		return nil, err
	}
	return decodeReservation(resp)
}

func (c *ReservationsClient) Confirm(ctx context.Context, id int64) (*model.Reservation, error) {
	resp, err := c.httpClient.Do(ctx, http.MethodPost, idPath(id)+"/confirm", nil)
	if err != nil {
		return nil, err
	}
	return decodeReservation(resp)
}

func (c *ReservationsClient) UpdateNote(ctx context.Context, id int64, note string) (*model.Reservation, error) {
	resp, err := c.httpClient.Do(ctx, http.MethodPatch, idPath(id), map[string]string{"note": note})
	if err != nil {
		return nil, err
	}
	return decodeReservation(resp)
}

func (c *ReservationsClient) Cancel(ctx context.Context, id int64) error {
	_, err := c.httpClient.Do(ctx, http.MethodDelete, idPath(id), nil)
	return err
}

func (c *ReservationsClient) Get(ctx context.Context, id int64) (*model.Reservation, error) {
	resp, err := c.httpClient.Do(ctx, http.MethodGet, idPath(id), nil)
	if err != nil {
		return nil, err
	}
	return decodeReservation(resp)
}

// Query reads the newline-delimited stream returned by the query endpoint.
func (c *ReservationsClient) Query(ctx context.Context, q model.ReservationQuery) ([]*model.Reservation, error) {
	v := url.Values{}
	setCommon(v, q.UserID, q.ResourceID, q.Status, q.PageSize, q.Desc)
	if q.Start != nil {
		v.Set("start", q.Start.UTC().Format(time.RFC3339Nano))
	}
	if q.End != nil {
		v.Set("end", q.End.UTC().Format(time.RFC3339Nano))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}

	resp, err := c.httpClient.Do(ctx, http.MethodGet, reservationsPath+"/query?"+v.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var out []*model.Reservation
	scanner := bufio.NewScanner(bytes.NewReader(resp.Body))
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var r model.Reservation
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, fmt.Errorf("decode reservation line: %w", err)
		}
		out = append(out, &r)
	}
	return out, scanner.Err()
}

func (c *ReservationsClient) Filter(ctx context.Context, f model.ReservationFilter) (*FilterResult, error) {
	v := url.Values{}
	setCommon(v, f.UserID, f.ResourceID, f.Status, f.PageSize, f.Desc)
	if f.Cursor > 0 {
		v.Set("cursor", strconv.FormatInt(f.Cursor, 10))
	}

	resp, err := c.httpClient.Do(ctx, http.MethodGet, reservationsPath+"/filter?"+v.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var out FilterResult
	if err := resp.DecodeJSON(&out); err != nil {
		return nil, fmt.Errorf("decode filter response: %w", err)
	}
	return &out, nil
}

func setCommon(v url.Values, userID, resourceID string, status model.ReservationStatus, pageSize int, desc bool) {
	if userID != "" {
		v.Set("user_id", userID)
	}
	if resourceID != "" {
		v.Set("resource_id", resourceID)
	}
	if status != model.StatusUnknown {
		v.Set("status", status.String())
	}
	if pageSize > 0 {
		v.Set("page_size", strconv.Itoa(pageSize))
	}
	if desc {
		v.Set("desc", "true")
	}
}

func idPath(id int64) string {
	return reservationsPath + "/id/" + strconv.FormatInt(id, 10)
}

func decodeReservation(resp *Response) (*model.Reservation, error) {
	var wrapper struct {
		Data *model.Reservation `json:"data"`
	}
	if err := resp.DecodeJSON(&wrapper); err != nil {
		return nil, fmt.Errorf("decode reservation: %w", err)
	}
	if wrapper.Data == nil {
		return nil, fmt.Errorf("decode reservation: empty data")
	}
	return wrapper.Data, nil
}

func (c *ReservationsClient) WaitForHealthy(ctx context.Context, maxWait time.Duration) error {
	return c.httpClient.WaitForHealthy(ctx, maxWait)
}
