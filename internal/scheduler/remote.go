package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/haasonsaas/shipyard/internal/domain"
)

var defaultRequestTimeout = 30 * time.Second

// Remote delegates schedule registration to the hosted jobs service. Used
// in cloud mode where the API nodes do not tick cron themselves.
type Remote struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewRemote builds a client for the jobs service.
func NewRemote(baseURL, apiKey string) *Remote {
	return &Remote{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}
}

type remoteJobPayload struct {
	ScheduleID     string `json:"scheduleId"`
	CronExpression string `json:"cronExpression"`
	ServiceType    string `json:"serviceType"`
	ServiceID      string `json:"serviceId"`
	Enabled        bool   `json:"enabled"`
}

// Create registers the schedule with the jobs service.
func (r *Remote) Create(ctx context.Context, s *domain.Schedule) error {
	return r.send(ctx, http.MethodPost, "/jobs", payloadFor(s))
}

// Update replaces the registration for an existing schedule.
func (r *Remote) Update(ctx context.Context, s *domain.Schedule) error {
	return r.send(ctx, http.MethodPut, "/jobs/"+s.ScheduleID, payloadFor(s))
}

// Remove drops the registration.
func (r *Remote) Remove(ctx context.Context, scheduleID string) error {
	return r.send(ctx, http.MethodDelete, "/jobs/"+scheduleID, nil)
}

// Run triggers the schedule immediately.
func (r *Remote) Run(ctx context.Context, scheduleID string) error {
	return r.send(ctx, http.MethodPost, "/jobs/"+scheduleID+"/run", nil)
}

func payloadFor(s *domain.Schedule) *remoteJobPayload {
	return &remoteJobPayload{
		ScheduleID:     s.ScheduleID,
		CronExpression: s.CronExpression,
		ServiceType:    s.ServiceType,
		ServiceID:      s.ServiceID,
		Enabled:        s.Enabled,
	}
}

func (r *Remote) send(ctx context.Context, method, path string, payload any) error {
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return fmt.Errorf("encode job payload: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, &body)
	if err != nil {
		return fmt.Errorf("create jobs request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", r.apiKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("jobs service request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("jobs service returned status %d", resp.StatusCode)
	}
	return nil
}
