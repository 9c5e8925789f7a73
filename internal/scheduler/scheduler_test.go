package scheduler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/haasonsaas/shipyard/internal/domain"
)

func TestValidateCron(t *testing.T) {
	valid := []string{"* * * * *", "0 3 * * *", "*/5 * * * *", "@daily", "0 0 3 * * *"}
	for _, expr := range valid {
		if err := ValidateCron(expr); err != nil {
			t.Errorf("ValidateCron(%q) = %v", expr, err)
		}
	}
	invalid := []string{"", "not a cron", "* * *", "61 * * * *"}
	for _, expr := range invalid {
		if err := ValidateCron(expr); err == nil {
			t.Errorf("ValidateCron(%q) accepted", expr)
		}
	}
}

func TestLocalRunsDueJobs(t *testing.T) {
	clock := time.Date(2026, 3, 1, 2, 59, 30, 0, time.UTC)
	var mu sync.Mutex
	ran := map[string]int{}

	local := NewLocal(func(ctx context.Context, s *domain.Schedule) error {
		mu.Lock()
		ran[s.ScheduleID]++
		mu.Unlock()
		return nil
	}, WithNow(func() time.Time { return clock }))

	ctx := context.Background()
	if err := local.Create(ctx, &domain.Schedule{
		ScheduleID: "s-1", CronExpression: "0 3 * * *", Enabled: true,
	}); err != nil {
		t.Fatal(err)
	}
	if err := local.Create(ctx, &domain.Schedule{
		ScheduleID: "s-disabled", CronExpression: "0 3 * * *", Enabled: false,
	}); err != nil {
		t.Fatal(err)
	}

	if n := local.RunOnce(ctx); n != 0 {
		t.Fatalf("nothing due yet, ran %d", n)
	}

	clock = clock.Add(time.Minute)
	if n := local.RunOnce(ctx); n != 1 {
		t.Fatalf("ran %d jobs, want 1", n)
	}
	if ran["s-1"] != 1 || ran["s-disabled"] != 0 {
		t.Errorf("ran = %v", ran)
	}

	// Rescheduled for tomorrow, not re-run on the next tick.
	if n := local.RunOnce(ctx); n != 0 {
		t.Fatalf("job re-ran within the same window")
	}
	next, ok := local.NextRun("s-1")
	if !ok || !next.After(clock) {
		t.Errorf("next run = %v ok=%v", next, ok)
	}
}

func TestLocalManualRunAndRemove(t *testing.T) {
	runs := 0
	local := NewLocal(func(ctx context.Context, s *domain.Schedule) error {
		runs++
		return nil
	})
	ctx := context.Background()

	if err := local.Create(ctx, &domain.Schedule{
		ScheduleID: "s-1", CronExpression: "@daily", Enabled: true,
	}); err != nil {
		t.Fatal(err)
	}
	if err := local.Run(ctx, "s-1"); err != nil {
		t.Fatal(err)
	}
	if runs != 1 {
		t.Fatalf("runs = %d", runs)
	}
	if err := local.Run(ctx, "missing"); err == nil {
		t.Error("unknown schedule must error")
	}
	if err := local.Remove(ctx, "s-1"); err != nil {
		t.Fatal(err)
	}
	if err := local.Run(ctx, "s-1"); err == nil {
		t.Error("removed schedule must error")
	}
}

func TestLocalRejectsBadExpression(t *testing.T) {
	local := NewLocal(func(ctx context.Context, s *domain.Schedule) error { return nil })
	err := local.Create(context.Background(), &domain.Schedule{
		ScheduleID: "s-1", CronExpression: "bogus", Enabled: true,
	})
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRemoteSendsAuthenticatedRequests(t *testing.T) {
	type seen struct {
		method, path, key string
		payload           remoteJobPayload
	}
	var calls []seen
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := seen{method: r.Method, path: r.URL.Path, key: r.Header.Get("X-API-Key")}
		json.NewDecoder(r.Body).Decode(&s.payload)
		calls = append(calls, s)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	remote := NewRemote(srv.URL+"/", "secret-key")
	ctx := context.Background()
	sched := &domain.Schedule{ScheduleID: "s-9", CronExpression: "0 3 * * *", ServiceType: "backup", ServiceID: "b-1", Enabled: true}

	if err := remote.Create(ctx, sched); err != nil {
		t.Fatal(err)
	}
	if err := remote.Update(ctx, sched); err != nil {
		t.Fatal(err)
	}
	if err := remote.Run(ctx, "s-9"); err != nil {
		t.Fatal(err)
	}
	if err := remote.Remove(ctx, "s-9"); err != nil {
		t.Fatal(err)
	}

	want := []struct{ method, path string }{
		{http.MethodPost, "/jobs"},
		{http.MethodPut, "/jobs/s-9"},
		{http.MethodPost, "/jobs/s-9/run"},
		{http.MethodDelete, "/jobs/s-9"},
	}
	if len(calls) != len(want) {
		t.Fatalf("calls = %+v", calls)
	}
	for i, w := range want {
		if calls[i].method != w.method || calls[i].path != w.path {
			t.Errorf("call %d = %s %s, want %s %s", i, calls[i].method, calls[i].path, w.method, w.path)
		}
		if calls[i].key != "secret-key" {
			t.Errorf("call %d missing api key", i)
		}
	}
	if calls[0].payload.CronExpression != "0 3 * * *" || calls[0].payload.ServiceType != "backup" {
		t.Errorf("create payload = %+v", calls[0].payload)
	}
}

func TestRemoteSurfacesServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	remote := NewRemote(srv.URL, "k")
	if err := remote.Remove(context.Background(), "s-1"); err == nil {
		t.Fatal("expected status error")
	}
}
