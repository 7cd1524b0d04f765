package tasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/svbridge/internal/models"
	"github.com/desertthunder/svbridge/internal/resolver"
	"github.com/desertthunder/svbridge/internal/services"
	tu "github.com/desertthunder/svbridge/internal/testing"
)

// stubTasks fails task creation for the integrations listed in failFor.
type stubTasks struct {
	mu       sync.Mutex
	failFor  map[string]error
	requests map[string]resolver.TaskRequest
}

func (s *stubTasks) CreateTask(ctx context.Context, req resolver.TaskRequest) (*services.TaskCreated, error) {
	integration, _ := req.Config["integration_id"].(string)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.requests == nil {
		s.requests = map[string]resolver.TaskRequest{}
	}
	s.requests[integration] = req

	if err := s.failFor[integration]; err != nil {
		return nil, err
	}
	return &services.TaskCreated{TaskID: "task-" + integration, Status: "processing"}, nil
}

func targets(ids ...string) []BatchTarget {
	out := make([]BatchTarget, len(ids))
	for i, id := range ids {
		out[i] = BatchTarget{IntegrationID: id, Platform: "tiktok"}
	}
	return out
}

func TestTaskBatcher(t *testing.T) {
	tests := []struct {
		name           string
		failFor        map[string]error
		ids            []string
		expectSuccess  int
		expectFirstErr string
	}{
		{
			name:          "all succeed",
			ids:           []string{"a", "b", "c", "d", "e"},
			expectSuccess: 5,
		},
		{
			name:           "one failure does not stop the others",
			failFor:        map[string]error{"c": errors.New("c exploded")},
			ids:            []string{"a", "b", "c", "d", "e"},
			expectSuccess:  4,
			expectFirstErr: "c exploded",
		},
		{
			name: "first error follows request order",
			failFor: map[string]error{
				"b": errors.New("b exploded"),
				"e": errors.New("e exploded"),
			},
			ids:            []string{"a", "b", "c", "d", "e"},
			expectSuccess:  3,
			expectFirstErr: "b exploded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubTasks{failFor: tt.failFor}
			b := NewTaskBatcher(stub, 3, 1000, quietLogger())
			progress := make(chan ProgressUpdate, len(tt.ids))

			res := b.CreateTasks(context.Background(), BatchRequest{Integrations: targets(tt.ids...)}, nil, progress)

			if len(res.Outcomes) != len(tt.ids) {
				t.Fatalf("expected %d outcomes, got %d", len(tt.ids), len(res.Outcomes))
			}
			for i, o := range res.Outcomes {
				if o.IntegrationID != tt.ids[i] {
					t.Errorf("outcome %d: expected %s, got %s", i, tt.ids[i], o.IntegrationID)
				}
				if o.Err == nil && (o.TaskID != "task-"+o.IntegrationID || o.Status != models.TaskProcessing) {
					t.Errorf("unexpected outcome %+v", o)
				}
			}
			if got := len(res.Succeeded()); got != tt.expectSuccess {
				t.Errorf("expected %d successes, got %d", tt.expectSuccess, got)
			}

			err := res.FirstError()
			switch {
			case tt.expectFirstErr == "" && err != nil:
				t.Errorf("expected no error, got %v", err)
			case tt.expectFirstErr != "" && (err == nil || err.Error() != tt.expectFirstErr):
				t.Errorf("expected first error %q, got %v", tt.expectFirstErr, err)
			}
			if len(progress) != len(tt.ids) {
				t.Errorf("expected %d progress updates, got %d", len(tt.ids), len(progress))
			}
			if len(stub.requests) != len(tt.ids) {
				t.Errorf("expected every target attempted, got %d", len(stub.requests))
			}
		})
	}
}

func TestTaskBatcherEnvelope(t *testing.T) {
	stub := &stubTasks{}
	b := NewTaskBatcher(stub, 2, 1000, quietLogger())

	req := BatchRequest{
		Integrations: targets("a", "b"),
		Overrides: map[string]any{
			"idea":           "  Why cats purr  ",
			"targetDuration": "45",
		},
	}
	defaults := map[string]any{"tone": "calm", "video_duration": 30}

	res := b.CreateTasks(context.Background(), req, defaults, nil)
	if err := res.FirstError(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, id := range []string{"a", "b"} {
		got := stub.requests[id]
		if got.Idea != "Why cats purr" {
			t.Errorf("%s: unexpected idea %q", id, got.Idea)
		}
		if got.TargetPlatform != "tiktok" {
			t.Errorf("%s: unexpected target platform %v", id, got.TargetPlatform)
		}
		if got.Config["video_duration"] != float64(45) || got.Config["tone"] != "calm" {
			t.Errorf("%s: unexpected config %v", id, got.Config)
		}
	}
}

func TestTaskBatcherCancelled(t *testing.T) {
	stub := &stubTasks{}
	b := NewTaskBatcher(stub, 1, 0.001, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := b.CreateTasks(ctx, BatchRequest{Integrations: targets("a", "b", "c")}, nil, nil)
	if len(res.Outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(res.Outcomes))
	}
	for _, o := range res.Outcomes {
		if !errors.Is(o.Err, context.Canceled) {
			t.Errorf("%s: expected context.Canceled, got %v", o.IntegrationID, o.Err)
		}
	}
}

func TestTaskBatcherDeadline(t *testing.T) {
	stub := &stubTasks{}
	b := NewTaskBatcher(stub, 1, 1, quietLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	res := b.CreateTasks(ctx, BatchRequest{Integrations: targets("a", "b", "c")}, nil, nil)
	if ctx.Err() != nil {
		t.Fatalf("expected the batch to return before the deadline, got %v", ctx.Err())
	}
	if res.Outcomes[0].Err != nil || res.Outcomes[0].TaskID != "task-a" {
		t.Errorf("expected a to succeed, got %+v", res.Outcomes[0])
	}
	for _, o := range res.Outcomes[1:] {
		if o.Err == nil {
			t.Fatalf("%s: expected not-started error", o.IntegrationID)
		}
		if strings.Contains(o.Err.Error(), "%!") {
			t.Errorf("%s: malformed error %q", o.IntegrationID, o.Err)
		}
		if !strings.Contains(o.Err.Error(), "deadline") {
			t.Errorf("%s: expected the limiter's deadline error, got %q", o.IntegrationID, o.Err)
		}
	}
	if _, ok := stub.requests["b"]; ok {
		t.Error("expected b never to reach the generator")
	}
}

func TestTaskBatcherGenerator(t *testing.T) {
	fake := tu.NewFakeGenerator(t)
	gen := services.NewGenerator(fake.BaseURL, services.Timeouts{}, quietLogger())
	b := NewTaskBatcher(gen, 4, 1000, quietLogger())

	ids := make([]string, 6)
	for i := range ids {
		ids[i] = fmt.Sprintf("int-%d", i)
	}

	t.Run("creates one task per integration", func(t *testing.T) {
		res := b.CreateTasks(context.Background(), BatchRequest{Integrations: targets(ids...)}, nil, nil)
		if err := res.FirstError(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n := fake.CallCount(http.MethodPost, "/api/v1/tasks"); n != len(ids) {
			t.Errorf("expected %d task calls, got %d", len(ids), n)
		}

		seen := map[string]bool{}
		for _, o := range res.Outcomes {
			if o.TaskID == "" || seen[o.TaskID] {
				t.Errorf("expected unique task ids, got %q", o.TaskID)
			}
			seen[o.TaskID] = true
			if o.Status != models.TaskQueued {
				t.Errorf("expected queued, got %s", o.Status)
			}
		}

		for _, body := range fake.TaskRequests() {
			if body["schedule_type"] != "immediate" || body["workflow_type"] != "short_video" {
				t.Errorf("unexpected envelope %v", body)
			}
			if _, ok := body["scheduled_at"]; !ok {
				t.Error("expected explicit null scheduled_at")
			}
		}
	})

	t.Run("upstream rejection is per task", func(t *testing.T) {
		fake.FailOn(http.MethodPost, "/api/v1/tasks", http.StatusServiceUnavailable, map[string]any{"message": "busy"})

		res := b.CreateTasks(context.Background(), BatchRequest{Integrations: targets("x", "y")}, nil, nil)
		var upstream *services.UpstreamError
		if !errors.As(res.FirstError(), &upstream) {
			t.Fatalf("expected UpstreamError, got %v", res.FirstError())
		}
		if upstream.StatusCode != http.StatusServiceUnavailable || upstream.Message != "busy" {
			t.Errorf("unexpected upstream error %+v", upstream)
		}
		if len(res.Succeeded()) != 0 {
			t.Errorf("expected no successes, got %d", len(res.Succeeded()))
		}
	})
}
