package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/svbridge/internal/models"
	"github.com/desertthunder/svbridge/internal/repositories"
	"github.com/desertthunder/svbridge/internal/services"
	"github.com/desertthunder/svbridge/internal/shared"
	tu "github.com/desertthunder/svbridge/internal/testing"
)

type testEnv struct {
	fake         *tu.FakeGenerator
	srv          *httptest.Server
	configs      *repositories.ConfigStore
	integrations *repositories.IntegrationRepository
}

func setupServer(t *testing.T, baseURL services.BaseURLFunc) *testEnv {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := shared.NewLogger(io.Discard)
	fake := tu.NewFakeGenerator(t)
	if baseURL == nil {
		baseURL = fake.BaseURL
	}

	env := &testEnv{
		fake:         fake,
		configs:      repositories.NewConfigStore(repositories.NewSetsRepository(db), logger),
		integrations: repositories.NewIntegrationRepository(db),
	}
	s := New(Deps{
		Generator:    services.NewGenerator(baseURL, services.Timeouts{}, logger),
		BaseURL:      baseURL,
		Configs:      env.configs,
		Integrations: env.integrations,
		Logger:       logger,
	})
	env.srv = httptest.NewServer(s.Handler())
	t.Cleanup(env.srv.Close)
	return env
}

// call sends a request as org-1 and decodes the JSON answer.
func (e *testEnv) call(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	return e.callAs(t, "org-1", method, path, body)
}

func (e *testEnv) callAs(t *testing.T, org, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.srv.URL+path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if org != "" {
		req.Header.Set(OrganizationHeader, org)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	out := map[string]any{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && err != io.EOF {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp.StatusCode, out
}

func (e *testEnv) addIntegration(t *testing.T, i models.Integration) {
	t.Helper()
	if i.OrganizationID == "" {
		i.OrganizationID = "org-1"
	}
	if err := e.integrations.Upsert(context.Background(), &i); err != nil {
		t.Fatalf("failed to add integration: %v", err)
	}
}

func TestServerOrganization(t *testing.T) {
	env := setupServer(t, nil)

	status, body := env.callAs(t, "", http.MethodGet, "/short-video/personas", nil)
	if status != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", status)
	}
	if body["message"] != "Unauthorized" {
		t.Errorf("unexpected message %v", body["message"])
	}
	if len(env.fake.Calls()) != 0 {
		t.Error("expected no generator call")
	}
}

func TestCreateTasks(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects empty integrations", func(t *testing.T) {
		env := setupServer(t, nil)
		status, body := env.call(t, http.MethodPost, "/short-video/tasks", map[string]any{"integrations": []any{}})
		if status != http.StatusBadRequest || body["message"] != "No integrations provided" {
			t.Errorf("unexpected answer %d %v", status, body)
		}
	})

	t.Run("rejects targets without an integration id", func(t *testing.T) {
		env := setupServer(t, nil)
		status, body := env.call(t, http.MethodPost, "/short-video/tasks", map[string]any{
			"integrations": []any{map[string]any{"platform": "tiktok"}},
		})
		if status != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", status)
		}
		if msg, _ := body["message"].(string); !strings.Contains(msg, "required") {
			t.Errorf("unexpected message %q", msg)
		}
	})

	t.Run("creates one task per integration over stored defaults", func(t *testing.T) {
		env := setupServer(t, nil)
		if err := env.configs.Save(ctx, "org-1", "", map[string]any{"tone": "calm", "video_duration": 30}); err != nil {
			t.Fatalf("failed to store defaults: %v", err)
		}

		status, body := env.call(t, http.MethodPost, "/short-video/tasks", map[string]any{
			"integrations": []any{
				map[string]any{"integrationId": "int-1", "platform": "tiktok"},
				map[string]any{"integrationId": "int-2", "platform": "youtube"},
			},
			"overrides": map[string]any{"idea": "Why cats purr", "targetDuration": 45},
		})
		if status != http.StatusOK {
			t.Fatalf("expected 200, got %d (%v)", status, body)
		}

		list, _ := body["tasks"].([]any)
		if len(list) != 2 {
			t.Fatalf("expected 2 tasks, got %v", body["tasks"])
		}
		first := list[0].(map[string]any)
		if first["integrationId"] != "int-1" || first["status"] != "queued" || first["id"] == "" {
			t.Errorf("unexpected task %v", first)
		}

		for _, req := range env.fake.TaskRequests() {
			cfg := req["config"].(map[string]any)
			if cfg["tone"] != "calm" || cfg["video_duration"] != float64(45) {
				t.Errorf("unexpected config %v", cfg)
			}
			if req["idea"] != "Why cats purr" {
				t.Errorf("unexpected idea %v", req["idea"])
			}
		}
	})

	t.Run("passes upstream rejections through", func(t *testing.T) {
		env := setupServer(t, nil)
		env.fake.FailOn(http.MethodPost, "/api/v1/tasks", http.StatusUnprocessableEntity, map[string]any{"detail": "bad idea"})

		status, body := env.call(t, http.MethodPost, "/short-video/tasks", map[string]any{
			"integrations": []any{map[string]any{"integrationId": "int-1", "platform": "tiktok"}},
		})
		if status != http.StatusUnprocessableEntity || body["message"] != "bad idea" {
			t.Errorf("unexpected answer %d %v", status, body)
		}
	})

	t.Run("fails fast without a generator url", func(t *testing.T) {
		t.Setenv("SVBRIDGE_TEST_GENERATOR_URL", "")
		cfg := shared.DefaultConfig()
		cfg.Generator.BaseURLEnv = "SVBRIDGE_TEST_GENERATOR_URL"
		env := setupServer(t, cfg.GeneratorBaseURL)

		status, body := env.call(t, http.MethodPost, "/short-video/tasks", map[string]any{
			"integrations": []any{map[string]any{"integrationId": "int-1", "platform": "tiktok"}},
		})
		want := "SVBRIDGE_TEST_GENERATOR_URL is not configured. Please set it in the environment variables."
		if status != http.StatusInternalServerError || body["message"] != want {
			t.Errorf("unexpected answer %d %v", status, body)
		}
		if len(env.fake.Calls()) != 0 {
			t.Error("expected no generator call")
		}
	})
}

func TestGetTask(t *testing.T) {
	env := setupServer(t, nil)
	env.fake.AddTask(map[string]any{
		"id":     "t1",
		"status": "cancelling",
		"output_data": map[string]any{
			"video_path":     "/videos/t1.mp4",
			"video_sequence": []any{"a", "b"},
		},
	})

	t.Run("normalizes the task", func(t *testing.T) {
		status, body := env.call(t, http.MethodGet, "/short-video/tasks/t1", nil)
		if status != http.StatusOK {
			t.Fatalf("expected 200, got %d", status)
		}
		if body["id"] != "t1" || body["status"] != "failed" || body["videoUrl"] != "/videos/t1.mp4" {
			t.Errorf("unexpected task %v", body)
		}
		if seq, _ := body["videoSequence"].([]any); len(seq) != 2 {
			t.Errorf("expected video sequence, got %v", body["videoSequence"])
		}
		if raw, _ := body["raw"].(map[string]any); raw["status"] != "cancelling" {
			t.Errorf("expected raw body, got %v", body["raw"])
		}
	})

	t.Run("missing task keeps the upstream status", func(t *testing.T) {
		status, body := env.call(t, http.MethodGet, "/short-video/tasks/nope", nil)
		if status != http.StatusNotFound || body["message"] != "Task not found" {
			t.Errorf("unexpected answer %d %v", status, body)
		}
	})
}

func TestProxyRoutes(t *testing.T) {
	env := setupServer(t, nil)

	tests := []struct {
		name      string
		method    string
		path      string
		body      any
		wantPath  string
		wantQuery []string
	}{
		{"personas", http.MethodGet, "/short-video/personas?status=active&page=&junk=1", nil, "/api/v1/personas", []string{"status=active"}},
		{"persona update", http.MethodPut, "/short-video/personas/p1", map[string]any{"name": "Ann"}, "/api/v1/personas/p1", nil},
		{"tasks", http.MethodGet, "/short-video/tasks?integration_id=int-1&limit=5", nil, "/api/v1/tasks", []string{"integration_id=int-1", "limit=5"}},
		{"trigger", http.MethodPost, "/short-video/tasks/t9/trigger", nil, "/api/v1/tasks/t9/trigger", nil},
		{"prompts", http.MethodGet, "/short-video/prompts/items?name=voice_script&is_active=", nil, "/api/v1/prompts/items", []string{"name=voice_script", "is_active="}},
		{"books", http.MethodGet, "/short-video/book-catalog/books/for-selection?category=history&require_toc=true", nil, "/api/v1/book-catalog/books/for-selection", []string{"category=history", "require_toc=true"}},
		{"topics", http.MethodPost, "/short-video/topics/discover", map[string]any{"seed": "space"}, "/api/v1/topics/discover", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, echo := env.call(t, tt.method, tt.path, tt.body)
			if status != http.StatusOK {
				t.Fatalf("expected 200, got %d (%v)", status, echo)
			}
			if echo["method"] != tt.method || echo["path"] != tt.wantPath {
				t.Errorf("unexpected upstream call %v %v", echo["method"], echo["path"])
			}

			query, _ := echo["query"].(string)
			for _, q := range tt.wantQuery {
				if !strings.Contains(query, q) {
					t.Errorf("expected %q in query %q", q, query)
				}
			}
			if strings.Contains(query, "junk") || strings.Contains(query, "page") {
				t.Errorf("unexpected parameter forwarded: %q", query)
			}
			if tt.body != nil {
				if got, _ := echo["body"].(map[string]any); len(got) == 0 {
					t.Errorf("expected body forwarded, got %v", echo["body"])
				}
			}
		})
	}
}

func TestSyncRoutes(t *testing.T) {
	t.Run("creates and reuses a linked account", func(t *testing.T) {
		env := setupServer(t, nil)
		env.addIntegration(t, models.Integration{ID: "int-1", Name: "Main", ProviderIdentifier: "tiktok", InternalID: "T1"})

		status, body := env.call(t, http.MethodPost, "/short-video/sync-platform-account", map[string]any{"integration_id": " int-1 "})
		if status != http.StatusOK || body["ok"] != true {
			t.Fatalf("unexpected answer %d %v", status, body)
		}
		id := body["platform_account_id"]

		status, body = env.call(t, http.MethodPost, "/short-video/integrations/int-1/sync", nil)
		if status != http.StatusOK || body["platform_account_id"] != id {
			t.Errorf("expected the same account, got %d %v", status, body)
		}
		if env.fake.Accounts() != 1 {
			t.Errorf("expected one account, got %d", env.fake.Accounts())
		}
	})

	t.Run("requires an integration id", func(t *testing.T) {
		env := setupServer(t, nil)
		status, body := env.call(t, http.MethodPost, "/short-video/sync-platform-account", map[string]any{"integration_id": "  "})
		if status != http.StatusBadRequest || body["message"] != "integration_id is required" {
			t.Errorf("unexpected answer %d %v", status, body)
		}
	})

	t.Run("unknown or foreign integration is 404", func(t *testing.T) {
		env := setupServer(t, nil)
		env.addIntegration(t, models.Integration{ID: "int-2", OrganizationID: "org-2", ProviderIdentifier: "tiktok"})

		for _, id := range []string{"missing", "int-2"} {
			status, body := env.call(t, http.MethodPost, "/short-video/sync-platform-account", map[string]any{"integration_id": id})
			if status != http.StatusNotFound || body["message"] != "Integration not found" {
				t.Errorf("%s: unexpected answer %d %v", id, status, body)
			}
		}
	})

	t.Run("unsupported provider reports the reason", func(t *testing.T) {
		env := setupServer(t, nil)
		env.addIntegration(t, models.Integration{ID: "int-3", ProviderIdentifier: "unknown-cms"})

		status, body := env.call(t, http.MethodPost, "/short-video/integrations/int-3/sync", nil)
		if status != http.StatusInternalServerError || body["message"] != "provider not supported: unknown-cms" {
			t.Errorf("unexpected answer %d %v", status, body)
		}
	})

	t.Run("missing generator url reports the corrective message", func(t *testing.T) {
		t.Setenv("SVBRIDGE_TEST_GENERATOR_URL", "")
		cfg := shared.DefaultConfig()
		cfg.Generator.BaseURLEnv = "SVBRIDGE_TEST_GENERATOR_URL"
		env := setupServer(t, cfg.GeneratorBaseURL)
		env.addIntegration(t, models.Integration{ID: "int-1", ProviderIdentifier: "tiktok"})

		status, body := env.call(t, http.MethodPost, "/short-video/sync-platform-account", map[string]any{"integration_id": "int-1"})
		want := "SVBRIDGE_TEST_GENERATOR_URL is not configured. Please set it in the environment variables."
		if status != http.StatusInternalServerError || body["message"] != want {
			t.Errorf("unexpected answer %d %v", status, body)
		}
	})

	t.Run("cascade reports per-account outcomes", func(t *testing.T) {
		env := setupServer(t, nil)
		linked := map[string]any{"postiz": map[string]any{"integration_id": "int-1"}}
		a := env.fake.AddAccount(map[string]any{"platform": "tiktok", "config": linked})
		b := env.fake.AddAccount(map[string]any{"platform": "tiktok", "config": map[string]any{"postiz": map[string]any{"integration_id": "int-1"}}})
		env.fake.FailOn(http.MethodDelete, "/api/v1/platform-accounts/"+b, http.StatusInternalServerError, map[string]any{"detail": "locked"})
		ctx := context.Background()
		for _, id := range []string{a, b} {
			if err := env.configs.Save(ctx, "org-1", id, map[string]any{"tone": "calm"}); err != nil {
				t.Fatalf("failed to store config: %v", err)
			}
		}

		status, body := env.call(t, http.MethodDelete, "/short-video/integrations/int-1/platform-accounts", nil)
		if status != http.StatusOK {
			t.Fatalf("expected 200, got %d (%v)", status, body)
		}
		if body["deleted"] != float64(1) {
			t.Errorf("expected 1 deleted, got %v", body["deleted"])
		}
		failed, _ := body["failed"].([]any)
		if len(failed) != 1 || failed[0].(map[string]any)["message"] != "locked" {
			t.Errorf("unexpected failures %v", body["failed"])
		}
		if env.fake.Account(a) != nil {
			t.Error("expected the first account deleted")
		}

		if cfg, _ := env.configs.Load(ctx, "org-1", a); len(cfg) != 0 {
			t.Errorf("expected the deleted account's config dropped, got %v", cfg)
		}
		if cfg, _ := env.configs.Load(ctx, "org-1", b); cfg["tone"] != "calm" {
			t.Errorf("expected the surviving account's config kept, got %v", cfg)
		}
	})

	t.Run("deleting an account drops its stored config", func(t *testing.T) {
		env := setupServer(t, nil)
		ctx := context.Background()
		id := env.fake.AddAccount(map[string]any{"platform": "tiktok"})
		if err := env.configs.Save(ctx, "org-1", id, map[string]any{"tone": "calm"}); err != nil {
			t.Fatalf("failed to store config: %v", err)
		}
		if err := env.configs.Save(ctx, "org-1", "", map[string]any{"tone": "dry"}); err != nil {
			t.Fatalf("failed to store defaults: %v", err)
		}

		status, body := env.call(t, http.MethodDelete, "/short-video/platform-accounts/"+id, nil)
		if status != http.StatusOK || body["ok"] != true {
			t.Fatalf("unexpected answer %d %v", status, body)
		}
		if cfg, _ := env.configs.Load(ctx, "org-1", id); len(cfg) != 0 {
			t.Errorf("expected config dropped, got %v", cfg)
		}
		if cfg, _ := env.configs.Load(ctx, "org-1", ""); cfg["tone"] != "dry" {
			t.Errorf("expected organization defaults kept, got %v", cfg)
		}
	})

	t.Run("failed delete keeps the stored config", func(t *testing.T) {
		env := setupServer(t, nil)
		ctx := context.Background()
		if err := env.configs.Save(ctx, "org-1", "ghost", map[string]any{"tone": "calm"}); err != nil {
			t.Fatalf("failed to store config: %v", err)
		}

		status, _ := env.call(t, http.MethodDelete, "/short-video/platform-accounts/ghost", nil)
		if status != http.StatusNotFound {
			t.Errorf("expected upstream 404, got %d", status)
		}
		if cfg, _ := env.configs.Load(ctx, "org-1", "ghost"); cfg["tone"] != "calm" {
			t.Errorf("expected config kept, got %v", cfg)
		}
	})
}

func TestListAccounts(t *testing.T) {
	env := setupServer(t, nil)
	env.addIntegration(t, models.Integration{
		ID: "int-1", Name: "Tube", ProviderIdentifier: "youtube-channel", InternalID: "UC1", Picture: "https://cdn/p.png",
	})

	t.Run("empty listing is returned as is", func(t *testing.T) {
		status, body := env.call(t, http.MethodGet, "/short-video/platform-accounts?platform=youtube", nil)
		if status != http.StatusOK {
			t.Fatalf("expected 200, got %d", status)
		}
		if items, ok := body["items"].([]any); !ok || len(items) != 0 {
			t.Errorf("expected empty items, got %v", body)
		}
		if body["total"] != float64(0) {
			t.Errorf("expected total kept, got %v", body["total"])
		}
	})

	t.Run("fills avatars from integrations", func(t *testing.T) {
		env.fake.AddAccount(map[string]any{
			"platform": "youtube", "channel_id": "UC1", "avatar_url": "https://up/a.png", "custom": "kept",
		})

		status, body := env.call(t, http.MethodGet, "/short-video/platform-accounts?platform=youtube", nil)
		if status != http.StatusOK {
			t.Fatalf("expected 200, got %d", status)
		}
		items, _ := body["items"].([]any)
		if len(items) != 1 {
			t.Fatalf("expected 1 item, got %v", body)
		}
		acc := items[0].(map[string]any)
		if acc["avatar_url"] != "https://cdn/p.png" {
			t.Errorf("expected integration picture, got %v", acc["avatar_url"])
		}
		if acc["custom"] != "kept" {
			t.Error("expected unknown fields preserved")
		}
	})
}

func TestIntegrationConfig(t *testing.T) {
	t.Run("empty when nothing stored", func(t *testing.T) {
		env := setupServer(t, nil)
		status, body := env.call(t, http.MethodGet, "/short-video/integration-config", nil)
		if status != http.StatusOK || len(body) != 0 {
			t.Errorf("unexpected answer %d %v", status, body)
		}
	})

	t.Run("stores defaults and pushes them to the account", func(t *testing.T) {
		env := setupServer(t, nil)
		env.fake.AddAccount(map[string]any{"id": "acc-1", "platform": "tiktok", "name": "Old"})

		status, body := env.call(t, http.MethodPost, "/short-video/integration-config", map[string]any{
			"platform_account_id": "acc-1",
			"integration_id":      "int-1",
			"name":                "New",
			"description":         "About",
			"tone":                "calm",
			"persona_id":          "p1",
		})
		if status != http.StatusOK || body["ok"] != true {
			t.Fatalf("unexpected answer %d %v", status, body)
		}

		_, stored := env.call(t, http.MethodGet, "/short-video/integration-config?platform_account_id=acc-1", nil)
		if stored["tone"] != "calm" || stored["persona_id"] != "p1" {
			t.Errorf("unexpected stored config %v", stored)
		}
		for _, k := range identityFields {
			if _, ok := stored[k]; ok {
				t.Errorf("expected %s stripped from stored config", k)
			}
		}

		acc := env.fake.Account("acc-1")
		if acc["name"] != "New" || acc["persona_id"] != "p1" || acc["description"] != "About" {
			t.Errorf("unexpected account %v", acc)
		}
		cfg := acc["config"].(map[string]any)
		if cfg["tone"] != "calm" || env.fake.LinkedTo("int-1") != 1 {
			t.Errorf("expected config and link pushed, got %v", cfg)
		}
	})

	t.Run("push failures do not fail the save", func(t *testing.T) {
		env := setupServer(t, nil)
		status, _ := env.call(t, http.MethodPost, "/short-video/integration-config", map[string]any{
			"platform_account_id": "ghost",
			"tone":                "calm",
		})
		if status != http.StatusOK {
			t.Errorf("expected 200, got %d", status)
		}
		_, stored := env.call(t, http.MethodGet, "/short-video/integration-config?platform_account_id=ghost", nil)
		if stored["tone"] != "calm" {
			t.Errorf("expected stored config, got %v", stored)
		}
	})

	t.Run("naming an account without a generator url fails", func(t *testing.T) {
		t.Setenv("SVBRIDGE_TEST_GENERATOR_URL", "")
		cfg := shared.DefaultConfig()
		cfg.Generator.BaseURLEnv = "SVBRIDGE_TEST_GENERATOR_URL"
		env := setupServer(t, cfg.GeneratorBaseURL)

		status, body := env.call(t, http.MethodPost, "/short-video/integration-config", map[string]any{
			"platform_account_id": "acc-1",
			"tone":                "calm",
		})
		want := "SVBRIDGE_TEST_GENERATOR_URL is not configured. Please set it in the environment variables."
		if status != http.StatusInternalServerError || body["message"] != want {
			t.Errorf("unexpected answer %d %v", status, body)
		}
		if len(env.fake.Calls()) != 0 {
			t.Error("expected no generator call")
		}

		_, stored := env.call(t, http.MethodGet, "/short-video/integration-config?platform_account_id=acc-1", nil)
		if stored["tone"] != "calm" {
			t.Errorf("expected the local save to happen first, got %v", stored)
		}

		status, _ = env.call(t, http.MethodPost, "/short-video/integration-config", map[string]any{"tone": "calm"})
		if status != http.StatusOK {
			t.Errorf("expected defaults without an account to save, got %d", status)
		}
	})

	t.Run("configs are scoped by organization", func(t *testing.T) {
		env := setupServer(t, nil)
		env.call(t, http.MethodPost, "/short-video/integration-config", map[string]any{"tone": "calm"})

		_, other := env.callAs(t, "org-2", http.MethodGet, "/short-video/integration-config", nil)
		if len(other) != 0 {
			t.Errorf("expected nothing for another organization, got %v", other)
		}
	})
}
