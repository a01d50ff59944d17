package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"server/internal/http/handlers"
	"server/internal/http/httpapi"
	"server/internal/middleware"
	"server/internal/service"
)

const testSecret = "handler-test-secret"

func newServer(t *testing.T) (*httptest.Server, *service.MemoryStore) {
	t.Helper()
	store := service.NewMemoryStore()
	logger := zerolog.Nop()
	app := &handlers.App{
		Projects:  service.NewProjectService(store, store, logger),
		Donations: service.NewDonationService(store, store, store, logger),
		Expenses:  service.NewExpenseService(store, store, store.Expenses(), store, 72*time.Hour, logger),
		Stats:     store,
		Logger:    logger,
	}
	srv := httptest.NewServer(httpapi.NewRouter(app, httpapi.Options{
		JWTSecret:       testSecret,
		RateLimitPerMin: 1000,
	}))
	t.Cleanup(srv.Close)
	return srv, store
}

func token(t *testing.T, sub, role string) string {
	t.Helper()
	tok, err := middleware.SignJWT(testSecret, middleware.TokenClaims{
		Sub:  sub,
		Role: role,
		Exp:  time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func call(t *testing.T, srv *httptest.Server, method, path, bearer string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func hash(n int) string { return fmt.Sprintf("0x%064x", n) }

func TestHealthAndStatsArePublic(t *testing.T) {
	srv, _ := newServer(t)
	resp, body := call(t, srv, http.MethodGet, "/v1/healthz", "", nil)
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("healthz: status %d body %v", resp.StatusCode, body)
	}
	resp, _ = call(t, srv, http.MethodGet, "/v1/stats/summary", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stats: status %d", resp.StatusCode)
	}
}

func TestProjectEndpointsRequireAuth(t *testing.T) {
	srv, _ := newServer(t)
	resp, _ := call(t, srv, http.MethodPost, "/v1/projects", "", map[string]any{"title": "x"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestFullLifecycleOverHTTP(t *testing.T) {
	srv, store := newServer(t)
	sweep := service.NewReconciler(store, store.Expenses(), store, zerolog.Nop())

	orgID := uuid.NewString()
	org := token(t, orgID, "organization")
	donorA := uuid.NewString()
	donorB := uuid.NewString()

	// Organization opens a campaign.
	resp, body := call(t, srv, http.MethodPost, "/v1/projects", org, map[string]any{
		"title":         "school roof",
		"target_amount": 100,
		"end_date":      time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create project: status %d body %v", resp.StatusCode, body)
	}
	projectID, _ := body["id"].(string)
	if projectID == "" {
		t.Fatalf("create project: missing id in %v", body)
	}

	// Two donors fund it to the target.
	for i, donor := range []string{donorA, donorB} {
		resp, body = call(t, srv, http.MethodPost, "/v1/projects/"+projectID+"/donations", token(t, donor, "donor"), map[string]any{
			"amount":  50,
			"tx_hash": hash(i + 1),
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("donation %d: status %d body %v", i, resp.StatusCode, body)
		}
	}
	project := body["project"].(map[string]any)
	if project["status"] != "active" {
		t.Fatalf("project status = %v, want active", project["status"])
	}
	if project["unique_donor_count"].(float64) != 2 {
		t.Fatalf("unique donors = %v, want 2", project["unique_donor_count"])
	}

	// A third donation conflicts with the reached target.
	resp, _ = call(t, srv, http.MethodPost, "/v1/projects/"+projectID+"/donations", token(t, uuid.NewString(), "donor"), map[string]any{
		"amount": 1, "tx_hash": hash(3),
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("overfund: status %d, want 409", resp.StatusCode)
	}

	// Owner proposes a spend.
	resp, body = call(t, srv, http.MethodPost, "/v1/projects/"+projectID+"/expenses", org, map[string]any{
		"amount": 20, "tx_hash": hash(4), "document_ref": "quotes/roof.pdf",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create expense: status %d body %v", resp.StatusCode, body)
	}
	requestID := body["id"].(string)

	// Both donors vote for. The ballots alone never resolve the request;
	// the reconciliation sweep applies the mathematical majority.
	for i, donor := range []string{donorA, donorB} {
		resp, body = call(t, srv, http.MethodPost, "/v1/expenses/"+requestID+"/votes", token(t, donor, "donor"), map[string]any{
			"choice": "for", "tx_hash": hash(10 + i),
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("vote %d: status %d body %v", i, resp.StatusCode, body)
		}
	}
	if body["status"] != "voting" {
		t.Fatalf("request status = %v, want voting before the sweep", body["status"])
	}
	if err := sweep.RunOnce(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	// Tally shows the electorate and the caller's ballot.
	resp, body = call(t, srv, http.MethodGet, "/v1/expenses/"+requestID+"/tally", token(t, donorA, "donor"), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("tally: status %d", resp.StatusCode)
	}
	if body["eligible_voters"].(float64) != 2 {
		t.Fatalf("eligible voters = %v, want 2", body["eligible_voters"])
	}
	if body["my_vote"] == nil {
		t.Fatal("tally missing caller ballot")
	}

	// Owner executes once; the replayed call conflicts.
	resp, body = call(t, srv, http.MethodPost, "/v1/expenses/"+requestID+"/execute", org, map[string]any{"tx_hash": hash(20)})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("execute: status %d body %v", resp.StatusCode, body)
	}
	if body["executed"] != true {
		t.Fatalf("executed = %v, want true", body["executed"])
	}
	resp, _ = call(t, srv, http.MethodPost, "/v1/expenses/"+requestID+"/execute", org, map[string]any{"tx_hash": hash(21)})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("re-execute: status %d, want 409", resp.StatusCode)
	}

	// Stats reflect the whole story.
	resp, body = call(t, srv, http.MethodGet, "/v1/stats/summary", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stats: status %d", resp.StatusCode)
	}
	if body["donations"].(float64) != 2 || body["requests_executed"].(float64) != 1 {
		t.Fatalf("stats = %v", body)
	}
}

func TestErrorShapes(t *testing.T) {
	srv, _ := newServer(t)
	orgID := uuid.NewString()
	org := token(t, orgID, "organization")

	resp, body := call(t, srv, http.MethodPost, "/v1/projects", org, map[string]any{
		"title": "well", "target_amount": 100,
		"end_date": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create project: status %d", resp.StatusCode)
	}
	projectID := body["id"].(string)

	t.Run("donor role cannot create projects", func(t *testing.T) {
		resp, _ := call(t, srv, http.MethodPost, "/v1/projects", token(t, uuid.NewString(), "donor"), map[string]any{
			"title": "x", "target_amount": 10,
			"end_date": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		})
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", resp.StatusCode)
		}
	})

	t.Run("owner donating to own project is forbidden", func(t *testing.T) {
		resp, _ := call(t, srv, http.MethodPost, "/v1/projects/"+projectID+"/donations", org, map[string]any{
			"amount": 10, "tx_hash": hash(30),
		})
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", resp.StatusCode)
		}
	})

	t.Run("replayed settlement proof conflicts", func(t *testing.T) {
		donor := token(t, uuid.NewString(), "donor")
		resp, _ := call(t, srv, http.MethodPost, "/v1/projects/"+projectID+"/donations", donor, map[string]any{
			"amount": 10, "tx_hash": hash(31),
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("donation: status %d", resp.StatusCode)
		}
		resp, errBody := call(t, srv, http.MethodPost, "/v1/projects/"+projectID+"/donations", token(t, uuid.NewString(), "donor"), map[string]any{
			"amount": 10, "tx_hash": hash(31),
		})
		if resp.StatusCode != http.StatusConflict {
			t.Fatalf("status = %d, want 409", resp.StatusCode)
		}
		errObj := errBody["error"].(map[string]any)
		if errObj["code"] != "conflict" {
			t.Fatalf("error code = %v, want conflict", errObj["code"])
		}
	})

	t.Run("unknown project is 404", func(t *testing.T) {
		resp, _ := call(t, srv, http.MethodGet, "/v1/projects/"+uuid.NewString(), org, nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", resp.StatusCode)
		}
	})

	t.Run("malformed id is 400", func(t *testing.T) {
		resp, _ := call(t, srv, http.MethodGet, "/v1/projects/not-a-uuid", org, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("donor ids hidden from strangers", func(t *testing.T) {
		stranger := token(t, uuid.NewString(), "donor")
		resp, body := call(t, srv, http.MethodGet, "/v1/projects/"+projectID+"/donations", stranger, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		items := body["items"].([]any)
		if len(items) == 0 {
			t.Fatal("no donations listed")
		}
		if _, ok := items[0].(map[string]any)["donor_id"]; ok {
			t.Fatal("donor_id exposed to non-owner")
		}

		resp, body = call(t, srv, http.MethodGet, "/v1/projects/"+projectID+"/donations", org, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("owner list status = %d", resp.StatusCode)
		}
		items = body["items"].([]any)
		if _, ok := items[0].(map[string]any)["donor_id"]; !ok {
			t.Fatal("donor_id missing for owner")
		}
	})
}
