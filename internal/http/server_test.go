package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"moneyman/internal/core"
	"moneyman/internal/services"
	"moneyman/internal/storage"
)

// Seeded global categories.
const (
	catSalary = "6f1d2c81-0a3b-4a5e-9a01-000000000001"
	catFood   = "6f1d2c81-0a3b-4a5e-9a01-000000000004"
)

type serverFixture struct {
	ts     *httptest.Server
	ledger *services.Ledger
	now    time.Time
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	f := &serverFixture{now: time.Date(2026, 8, 28, 8, 0, 0, 0, time.UTC)}
	f.ledger = services.NewLedger(repo, nil, services.Options{
		EnforceNonNegativeBalance: true,
		Now:                       func() time.Time { return f.now },
	})

	srv := NewServer(":0", f.ledger, Options{RateLimitPerMinute: 1000, CacheTTL: time.Minute})
	f.ts = httptest.NewServer(srv.Server.Handler)
	t.Cleanup(func() {
		f.ts.Close()
		srv.caches.Stop()
		srv.rateLimiter.stop()
	})
	return f
}

func (f *serverFixture) do(t *testing.T, method, path, userID string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, f.ts.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := f.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func (f *serverFixture) createAccount(t *testing.T, userID, name string, balance string) core.Account {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/accounts", userID, map[string]any{
		"name":            name,
		"type":            "wallet",
		"initial_balance": json.RawMessage(balance),
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create account %s: status %d", name, resp.StatusCode)
	}
	return decodeBody[core.Account](t, resp)
}

func TestMissingUserIDUnauthorized(t *testing.T) {
	f := newServerFixture(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/transactions"},
		{http.MethodPost, "/transactions"},
		{http.MethodGet, "/dashboard"},
		{http.MethodGet, "/summary"},
		{http.MethodGet, "/accounts"},
	} {
		resp := f.do(t, route.method, route.path, "", nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s %s without user = %d, want 401", route.method, route.path, resp.StatusCode)
		}
	}
}

func TestHealthEndpointsNeedNoUser(t *testing.T) {
	f := newServerFixture(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		resp := f.do(t, http.MethodGet, path, "", nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, resp.StatusCode)
		}
	}
}

func TestTransactionLifecycleOverHTTP(t *testing.T) {
	f := newServerFixture(t)
	acc := f.createAccount(t, "alice", "Wallet", "100.00")

	resp := f.do(t, http.MethodPost, "/transactions", "alice", map[string]any{
		"account_id":  acc.ID,
		"category_id": catFood,
		"type":        "expense",
		"amount":      40.00,
		"description": "groceries",
		"division":    "personal",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	created := decodeBody[core.Transaction](t, resp)
	if created.Amount.Cents != 4000 || created.ID == "" {
		t.Errorf("created = %+v", created)
	}

	resp = f.do(t, http.MethodGet, "/transactions/"+created.ID, "alice", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = f.do(t, http.MethodPut, "/transactions/"+created.ID, "alice", map[string]any{
		"amount": 10.00,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d", resp.StatusCode)
	}
	updated := decodeBody[core.Transaction](t, resp)
	if updated.Amount.Cents != 1000 {
		t.Errorf("updated amount = %d, want 1000", updated.Amount.Cents)
	}

	resp = f.do(t, http.MethodDelete, "/transactions/"+created.ID, "alice", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}

	resp = f.do(t, http.MethodGet, "/transactions/"+created.ID, "alice", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", resp.StatusCode)
	}
}

func TestErrorStatuses(t *testing.T) {
	f := newServerFixture(t)
	acc := f.createAccount(t, "alice", "Wallet", "50.00")

	// Insufficient funds.
	resp := f.do(t, http.MethodPost, "/transactions", "alice", map[string]any{
		"account_id":  acc.ID,
		"category_id": catFood,
		"type":        "expense",
		"amount":      75.00,
		"division":    "personal",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("insufficient funds = %d, want 400", resp.StatusCode)
	}

	// Validation failure.
	resp = f.do(t, http.MethodPost, "/transactions", "alice", map[string]any{
		"account_id":  acc.ID,
		"category_id": catFood,
		"type":        "loan",
		"amount":      10.00,
		"division":    "personal",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad type = %d, want 400", resp.StatusCode)
	}

	// Unknown transaction.
	resp = f.do(t, http.MethodGet, "/transactions/ghost", "alice", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown id = %d, want 404", resp.StatusCode)
	}

	// Malformed body.
	req, _ := http.NewRequest(http.MethodPost, f.ts.URL+"/transactions", bytes.NewBufferString("{not json"))
	req.Header.Set("X-User-ID", "alice")
	raw, err := f.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("malformed request: %v", err)
	}
	raw.Body.Close()
	if raw.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed body = %d, want 400", raw.StatusCode)
	}
}

func TestEditWindowExpiredOverHTTP(t *testing.T) {
	f := newServerFixture(t)
	acc := f.createAccount(t, "alice", "Wallet", "100.00")

	resp := f.do(t, http.MethodPost, "/transactions", "alice", map[string]any{
		"account_id":  acc.ID,
		"category_id": catFood,
		"type":        "expense",
		"amount":      10.00,
		"division":    "personal",
	})
	created := decodeBody[core.Transaction](t, resp)

	f.now = f.now.Add(12*time.Hour + time.Minute)

	resp = f.do(t, http.MethodPut, "/transactions/"+created.ID, "alice", map[string]any{
		"amount": 20.00,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("update past window = %d, want 403", resp.StatusCode)
	}

	resp = f.do(t, http.MethodDelete, "/transactions/"+created.ID, "alice", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("delete past window = %d, want 403", resp.StatusCode)
	}
}

func TestTransferByName(t *testing.T) {
	f := newServerFixture(t)
	f.createAccount(t, "alice", "Checking", "500.00")
	f.createAccount(t, "alice", "Savings", "100.00")

	resp := f.do(t, http.MethodPost, "/accounts/transfer", "alice", map[string]any{
		"from":   "Checking",
		"to":     "Savings",
		"amount": 200.00,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("transfer status = %d", resp.StatusCode)
	}
	result := decodeBody[services.TransferResult](t, resp)
	if result.From.Balance.Cents != 30000 || result.To.Balance.Cents != 30000 {
		t.Errorf("balances = %d/%d, want 30000/30000",
			result.From.Balance.Cents, result.To.Balance.Cents)
	}

	// Unknown source name.
	resp = f.do(t, http.MethodPost, "/accounts/transfer", "alice", map[string]any{
		"from":   "Vacation",
		"to":     "Savings",
		"amount": 10.00,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown account = %d, want 404", resp.StatusCode)
	}

	// Same-account transfer.
	resp = f.do(t, http.MethodPost, "/accounts/transfer", "alice", map[string]any{
		"from":   "Checking",
		"to":     "Checking",
		"amount": 10.00,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("same account = %d, want 400", resp.StatusCode)
	}
}

func TestDashboardAndSummaryEndpoints(t *testing.T) {
	f := newServerFixture(t)
	acc := f.createAccount(t, "alice", "Wallet", "0.00")

	mustPost := func(typ, cat string, amount float64) {
		t.Helper()
		resp := f.do(t, http.MethodPost, "/transactions", "alice", map[string]any{
			"account_id":  acc.ID,
			"category_id": cat,
			"type":        typ,
			"amount":      amount,
			"division":    "personal",
		})
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("post %s: %d", typ, resp.StatusCode)
		}
	}
	mustPost("income", catSalary, 100.00)
	mustPost("expense", catFood, 40.00)
	mustPost("expense", catFood, 10.00)

	resp := f.do(t, http.MethodGet, "/dashboard?type=week", "alice", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dashboard status = %d", resp.StatusCode)
	}
	dash := decodeBody[services.Dashboard](t, resp)
	if dash.Income.Cents != 10000 || dash.Expense.Cents != 5000 || dash.Net.Cents != 5000 {
		t.Errorf("dashboard = income %d expense %d net %d",
			dash.Income.Cents, dash.Expense.Cents, dash.Net.Cents)
	}
	if len(dash.History) != 3 {
		t.Errorf("history = %d entries, want 3", len(dash.History))
	}

	// Unknown period.
	resp = f.do(t, http.MethodGet, "/dashboard?type=quarter", "alice", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad period = %d, want 400", resp.StatusCode)
	}

	resp = f.do(t, http.MethodGet, "/summary", "alice", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary status = %d", resp.StatusCode)
	}
	summary := decodeBody[summaryResponse](t, resp)
	if summary.TotalBalance.Cents != 5000 {
		t.Errorf("total balance = %d, want 5000", summary.TotalBalance.Cents)
	}
	if len(summary.Categories) != 1 || summary.Categories[0].Total.Cents != 5000 || summary.Categories[0].Count != 2 {
		t.Errorf("summary categories = %+v", summary.Categories)
	}
}

func TestDashboardCacheInvalidatedByMutation(t *testing.T) {
	f := newServerFixture(t)
	acc := f.createAccount(t, "alice", "Wallet", "0.00")

	get := func() services.Dashboard {
		t.Helper()
		resp := f.do(t, http.MethodGet, "/dashboard?type=week", "alice", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("dashboard status = %d", resp.StatusCode)
		}
		return decodeBody[services.Dashboard](t, resp)
	}

	if d := get(); d.Income.Cents != 0 {
		t.Fatalf("fresh dashboard income = %d", d.Income.Cents)
	}

	resp := f.do(t, http.MethodPost, "/transactions", "alice", map[string]any{
		"account_id":  acc.ID,
		"category_id": catSalary,
		"type":        "income",
		"amount":      100.00,
		"division":    "personal",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}

	if d := get(); d.Income.Cents != 10000 {
		t.Errorf("dashboard after mutation income = %d, want 10000", d.Income.Cents)
	}
}

func TestSummaryCacheInvalidatedByAccountCreation(t *testing.T) {
	f := newServerFixture(t)

	getTotal := func() int64 {
		t.Helper()
		resp := f.do(t, http.MethodGet, "/summary", "alice", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("summary status = %d", resp.StatusCode)
		}
		return decodeBody[summaryResponse](t, resp).TotalBalance.Cents
	}

	// Prime the cache before any account exists.
	if total := getTotal(); total != 0 {
		t.Fatalf("fresh total balance = %d, want 0", total)
	}

	f.createAccount(t, "alice", "Wallet", "100.00")

	if total := getTotal(); total != 10000 {
		t.Errorf("total balance after account creation = %d, want 10000", total)
	}
}

func TestAccountDeletionBlockedOverHTTP(t *testing.T) {
	f := newServerFixture(t)
	acc := f.createAccount(t, "alice", "Wallet", "100.00")

	resp := f.do(t, http.MethodPost, "/transactions", "alice", map[string]any{
		"account_id":  acc.ID,
		"category_id": catFood,
		"type":        "expense",
		"amount":      5.00,
		"division":    "personal",
	})
	resp.Body.Close()

	resp = f.do(t, http.MethodDelete, "/accounts/"+acc.ID, "alice", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("delete account with ledger entries = %d, want 409", resp.StatusCode)
	}
}

func TestDuplicateAccountNameConflict(t *testing.T) {
	f := newServerFixture(t)
	f.createAccount(t, "alice", "Wallet", "0.00")

	resp := f.do(t, http.MethodPost, "/accounts", "alice", map[string]any{
		"name": "Wallet",
		"type": "wallet",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate name = %d, want 409", resp.StatusCode)
	}
}

func TestListAccountsProvisionsDefault(t *testing.T) {
	f := newServerFixture(t)

	resp := f.do(t, http.MethodGet, "/accounts", "newcomer", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list accounts = %d", resp.StatusCode)
	}
	accounts := decodeBody[[]core.Account](t, resp)
	if len(accounts) != 1 || accounts[0].Name != services.DefaultAccountName {
		t.Errorf("accounts = %+v", accounts)
	}
}

func TestRateLimiting(t *testing.T) {
	// A dedicated tiny-limit server; reads stay unthrottled.
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "rl.db"))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	defer repo.Close()
	ledger := services.NewLedger(repo, nil, services.Options{EnforceNonNegativeBalance: true})
	srv := NewServer(":0", ledger, Options{RateLimitPerMinute: 2, CacheTTL: time.Minute})
	ts := httptest.NewServer(srv.Server.Handler)
	defer ts.Close()
	defer srv.caches.Stop()
	defer srv.rateLimiter.stop()

	post := func() int {
		req, _ := http.NewRequest(http.MethodPost, ts.URL+"/accounts", bytes.NewBufferString(`{"name":"x","type":"wallet"}`))
		req.Header.Set("X-User-ID", "alice")
		resp, err := ts.Client().Do(req)
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	statuses := []int{}
	for i := 0; i < 4; i++ {
		statuses = append(statuses, post())
	}
	limited := false
	for _, code := range statuses {
		if code == http.StatusTooManyRequests {
			limited = true
		}
	}
	if !limited {
		t.Errorf("expected a 429 among %v", statuses)
	}

	// Reads are never throttled.
	for i := 0; i < 10; i++ {
		req, _ := http.NewRequest(http.MethodGet, ts.URL+"/categories", nil)
		req.Header.Set("X-User-ID", "alice")
		resp, err := ts.Client().Do(req)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			t.Fatalf("read request %d throttled", i)
		}
	}
}

func TestCategoriesEndpoint(t *testing.T) {
	f := newServerFixture(t)

	resp := f.do(t, http.MethodGet, "/categories", "alice", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("categories status = %d", resp.StatusCode)
	}
	cats := decodeBody[[]core.Category](t, resp)
	if len(cats) == 0 {
		t.Fatal("seeded categories missing")
	}
	names := map[string]bool{}
	for _, c := range cats {
		names[c.Name] = true
	}
	for _, want := range []string{"Salary", "Food", "Rent", "Other"} {
		if !names[want] {
			t.Errorf("category %q missing from %v", want, names)
		}
	}
}

func TestListTransactionsFilters(t *testing.T) {
	f := newServerFixture(t)
	acc := f.createAccount(t, "alice", "Wallet", "1000.00")

	for i, division := range []string{"personal", "office", "personal"} {
		cat := catFood
		if division == "office" {
			cat = "6f1d2c81-0a3b-4a5e-9a01-00000000000b"
		}
		resp := f.do(t, http.MethodPost, "/transactions", "alice", map[string]any{
			"account_id":  acc.ID,
			"category_id": cat,
			"type":        "expense",
			"amount":      fmt.Sprintf("%d.00", i+1),
			"division":    division,
		})
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create %d: %d", i, resp.StatusCode)
		}
	}

	resp := f.do(t, http.MethodGet, "/transactions?division=office", "alice", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("filtered list status = %d", resp.StatusCode)
	}
	office := decodeBody[[]core.Transaction](t, resp)
	if len(office) != 1 || office[0].Division != core.Office {
		t.Errorf("office filter = %+v", office)
	}

	resp = f.do(t, http.MethodGet, "/transactions?division=family", "alice", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad division = %d, want 400", resp.StatusCode)
	}

	// Another user sees nothing.
	resp = f.do(t, http.MethodGet, "/transactions", "bob", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("bob list status = %d", resp.StatusCode)
	}
	bobs := decodeBody[[]core.Transaction](t, resp)
	if len(bobs) != 0 {
		t.Errorf("bob sees %d transactions, want 0", len(bobs))
	}
}
