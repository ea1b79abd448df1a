package clientsync

import (
	"testing"
	"time"

	"github.com/dhafnck/taskforge/internal/domain"
)

func newTestService() *Service {
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := New()
	s.now = func() time.Time { return fixed }
	return s
}

func TestRegisterClientRequiresID(t *testing.T) {
	s := newTestService()
	err := s.RegisterClient(domain.ClientConfig{}, nil)
	if err == nil {
		t.Fatalf("expected validation error for empty client_id")
	}
}

func TestAuthenticateRejectsUnregisteredClient(t *testing.T) {
	s := newTestService()
	_, err := s.Authenticate("ghost", "secret")
	if err == nil {
		t.Fatalf("expected not-found error")
	}
	if kind, ok := domain.KindOf(err); !ok || kind != domain.ErrNotFound {
		t.Fatalf("got kind %v", kind)
	}
}

func TestAuthenticateSucceedsWithMatchingSecret(t *testing.T) {
	s := newTestService()
	cfg := domain.ClientConfig{ClientID: "c1", AuthMethod: domain.AuthAPIKey, Secret: "s3cret"}
	if err := s.RegisterClient(cfg, []domain.SyncOperation{domain.SyncPull}); err != nil {
		t.Fatalf("RegisterClient: %v", err)
	}
	token, err := s.Authenticate("c1", "s3cret")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if token == "" {
		t.Fatalf("expected non-empty token")
	}
}

func TestAuthenticateFailsWithWrongSecret(t *testing.T) {
	s := newTestService()
	cfg := domain.ClientConfig{ClientID: "c1", AuthMethod: domain.AuthAPIKey, Secret: "s3cret"}
	s.RegisterClient(cfg, nil)
	_, err := s.Authenticate("c1", "wrong")
	if err == nil {
		t.Fatalf("expected auth failure")
	}
}

func TestSyncRejectsUnpermittedOperation(t *testing.T) {
	s := newTestService()
	s.RegisterClient(domain.ClientConfig{ClientID: "c1"}, []domain.SyncOperation{domain.SyncPull})
	_, err := s.Sync(domain.SyncRequest{ClientID: "c1", Operation: domain.SyncPush}, nil, nil)
	if err == nil {
		t.Fatalf("expected validation error for unpermitted operation")
	}
}

func TestSyncEnforcesRateLimit(t *testing.T) {
	s := newTestService()
	s.RegisterClient(domain.ClientConfig{ClientID: "c1"}, []domain.SyncOperation{domain.SyncPull})
	s.rateLimiters["c1"].limit = 1

	if _, err := s.Sync(domain.SyncRequest{ClientID: "c1", Operation: domain.SyncPull}, nil, nil); err != nil {
		t.Fatalf("first sync should succeed: %v", err)
	}
	_, err := s.Sync(domain.SyncRequest{ClientID: "c1", Operation: domain.SyncPull}, nil, nil)
	if err == nil {
		t.Fatalf("expected rate limit error on second sync")
	}
	if kind, _ := domain.KindOf(err); kind != domain.ErrRateLimited {
		t.Fatalf("got kind %v", kind)
	}
}

func TestSyncBidirectionalFlagsConflictOnDivergentContent(t *testing.T) {
	s := newTestService()
	s.RegisterClient(domain.ClientConfig{ClientID: "c1"}, []domain.SyncOperation{domain.SyncBidirectional})

	serverRules := map[string]domain.RuleContent{"a.mdc": {Raw: "server version"}}
	req := domain.SyncRequest{
		ClientID:  "c1",
		Operation: domain.SyncBidirectional,
		Payload:   map[string]domain.RuleContent{"a.mdc": {Raw: "client version"}},
	}
	result, err := s.Sync(req, serverRules, nil)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if result.Status != domain.SyncStatusConflict {
		t.Fatalf("got status %v, want conflict", result.Status)
	}
	if len(result.Conflicts) != 1 {
		t.Fatalf("got %v", result.Conflicts)
	}
}

func TestDiffDetectsNewModifiedAndDeleted(t *testing.T) {
	s := newTestService()
	s.RegisterClient(domain.ClientConfig{ClientID: "c1"}, nil)

	clientState := map[string]domain.RuleContent{
		"old.mdc":   {Raw: "gone"},
		"same.mdc":  {Raw: "unchanged"},
		"edit.mdc":  {Raw: "old content"},
	}
	serverRules := map[string]domain.RuleContent{
		"same.mdc": {Raw: "unchanged"},
		"edit.mdc": {Raw: "new content"},
		"new.mdc":  {Raw: "brand new"},
	}
	diff, err := s.Diff("c1", clientState, serverRules)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(diff.New) != 1 || diff.New[0] != "new.mdc" {
		t.Fatalf("got new: %v", diff.New)
	}
	if len(diff.Modified) != 1 || diff.Modified[0] != "edit.mdc" {
		t.Fatalf("got modified: %v", diff.Modified)
	}
	if len(diff.Deleted) != 1 || diff.Deleted[0] != "old.mdc" {
		t.Fatalf("got deleted: %v", diff.Deleted)
	}
}

func TestSubscribeNotifiesOnSync(t *testing.T) {
	s := newTestService()
	s.RegisterClient(domain.ClientConfig{ClientID: "c1"}, []domain.SyncOperation{domain.SyncPull})

	var notified bool
	s.Subscribe(func(clientID string, result domain.SyncResult) {
		notified = true
	})
	if _, err := s.Sync(domain.SyncRequest{ClientID: "c1", Operation: domain.SyncPull}, nil, nil); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if !notified {
		t.Fatalf("expected subscriber notified")
	}
}

func TestSubscribePanicDoesNotAbortOtherSubscribers(t *testing.T) {
	s := newTestService()
	s.RegisterClient(domain.ClientConfig{ClientID: "c1"}, []domain.SyncOperation{domain.SyncPull})

	var secondCalled bool
	s.Subscribe(func(clientID string, result domain.SyncResult) { panic("boom") })
	s.Subscribe(func(clientID string, result domain.SyncResult) { secondCalled = true })

	if _, err := s.Sync(domain.SyncRequest{ClientID: "c1", Operation: domain.SyncPull}, nil, nil); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if !secondCalled {
		t.Fatalf("expected second subscriber still invoked after first panicked")
	}
}

func TestAnalyticsCountsSyncsAndConflicts(t *testing.T) {
	s := newTestService()
	s.RegisterClient(domain.ClientConfig{ClientID: "c1"}, []domain.SyncOperation{domain.SyncBidirectional})

	serverRules := map[string]domain.RuleContent{"a.mdc": {Raw: "server"}}
	req := domain.SyncRequest{
		ClientID:  "c1",
		Operation: domain.SyncBidirectional,
		Payload:   map[string]domain.RuleContent{"a.mdc": {Raw: "client"}},
	}
	s.Sync(req, serverRules, nil)

	analytics, err := s.Analytics("c1")
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	if analytics.TotalSyncs != 1 || analytics.ConflictCount != 1 {
		t.Fatalf("got %+v", analytics)
	}
}


