// Package clientsync registers rule-sync clients, authenticates them,
// and executes push/pull/bidirectional/merge synchronization with
// per-client rate limiting and conflict resolution.
package clientsync

import (
	"crypto/subtle"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dhafnck/taskforge/internal/domain"
)

// rateLimiter tracks a sliding 60-second request window per client.
type rateLimiter struct {
	limit  int
	stamps []time.Time
}

func (rl *rateLimiter) allow(now time.Time) bool {
	cutoff := now.Add(-time.Minute)
	kept := rl.stamps[:0]
	for _, ts := range rl.stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	rl.stamps = kept
	if len(rl.stamps) >= rl.limit {
		return false
	}
	rl.stamps = append(rl.stamps, now)
	return true
}

// registration is the server-side record of a registered client.
type registration struct {
	config       domain.ClientConfig
	permissions  map[domain.SyncOperation]bool
	history      []domain.SyncResult
	lastSync     time.Time
	authedUntil  time.Time
}

// Notifier receives every completed SyncResult. A notifier panic or error
// must never abort other subscribers.
type Notifier func(clientID string, result domain.SyncResult)

// Service is the client-sync subsystem: register/authenticate/sync/diff/
// resolve/status/subscribe/analytics, per spec.md §4.10.
type Service struct {
	mu            sync.Mutex
	clients       map[string]*registration
	rateLimiters  map[string]*rateLimiter
	notifications []Notifier
	now           func() time.Time
}

// New returns an empty Service.
func New() *Service {
	return &Service{
		clients:      map[string]*registration{},
		rateLimiters: map[string]*rateLimiter{},
		now:          time.Now,
	}
}

// RegisterClient validates and stores a client configuration, initializing
// its rate limiter. Re-registering an existing client_id updates its config.
func (s *Service) RegisterClient(cfg domain.ClientConfig, permissions []domain.SyncOperation) error {
	if cfg.ClientID == "" {
		return domain.NewError(domain.ErrValidation, "client_id is required")
	}
	perms := make(map[domain.SyncOperation]bool, len(permissions))
	for _, p := range permissions {
		perms[p] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[cfg.ClientID] = &registration{config: cfg, permissions: perms}
	s.rateLimiters[cfg.ClientID] = &rateLimiter{limit: 100}
	return nil
}

// Authenticate verifies client credentials by auth method and returns a
// short-lived bearer token on success.
func (s *Service) Authenticate(clientID string, credential string) (string, error) {
	s.mu.Lock()
	reg, ok := s.clients[clientID]
	s.mu.Unlock()
	if !ok {
		return "", domain.NewError(domain.ErrNotFound, "client not registered: %s", clientID)
	}

	switch reg.config.AuthMethod {
	case domain.AuthAPIKey, domain.AuthToken:
		if subtle.ConstantTimeCompare([]byte(credential), []byte(reg.config.Secret)) != 1 {
			return "", domain.NewError(domain.ErrAuthFailure, "invalid credentials for client %s", clientID)
		}
	default:
		return "", domain.NewError(domain.ErrAuthFailure, "unsupported auth method %s", reg.config.AuthMethod)
	}

	token := uuid.New().String()
	s.mu.Lock()
	reg.authedUntil = s.now().Add(time.Hour)
	s.mu.Unlock()
	return token, nil
}

func (s *Service) checkRateLimit(clientID string, now time.Time) bool {
	rl, ok := s.rateLimiters[clientID]
	if !ok {
		return false
	}
	return rl.allow(now)
}

// Sync executes a push/pull/bidirectional/merge operation against
// serverRules, returning a SyncResult. Rate-limited or unpermitted
// requests fail fast with a dedicated error rather than partially running.
func (s *Service) Sync(req domain.SyncRequest, serverRules map[string]domain.RuleContent, resolve ConflictResolver) (domain.SyncResult, error) {
	s.mu.Lock()
	reg, ok := s.clients[req.ClientID]
	if !ok {
		s.mu.Unlock()
		return domain.SyncResult{}, domain.NewError(domain.ErrNotFound, "client not registered: %s", req.ClientID)
	}
	now := s.now()
	if !s.checkRateLimit(req.ClientID, now) {
		s.mu.Unlock()
		return domain.SyncResult{}, domain.NewError(domain.ErrRateLimited, "rate limit exceeded for client %s", req.ClientID)
	}
	if !reg.permissions[req.Operation] {
		s.mu.Unlock()
		return domain.SyncResult{}, domain.NewError(domain.ErrValidation, "operation %s not permitted for client %s", req.Operation, req.ClientID)
	}
	s.mu.Unlock()

	start := now
	result := executeSync(req, serverRules, resolve)

	s.mu.Lock()
	reg.history = append(reg.history, result)
	reg.lastSync = start
	notifiers := append([]Notifier(nil), s.notifications...)
	s.mu.Unlock()

	for _, n := range notifiers {
		notifySafely(n, req.ClientID, result)
	}
	return result, nil
}

func notifySafely(n Notifier, clientID string, result domain.SyncResult) {
	defer func() { recover() }()
	n(clientID, result)
}

// ConflictResolver decides how to reconcile a client/server value clash for
// one rule path during sync.
type ConflictResolver func(path string, clientRule, serverRule domain.RuleContent) (domain.RuleContent, domain.ConflictResolution)

func executeSync(req domain.SyncRequest, serverRules map[string]domain.RuleContent, resolve ConflictResolver) domain.SyncResult {
	result := domain.SyncResult{Status: domain.SyncStatusOK}

	switch req.Operation {
	case domain.SyncPull:
		for path := range serverRules {
			result.Applied = append(result.Applied, path)
		}
	case domain.SyncPush:
		for path := range req.Payload {
			result.Applied = append(result.Applied, path)
		}
	case domain.SyncBidirectional, domain.SyncMerge:
		for path, clientRule := range req.Payload {
			serverRule, exists := serverRules[path]
			if !exists {
				result.Applied = append(result.Applied, path)
				continue
			}
			if clientRule.Raw == serverRule.Raw {
				result.Applied = append(result.Applied, path)
				continue
			}
			if resolve != nil {
				_, resolution := resolve(path, clientRule, serverRule)
				result.Conflicts = append(result.Conflicts, domain.RuleConflict{
					Section: path, Paths: []string{path}, Resolution: resolution,
				})
			} else {
				result.Conflicts = append(result.Conflicts, domain.RuleConflict{
					Section: path, Paths: []string{path}, Resolution: domain.ConflictManual,
				})
			}
		}
	}

	if len(result.Conflicts) > 0 {
		result.Status = domain.SyncStatusConflict
	}
	return result
}

// Diff reports which rules are new/modified/deleted between the client's
// last-known state and the current server rules.
type Diff struct {
	New      []string
	Modified []string
	Deleted  []string
}

// Diff computes differences between clientState (the client's last-known
// rule snapshot) and serverRules.
func (s *Service) Diff(clientID string, clientState, serverRules map[string]domain.RuleContent) (Diff, error) {
	s.mu.Lock()
	_, ok := s.clients[clientID]
	s.mu.Unlock()
	if !ok {
		return Diff{}, domain.NewError(domain.ErrNotFound, "client not registered: %s", clientID)
	}

	var d Diff
	for path, serverRule := range serverRules {
		clientRule, existed := clientState[path]
		if !existed {
			d.New = append(d.New, path)
		} else if clientRule.Raw != serverRule.Raw {
			d.Modified = append(d.Modified, path)
		}
	}
	for path := range clientState {
		if _, exists := serverRules[path]; !exists {
			d.Deleted = append(d.Deleted, path)
		}
	}
	return d, nil
}

// ResolveConflicts dispatches each conflict to strategy-specific
// resolution, returning which were resolved automatically vs which need
// manual review.
func (s *Service) ResolveConflicts(clientID string, conflicts []domain.RuleConflict, strategy domain.ConflictResolution) (resolved, unresolved []domain.RuleConflict, err error) {
	s.mu.Lock()
	_, ok := s.clients[clientID]
	s.mu.Unlock()
	if !ok {
		return nil, nil, domain.NewError(domain.ErrNotFound, "client not registered: %s", clientID)
	}

	for _, c := range conflicts {
		res := c
		switch strategy {
		case domain.ConflictMerge, domain.ConflictOverride, domain.ConflictAppend:
			res.Resolution = strategy
			resolved = append(resolved, res)
		default:
			unresolved = append(unresolved, res)
		}
	}
	return resolved, unresolved, nil
}

// StatusReport summarizes a client's recent sync activity.
type StatusReport struct {
	ClientID    string
	LastSync    time.Time
	RecentSyncs []domain.SyncResult
}

// Status returns the client's last N sync results (N=5, matching the
// original's recent-history window).
func (s *Service) Status(clientID string) (StatusReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.clients[clientID]
	if !ok {
		return StatusReport{}, domain.NewError(domain.ErrNotFound, "client not registered: %s", clientID)
	}
	recent := reg.history
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	return StatusReport{ClientID: clientID, LastSync: reg.lastSync, RecentSyncs: recent}, nil
}

// Subscribe registers a notification callback, invoked after every sync.
// Returns a fresh subscription id; there is no Unsubscribe, so a callback
// stays registered for the life of the Service.
func (s *Service) Subscribe(n Notifier) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
	return uuid.New().String()
}

// Analytics summarizes sync activity for a client.
type Analytics struct {
	TotalSyncs    int
	ConflictCount int
	LastSync      time.Time
}

// Analytics returns aggregate sync statistics for a client.
func (s *Service) Analytics(clientID string) (Analytics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.clients[clientID]
	if !ok {
		return Analytics{}, domain.NewError(domain.ErrNotFound, "client not registered: %s", clientID)
	}
	conflictCount := 0
	for _, r := range reg.history {
		conflictCount += len(r.Conflicts)
	}
	return Analytics{TotalSyncs: len(reg.history), ConflictCount: conflictCount, LastSync: reg.lastSync}, nil
}


