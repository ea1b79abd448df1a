package domain

import "time"

// RuleFormat is the on-disk format a rule file was authored in.
type RuleFormat string

const (
	FormatMDC  RuleFormat = "mdc"
	FormatMD   RuleFormat = "md"
	FormatJSON RuleFormat = "json"
	FormatYAML RuleFormat = "yaml"
	FormatTXT  RuleFormat = "txt"
)

// RuleType classifies a rule's purpose, mirroring the original
// enhanced_rule_orchestrator's RuleType enum.
type RuleType string

const (
	RuleTypeCore      RuleType = "core"
	RuleTypeWorkflow  RuleType = "workflow"
	RuleTypeAgent     RuleType = "agent"
	RuleTypeProject   RuleType = "project"
	RuleTypeContext   RuleType = "context"
	RuleTypeCustom    RuleType = "custom"
	RuleTypeTemporary RuleType = "temporary"
	RuleTypeInherited RuleType = "inherited"
)

// typeOrder fixes the deterministic priority used when composing N rules:
// more foundational types sort first so later, more specific types can
// override them. core > workflow > project > agent > context > custom.
var typeOrder = map[RuleType]int{
	RuleTypeCore:      0,
	RuleTypeWorkflow:  1,
	RuleTypeProject:   2,
	RuleTypeAgent:     3,
	RuleTypeContext:   4,
	RuleTypeCustom:    5,
	RuleTypeInherited: 6,
	RuleTypeTemporary: 7,
}

// TypePriority returns a rule type's composition sort weight (lower wins
// first application, so later writers overwrite earlier ones on conflict).
func (rt RuleType) TypePriority() int {
	if p, ok := typeOrder[rt]; ok {
		return p
	}
	return len(typeOrder)
}

// RuleMetadata carries provenance/classification about a RuleContent, apart
// from its body.
type RuleMetadata struct {
	Path         string     `json:"path"`
	Format       RuleFormat `json:"format"`
	Type         RuleType   `json:"type"`
	Size         int        `json:"size"`
	Checksum     string     `json:"checksum"`
	ModifiedAt   time.Time  `json:"modified_at"`
	Dependencies []string   `json:"dependencies,omitempty"`
	Variables    []string   `json:"variables,omitempty"`
}

// RuleContent is a parsed rule file: its raw body plus the structured
// sections/references/variables the parser extracted.
type RuleContent struct {
	Metadata   RuleMetadata      `json:"metadata"`
	Raw        string            `json:"raw"`
	Sections   map[string]string `json:"sections,omitempty"`
	References []string          `json:"references,omitempty"`
	Inherit    string            `json:"inherit,omitempty"`
}

// InheritanceType classifies how a child rule relates to its detected
// parent, determined primarily by an explicit `inherit:` variable and
// secondarily by section-name overlap (see ruleinherit): full overlap wins
// FULL, >=70% overlap wins CONTENT, partial overlap wins SELECTIVE, no
// overlap wins METADATA.
type InheritanceType string

const (
	InheritanceFull      InheritanceType = "full"
	InheritanceContent   InheritanceType = "content"
	InheritanceSelective InheritanceType = "selective"
	InheritanceMetadata  InheritanceType = "metadata"
	InheritanceVariables InheritanceType = "variables"
)

// RuleInheritance records a resolved parent/child edge in the hierarchy.
type RuleInheritance struct {
	ChildPath          string          `json:"child_path"`
	ParentPath         string          `json:"parent_path"`
	Type               InheritanceType `json:"type"`
	InheritedSections  []string        `json:"inherited_sections,omitempty"`
	OverriddenSections []string        `json:"overridden_sections,omitempty"`
	MergedVariables    map[string]string `json:"merged_variables,omitempty"`
	Depth              int             `json:"depth"`
	Conflicts          []string        `json:"conflicts,omitempty"`
}

// CompositionStrategy is how RuleComposer merges N rule contents together.
type CompositionStrategy string

const (
	StrategySequential    CompositionStrategy = "sequential"
	StrategyPriorityMerge CompositionStrategy = "priority_merge"
	StrategyIntelligent   CompositionStrategy = "intelligent"
)

// ConflictResolution is how the composer handles two rules claiming the
// same section.
type ConflictResolution string

const (
	ConflictMerge    ConflictResolution = "merge"
	ConflictOverride ConflictResolution = "override"
	ConflictAppend   ConflictResolution = "append"
	ConflictManual   ConflictResolution = "manual"
)

// RuleConflict records one section-level clash surfaced during composition.
type RuleConflict struct {
	Section    string              `json:"section"`
	Paths      []string            `json:"paths"`
	Resolution ConflictResolution  `json:"resolution"`
}

// CompositionResult is the outcome of composing one or more rule files.
type CompositionResult struct {
	Content   string         `json:"content"`
	Sources   []string       `json:"sources"`
	Strategy  CompositionStrategy `json:"strategy"`
	Conflicts []RuleConflict `json:"conflicts,omitempty"`
}

// CacheEntry is one memory/disk cache slot, content-addressed by Key.
type CacheEntry struct {
	Key       string    `json:"key"`
	Value     []byte    `json:"value"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	Size      int       `json:"size"`
}

// ClientAuthMethod enumerates how a sync client proves its identity.
type ClientAuthMethod string

const (
	AuthAPIKey      ClientAuthMethod = "api_key"
	AuthToken       ClientAuthMethod = "token"
	AuthOAuth2      ClientAuthMethod = "oauth2"
	AuthCertificate ClientAuthMethod = "certificate"
)

// ClientConfig describes a registered sync client.
type ClientConfig struct {
	ClientID   string           `json:"client_id"`
	Name       string           `json:"name"`
	AuthMethod ClientAuthMethod `json:"auth_method"`
	Secret     string           `json:"-"`
	RegisteredAt time.Time      `json:"registered_at"`
}

// SyncOperation is the kind of sync a client requests.
type SyncOperation string

const (
	SyncPush          SyncOperation = "push"
	SyncPull          SyncOperation = "pull"
	SyncBidirectional SyncOperation = "bidirectional"
	SyncMerge         SyncOperation = "merge"
)

// SyncStatus is the outcome state of a sync attempt.
type SyncStatus string

const (
	SyncStatusOK       SyncStatus = "ok"
	SyncStatusConflict SyncStatus = "conflict"
	SyncStatusFailed   SyncStatus = "failed"
	SyncStatusRateLimited SyncStatus = "rate_limited"
)

// SyncRequest is one client sync call.
type SyncRequest struct {
	ClientID  string        `json:"client_id"`
	Operation SyncOperation `json:"operation"`
	Paths     []string      `json:"paths,omitempty"`
	Payload   map[string]RuleContent `json:"payload,omitempty"`
}

// SyncResult is the response to a SyncRequest.
type SyncResult struct {
	Status    SyncStatus     `json:"status"`
	Applied   []string       `json:"applied,omitempty"`
	Conflicts []RuleConflict `json:"conflicts,omitempty"`
	Message   string         `json:"message,omitempty"`
}


