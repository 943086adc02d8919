// Package roster grants external group membership when a registration is
// approved. Every call is best effort: failures are logged and reported,
// never returned.
package roster

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	apperrors "github.com/louisbranch/roleplay-registry/internal/platform/errors"
	"github.com/louisbranch/roleplay-registry/internal/platform/timeouts"
)

// Group is an external group handle.
type Group struct {
	ID   string
	Name string
}

// Directory creates groups and adds members to them.
type Directory interface {
	EnsureGroup(ctx context.Context, name string) (Group, error)
	AddMember(ctx context.Context, group Group, userRef string) error
}

// IdentityResolver confirms a user reference is addressable.
type IdentityResolver interface {
	ResolveUser(ctx context.Context, userRef string) error
}

// SyncPolicy controls how external calls are attempted.
type SyncPolicy struct {
	// Retries is the number of extra attempts after a failed call.
	Retries int
	// Timeout bounds each attempt. Zero disables the bound.
	Timeout time.Duration
	// Backoff is the pause between attempts.
	Backoff time.Duration
}

// DefaultSyncPolicy makes one attempt per call and moves on.
var DefaultSyncPolicy = SyncPolicy{Retries: 0, Timeout: timeouts.RosterRequest}

// Operation names reported on failure.
const (
	OpEnsureGroup = "ensure_group"
	OpResolveUser = "resolve_user"
	OpAddMember   = "add_member"
)

// Report describes what a grant accomplished.
type Report struct {
	Skipped          bool
	Group            Group
	GroupEnsured     bool
	IdentityResolved bool
	MemberAdded      bool
	// Err is an EXTERNAL_SYNC_FAILED error for the first failed operation.
	Err error
}

// OK reports whether the grant completed or was intentionally skipped.
func (r Report) OK() bool {
	return r.Err == nil
}

// Synchronizer turns an approval into group and membership calls.
type Synchronizer struct {
	directory  Directory
	identities IdentityResolver
	policy     SyncPolicy
	sleep      func(context.Context, time.Duration)
}

// NewSynchronizer builds a synchronizer. A nil directory makes every grant
// a skipped no-op; a nil resolver skips identity confirmation.
func NewSynchronizer(directory Directory, identities IdentityResolver, policy SyncPolicy) *Synchronizer {
	if policy.Retries < 0 {
		policy.Retries = 0
	}
	return &Synchronizer{
		directory:  directory,
		identities: identities,
		policy:     policy,
		sleep:      sleepContext,
	}
}

// Policy returns the configured sync policy.
func (s *Synchronizer) Policy() SyncPolicy {
	return s.policy
}

// Grant ensures the group named groupName exists and adds userRef to it.
func (s *Synchronizer) Grant(ctx context.Context, groupName, userRef string) Report {
	if s == nil || s.directory == nil {
		return Report{Skipped: true}
	}
	groupName = strings.TrimSpace(groupName)
	userRef = strings.TrimSpace(userRef)

	var report Report
	err := s.attempt(ctx, func(callCtx context.Context) error {
		group, err := s.directory.EnsureGroup(callCtx, groupName)
		if err != nil {
			return err
		}
		report.Group = group
		return nil
	})
	if err != nil {
		report.Err = syncError(OpEnsureGroup, groupName, err)
		return report
	}
	report.GroupEnsured = true

	if s.identities != nil {
		err := s.attempt(ctx, func(callCtx context.Context) error {
			return s.identities.ResolveUser(callCtx, userRef)
		})
		if err != nil {
			report.Err = syncError(OpResolveUser, userRef, err)
			return report
		}
		report.IdentityResolved = true
	}

	err = s.attempt(ctx, func(callCtx context.Context) error {
		return s.directory.AddMember(callCtx, report.Group, userRef)
	})
	if err != nil {
		report.Err = syncError(OpAddMember, userRef, err)
		return report
	}
	report.MemberAdded = true
	return report
}

func (s *Synchronizer) attempt(ctx context.Context, call func(context.Context) error) error {
	var err error
	for i := 0; i <= s.policy.Retries; i++ {
		if i > 0 && s.policy.Backoff > 0 {
			s.sleep(ctx, s.policy.Backoff)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		callCtx, cancel := ctx, context.CancelFunc(func() {})
		if s.policy.Timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, s.policy.Timeout)
		}
		err = call(callCtx)
		cancel()
		if err == nil {
			return nil
		}
	}
	return err
}

func syncError(op, target string, cause error) error {
	log.Printf("roster: %s %q: %v", op, target, cause)
	return apperrors.WrapWithMetadata(
		apperrors.CodeExternalSyncFailed,
		fmt.Sprintf("roster %s %q", op, target),
		map[string]string{"Operation": op, "Target": target},
		cause,
	)
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
