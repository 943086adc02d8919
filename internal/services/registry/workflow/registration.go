package workflow

import (
	"context"
	"log"
	"slices"

	"github.com/louisbranch/roleplay-registry/internal/platform/requestctx"
	"github.com/louisbranch/roleplay-registry/internal/services/registry/domain/entity"
	"github.com/louisbranch/roleplay-registry/internal/services/registry/domain/policy"
	"github.com/louisbranch/roleplay-registry/internal/services/registry/roster"
)

// ApprovalResult is an approved registration and the outcome of its
// membership grant. Sync failures never undo the approval.
type ApprovalResult struct {
	Registration entity.Registration
	Sync         roster.Report
}

// AuditResult is a registration and the contracts naming it.
type AuditResult struct {
	Registration entity.Registration
	Contracts    []entity.Contract
}

// Register records a pending business or gang held by the caller.
func (e *Engine) Register(ctx context.Context, actor policy.Actor, kind entity.Kind, name string) (entity.Registration, error) {
	var out entity.Registration
	err := e.run(ctx, kind, "register", 0, func(ctx context.Context) error {
		if err := requireApprovable(kind); err != nil {
			return err
		}
		if err := policy.Require(actor, policy.ActionRegister); err != nil {
			return err
		}
		draft, err := entity.NewRegistration(name, actor.UserID)
		if err != nil {
			return err
		}

		defer e.lock(kind)()
		c, created := e.store.Registrations(kind).Append(func(id int) entity.Registration {
			draft.ID = id
			return draft
		})
		if err := e.store.SaveRegistrations(ctx, kind, c); err != nil {
			return err
		}
		out = created
		return nil
	})
	return out, err
}

// Approve marks a registration approved, then grants its holder the group
// named after it.
func (e *Engine) Approve(ctx context.Context, actor policy.Actor, kind entity.Kind, id int) (ApprovalResult, error) {
	var out ApprovalResult
	err := e.run(ctx, kind, "approve", id, func(ctx context.Context) error {
		approved, err := e.mutateRegistration(ctx, actor, kind, id, policy.ActionApprove, func(r entity.Registration) (entity.Registration, error) {
			return r.Approve(), nil
		})
		if err != nil {
			return err
		}
		out.Registration = approved
		if e.roster == nil {
			out.Sync = roster.Report{Skipped: true}
			return nil
		}
		out.Sync = e.roster.Grant(ctx, approved.Name, approved.Holder)
		if out.Sync.Err != nil {
			log.Printf("workflow: approve %s %d [%s]: membership grant incomplete: %v",
				kind, id, requestctx.CorrelationIDFromContext(ctx), out.Sync.Err)
		}
		return nil
	})
	return out, err
}

// Deny marks a registration denied with a reason.
func (e *Engine) Deny(ctx context.Context, actor policy.Actor, kind entity.Kind, id int, reason string) (entity.Registration, error) {
	var out entity.Registration
	err := e.run(ctx, kind, "deny", id, func(ctx context.Context) error {
		denied, err := e.mutateRegistration(ctx, actor, kind, id, policy.ActionDeny, func(r entity.Registration) (entity.Registration, error) {
			return r.Deny(reason)
		})
		out = denied
		return err
	})
	return out, err
}

// Update patches the registration matched by numeric id or name.
func (e *Engine) Update(ctx context.Context, actor policy.Actor, kind entity.Kind, ref string, patch entity.RegistrationPatch) (entity.Registration, error) {
	var out entity.Registration
	err := e.run(ctx, kind, "update", 0, func(ctx context.Context) error {
		if err := requireApprovable(kind); err != nil {
			return err
		}
		if err := policy.Require(actor, policy.ActionUpdate); err != nil {
			return err
		}

		defer e.lock(kind)()
		c := e.store.Registrations(kind)
		i, ok := entity.ResolveRegistration(c.Records, ref)
		if !ok {
			return notFoundRef(kind, ref)
		}
		updated, err := patch.Apply(c.Records[i])
		if err != nil {
			return err
		}
		if err := e.store.SaveRegistrations(ctx, kind, c.Replace(i, updated)); err != nil {
			return err
		}
		out = updated
		return nil
	})
	return out, err
}

// Remove hard-deletes a registration: terminate for businesses, disband for
// gangs.
func (e *Engine) Remove(ctx context.Context, actor policy.Actor, kind entity.Kind, id int) (entity.Registration, error) {
	var out entity.Registration
	err := e.run(ctx, kind, "remove", id, func(ctx context.Context) error {
		if err := requireApprovable(kind); err != nil {
			return err
		}
		if err := policy.Require(actor, policy.ActionRemove); err != nil {
			return err
		}

		defer e.lock(kind)()
		c, removed, ok := e.store.Registrations(kind).Remove(id)
		if !ok {
			return notFound(kind, id)
		}
		if err := e.store.SaveRegistrations(ctx, kind, c); err != nil {
			return err
		}
		out = removed
		return nil
	})
	return out, err
}

// Info returns one registration.
func (e *Engine) Info(ctx context.Context, actor policy.Actor, kind entity.Kind, id int) (entity.Registration, error) {
	var out entity.Registration
	err := e.run(ctx, kind, "info", id, func(ctx context.Context) error {
		if err := requireApprovable(kind); err != nil {
			return err
		}
		if err := policy.Require(actor, policy.ActionRead); err != nil {
			return err
		}

		defer e.rlock(kind)()
		r, ok := e.store.Registrations(kind).Find(id)
		if !ok {
			return notFound(kind, id)
		}
		out = r
		return nil
	})
	return out, err
}

// Directory lists registrations in creation order.
func (e *Engine) Directory(ctx context.Context, actor policy.Actor, kind entity.Kind) ([]entity.Registration, error) {
	var out []entity.Registration
	err := e.run(ctx, kind, "directory", 0, func(ctx context.Context) error {
		if err := requireApprovable(kind); err != nil {
			return err
		}
		if err := policy.Require(actor, policy.ActionRead); err != nil {
			return err
		}

		defer e.rlock(kind)()
		out = e.store.Registrations(kind).Records
		return nil
	})
	return out, err
}

// Audit returns a registration with every contract naming it.
func (e *Engine) Audit(ctx context.Context, actor policy.Actor, kind entity.Kind, id int) (AuditResult, error) {
	var out AuditResult
	err := e.run(ctx, kind, "audit", id, func(ctx context.Context) error {
		if err := requireApprovable(kind); err != nil {
			return err
		}
		if err := policy.Require(actor, policy.ActionRead); err != nil {
			return err
		}

		defer e.rlock(kind, entity.KindContract)()
		r, ok := e.store.Registrations(kind).Find(id)
		if !ok {
			return notFound(kind, id)
		}
		out.Registration = r
		contracts := e.store.Contracts().Records
		out.Contracts = slices.DeleteFunc(contracts, func(c entity.Contract) bool {
			return !c.Names(kind, r.Name)
		})
		return nil
	})
	return out, err
}

// mutateRegistration applies change to one registration under the kind's
// write lock and persists the result.
func (e *Engine) mutateRegistration(
	ctx context.Context,
	actor policy.Actor,
	kind entity.Kind,
	id int,
	action policy.Action,
	change func(entity.Registration) (entity.Registration, error),
) (entity.Registration, error) {
	if err := requireApprovable(kind); err != nil {
		return entity.Registration{}, err
	}
	if err := policy.Require(actor, action); err != nil {
		return entity.Registration{}, err
	}

	defer e.lock(kind)()
	c := e.store.Registrations(kind)
	i := c.Index(id)
	if i < 0 {
		return entity.Registration{}, notFound(kind, id)
	}
	updated, err := change(c.Records[i])
	if err != nil {
		return entity.Registration{}, err
	}
	if err := e.store.SaveRegistrations(ctx, kind, c.Replace(i, updated)); err != nil {
		return entity.Registration{}, err
	}
	return updated, nil
}
