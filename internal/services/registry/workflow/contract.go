package workflow

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/roleplay-registry/internal/platform/errors"
	"github.com/louisbranch/roleplay-registry/internal/services/registry/domain/entity"
	"github.com/louisbranch/roleplay-registry/internal/services/registry/domain/policy"
)

// CheckResult holds the business and gang sharing one id. Either may be nil.
type CheckResult struct {
	Business *entity.Registration
	Gang     *entity.Registration
}

// CreateContract records an active contract between a business and a gang.
func (e *Engine) CreateContract(ctx context.Context, actor policy.Actor, business, gang, terms string) (entity.Contract, error) {
	var out entity.Contract
	err := e.run(ctx, entity.KindContract, "create", 0, func(ctx context.Context) error {
		if err := policy.Require(actor, policy.ActionCreateContract); err != nil {
			return err
		}
		draft, err := entity.NewContract(business, gang, terms)
		if err != nil {
			return err
		}

		unlock := e.contractLocks()
		defer unlock()
		if err := e.checkParties(&draft.Business, &draft.Gang); err != nil {
			return err
		}
		c, created := e.store.Contracts().Append(func(id int) entity.Contract {
			draft.ID = id
			return draft
		})
		if err := e.store.SaveContracts(ctx, c); err != nil {
			return err
		}
		out = created
		return nil
	})
	return out, err
}

// EditContract patches a contract. Only changed parties are re-checked.
func (e *Engine) EditContract(ctx context.Context, actor policy.Actor, id int, patch entity.ContractPatch) (entity.Contract, error) {
	var out entity.Contract
	err := e.run(ctx, entity.KindContract, "edit", id, func(ctx context.Context) error {
		if err := policy.Require(actor, policy.ActionEditContract); err != nil {
			return err
		}

		unlock := e.contractLocks()
		defer unlock()
		c := e.store.Contracts()
		i := c.Index(id)
		if i < 0 {
			return notFound(entity.KindContract, id)
		}
		updated, err := patch.Apply(c.Records[i])
		if err != nil {
			return err
		}
		var business, gang *string
		if patch.Business != nil {
			business = &updated.Business
		}
		if patch.Gang != nil {
			gang = &updated.Gang
		}
		if err := e.checkParties(business, gang); err != nil {
			return err
		}
		if err := e.store.SaveContracts(ctx, c.Replace(i, updated)); err != nil {
			return err
		}
		out = updated
		return nil
	})
	return out, err
}

// TerminateContract hard-deletes exactly one contract.
func (e *Engine) TerminateContract(ctx context.Context, actor policy.Actor, id int) (entity.Contract, error) {
	var out entity.Contract
	err := e.run(ctx, entity.KindContract, "terminate", id, func(ctx context.Context) error {
		if err := policy.Require(actor, policy.ActionTerminateContract); err != nil {
			return err
		}

		defer e.lock(entity.KindContract)()
		c, removed, ok := e.store.Contracts().Remove(id)
		if !ok {
			return notFound(entity.KindContract, id)
		}
		if err := e.store.SaveContracts(ctx, c); err != nil {
			return err
		}
		out = removed
		return nil
	})
	return out, err
}

// ViewContract returns one contract.
func (e *Engine) ViewContract(ctx context.Context, actor policy.Actor, id int) (entity.Contract, error) {
	var out entity.Contract
	err := e.run(ctx, entity.KindContract, "view", id, func(ctx context.Context) error {
		if err := policy.Require(actor, policy.ActionRead); err != nil {
			return err
		}

		defer e.rlock(entity.KindContract)()
		c, ok := e.store.Contracts().Find(id)
		if !ok {
			return notFound(entity.KindContract, id)
		}
		out = c
		return nil
	})
	return out, err
}

// ListContracts returns every contract in creation order.
func (e *Engine) ListContracts(ctx context.Context, actor policy.Actor) ([]entity.Contract, error) {
	var out []entity.Contract
	err := e.run(ctx, entity.KindContract, "list", 0, func(ctx context.Context) error {
		if err := policy.Require(actor, policy.ActionRead); err != nil {
			return err
		}

		defer e.rlock(entity.KindContract)()
		out = e.store.Contracts().Records
		return nil
	})
	return out, err
}

// BusinessCheck looks id up among both businesses and gangs.
func (e *Engine) BusinessCheck(ctx context.Context, actor policy.Actor, id int) (CheckResult, error) {
	var out CheckResult
	err := e.run(ctx, entity.KindBusiness, "check", id, func(ctx context.Context) error {
		if err := policy.Require(actor, policy.ActionRead); err != nil {
			return err
		}

		defer e.rlock(entity.KindBusiness, entity.KindGang)()
		if r, ok := e.store.Registrations(entity.KindBusiness).Find(id); ok {
			out.Business = &r
		}
		if r, ok := e.store.Registrations(entity.KindGang).Find(id); ok {
			out.Gang = &r
		}
		if out.Business == nil && out.Gang == nil {
			return apperrors.WithMetadata(
				apperrors.CodeNotFound,
				fmt.Sprintf("registration %d not found", id),
				map[string]string{"ID": strconv.Itoa(id), "Kind": "registration"},
			)
		}
		return nil
	})
	return out, err
}

// contractLocks takes the contract write lock, plus read locks on both
// registration kinds when parties must be checked.
func (e *Engine) contractLocks() func() {
	if e.integrity != IntegrityStrict {
		return e.lock(entity.KindContract)
	}
	// Registration read locks come first in lock order.
	releaseParties := e.rlock(entity.KindBusiness, entity.KindGang)
	releaseContracts := e.lock(entity.KindContract)
	return func() {
		releaseContracts()
		releaseParties()
	}
}

// checkParties requires each non-nil party name to match an approved
// registration. Permissive mode accepts any name.
func (e *Engine) checkParties(business, gang *string) error {
	if e.integrity != IntegrityStrict {
		return nil
	}
	parties := []struct {
		kind  entity.Kind
		field string
		name  *string
	}{
		{entity.KindBusiness, "business", business},
		{entity.KindGang, "gang", gang},
	}
	for _, p := range parties {
		if p.name == nil {
			continue
		}
		if !e.approvedName(p.kind, *p.name) {
			return apperrors.WithMetadata(
				apperrors.CodeIntegrityViolation,
				fmt.Sprintf("%s %q is not an approved registration", p.kind, *p.name),
				map[string]string{"Field": p.field, "Name": *p.name},
			)
		}
	}
	return nil
}

func (e *Engine) approvedName(kind entity.Kind, name string) bool {
	for _, r := range e.store.Registrations(kind).Records {
		if r.Status == entity.StatusApproved && strings.EqualFold(r.Name, name) {
			return true
		}
	}
	return false
}
