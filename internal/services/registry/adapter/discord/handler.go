// Package discord adapts Discord slash commands to the registry workflow.
package discord

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"strings"

	"github.com/louisbranch/roleplay-registry/internal/platform/config"
	apperrors "github.com/louisbranch/roleplay-registry/internal/platform/errors"
	"github.com/louisbranch/roleplay-registry/internal/platform/i18n/catalog"
	"github.com/louisbranch/roleplay-registry/internal/platform/requestctx"
	"github.com/louisbranch/roleplay-registry/internal/services/registry/domain/entity"
	"github.com/louisbranch/roleplay-registry/internal/services/registry/domain/policy"
	"github.com/louisbranch/roleplay-registry/internal/services/registry/workflow"
)

// Reply is the content sent back for one invocation.
type Reply struct {
	Content   string
	Ephemeral bool
}

type route func(ctx context.Context, actor policy.Actor, inv Invocation, r renderer) (string, error)

// Handler answers slash commands against a workflow engine.
type Handler struct {
	engine      *workflow.Engine
	adminRoleID string
	locale      string
	routes      map[string]route
}

// NewHandler builds a handler. Members holding adminRoleID are privileged;
// locale is used when an interaction carries none.
func NewHandler(engine *workflow.Engine, adminRoleID, locale string) (*Handler, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if strings.TrimSpace(adminRoleID) == "" {
		return nil, fmt.Errorf("admin role id is required")
	}
	h := &Handler{
		engine:      engine,
		adminRoleID: adminRoleID,
		locale:      config.StringOr(locale, catalog.BaseLocale),
	}
	h.routes = h.buildRoutes()
	return h, nil
}

func (h *Handler) buildRoutes() map[string]route {
	routes := map[string]route{
		CmdBotStatus:         h.botStatus,
		CmdPing:              h.ping,
		CmdCommands:          h.commands,
		CmdCreateContract:    h.createContract,
		CmdViewContract:      h.viewContract,
		CmdListContracts:     h.listContracts,
		CmdEditContract:      h.editContract,
		CmdTerminateContract: h.terminateContract,
		CmdBusinessCheck:     h.businessCheck,
	}
	for kind, names := range map[entity.Kind]registrationCommands{
		entity.KindBusiness: {
			register: CmdRegisterBusiness, approve: CmdApproveBusiness, deny: CmdDenyBusiness,
			directory: CmdBusinessDirectory, info: CmdBusinessInfo, audit: CmdAuditBusiness,
			remove: CmdTerminateBusiness, update: CmdUpdateBusiness,
		},
		entity.KindGang: {
			register: CmdApplyGang, approve: CmdApproveGang, deny: CmdDenyGang,
			directory: CmdGangList, info: CmdGangInfo, audit: CmdAuditGang,
			remove: CmdDisbandGang, update: CmdUpdateGang,
		},
	} {
		routes[names.register] = h.register(kind)
		routes[names.approve] = h.approve(kind)
		routes[names.deny] = h.deny(kind)
		routes[names.directory] = h.directory(kind)
		routes[names.info] = h.info(kind)
		routes[names.audit] = h.audit(kind)
		routes[names.remove] = h.remove(kind)
		routes[names.update] = h.update(kind)
	}
	return routes
}

type registrationCommands struct {
	register, approve, deny, directory, info, audit, remove, update string
}

// Handle runs one invocation and renders its reply. Failures reply
// ephemerally; a panicking route is answered with a generic failure.
func (h *Handler) Handle(ctx context.Context, inv Invocation) (reply Reply) {
	locale := inv.Locale
	if strings.TrimSpace(locale) == "" {
		locale = h.locale
	}
	r := newRenderer(locale)
	ctx = requestctx.WithCorrelationID(ctx, inv.CorrelationID)

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("discord: %s [%s]: panic: %v\n%s", inv.Command, inv.CorrelationID, rec, debug.Stack())
			reply = Reply{Content: r.text("registry.failure"), Ephemeral: true}
		}
	}()

	rt, ok := h.routes[inv.Command]
	if !ok {
		log.Printf("discord: unknown command %q [%s]", inv.Command, inv.CorrelationID)
		return Reply{Content: r.text("registry.unknown_command"), Ephemeral: true}
	}
	actor := policy.Actor{
		UserID:     inv.UserID,
		Privileged: policy.HasRole(inv.Roles, h.adminRoleID),
	}
	content, err := rt(ctx, actor, inv, r)
	if err != nil {
		if !apperrors.CodeOf(err).UserFault() {
			log.Printf("discord: %s [%s]: %v", inv.Command, inv.CorrelationID, err)
		}
		return Reply{Content: r.failure(err), Ephemeral: true}
	}
	return Reply{Content: content}
}

func (h *Handler) botStatus(_ context.Context, _ policy.Actor, _ Invocation, r renderer) (string, error) {
	return r.text("registry.online"), nil
}

func (h *Handler) ping(_ context.Context, _ policy.Actor, _ Invocation, r renderer) (string, error) {
	return r.text("registry.ping"), nil
}

func (h *Handler) commands(_ context.Context, _ policy.Actor, _ Invocation, r renderer) (string, error) {
	cmds := Commands()
	names := make([]string, 0, len(cmds))
	for _, cmd := range cmds {
		names = append(names, "/"+cmd.Name)
	}
	return r.text("registry.commands", strings.Join(names, " ")), nil
}

func (h *Handler) register(kind entity.Kind) route {
	return func(ctx context.Context, actor policy.Actor, inv Invocation, r renderer) (string, error) {
		name, err := inv.requireString(optName)
		if err != nil {
			return "", err
		}
		rec, err := h.engine.Register(ctx, actor, kind, name)
		if err != nil {
			return "", err
		}
		return r.text(kindKey(kind, "registered"), rec.Name, id(rec.ID)), nil
	}
}

func (h *Handler) approve(kind entity.Kind) route {
	return func(ctx context.Context, actor policy.Actor, inv Invocation, r renderer) (string, error) {
		recID, err := inv.requireInt(optID)
		if err != nil {
			return "", err
		}
		res, err := h.engine.Approve(ctx, actor, kind, recID)
		if err != nil {
			return "", err
		}
		msg := r.text(kindKey(kind, "approved"), id(res.Registration.ID), res.Registration.Name)
		if res.Sync.Err != nil {
			msg += "\n" + r.text("registry.sync.incomplete", syncOperation(res.Sync.Err))
		}
		return msg, nil
	}
}

func (h *Handler) deny(kind entity.Kind) route {
	return func(ctx context.Context, actor policy.Actor, inv Invocation, r renderer) (string, error) {
		recID, err := inv.requireInt(optID)
		if err != nil {
			return "", err
		}
		reason, err := inv.requireString(optReason)
		if err != nil {
			return "", err
		}
		rec, err := h.engine.Deny(ctx, actor, kind, recID, reason)
		if err != nil {
			return "", err
		}
		return r.text(kindKey(kind, "denied"), id(rec.ID), rec.Name, rec.Reason), nil
	}
}

func (h *Handler) directory(kind entity.Kind) route {
	return func(ctx context.Context, actor policy.Actor, _ Invocation, r renderer) (string, error) {
		records, err := h.engine.Directory(ctx, actor, kind)
		if err != nil {
			return "", err
		}
		if len(records) == 0 {
			return r.text(kindKey(kind, "empty")), nil
		}
		return r.text(kindKey(kind, "directory"), r.registrationItems(records)), nil
	}
}

func (h *Handler) info(kind entity.Kind) route {
	return func(ctx context.Context, actor policy.Actor, inv Invocation, r renderer) (string, error) {
		recID, err := inv.requireInt(optID)
		if err != nil {
			return "", err
		}
		rec, err := h.engine.Info(ctx, actor, kind, recID)
		if err != nil {
			return "", err
		}
		return r.text(kindKey(kind, "info"), id(rec.ID), rec.Name, r.status(rec.Status), rec.Holder), nil
	}
}

func (h *Handler) audit(kind entity.Kind) route {
	return func(ctx context.Context, actor policy.Actor, inv Invocation, r renderer) (string, error) {
		recID, err := inv.requireInt(optID)
		if err != nil {
			return "", err
		}
		res, err := h.engine.Audit(ctx, actor, kind, recID)
		if err != nil {
			return "", err
		}
		rec := res.Registration
		lines := []string{r.text(kindKey(kind, "audit"), id(rec.ID), rec.Name, r.status(rec.Status), rec.Holder)}
		if rec.Reason != "" {
			lines = append(lines, r.text("registry.audit.reason", rec.Reason))
		}
		if len(res.Contracts) == 0 {
			lines = append(lines, r.text("registry.audit.no_contracts", r.label("core.none", "none")))
		} else {
			lines = append(lines, r.text("registry.audit.contracts", r.contractItems(res.Contracts)))
		}
		return strings.Join(lines, "\n"), nil
	}
}

func (h *Handler) remove(kind entity.Kind) route {
	return func(ctx context.Context, actor policy.Actor, inv Invocation, r renderer) (string, error) {
		recID, err := inv.requireInt(optID)
		if err != nil {
			return "", err
		}
		rec, err := h.engine.Remove(ctx, actor, kind, recID)
		if err != nil {
			return "", err
		}
		return r.text(kindKey(kind, "terminated"), id(rec.ID)), nil
	}
}

func (h *Handler) update(kind entity.Kind) route {
	return func(ctx context.Context, actor policy.Actor, inv Invocation, r renderer) (string, error) {
		target, err := inv.requireString(optTarget)
		if err != nil {
			return "", err
		}
		var patch entity.RegistrationPatch
		if patch.Name, err = inv.optionalString(optName); err != nil {
			return "", err
		}
		if patch.Reason, err = inv.optionalString(optReason); err != nil {
			return "", err
		}
		status, err := inv.optionalString(optStatus)
		if err != nil {
			return "", err
		}
		if status != nil {
			s := entity.Status(strings.ToLower(*status))
			patch.Status = &s
		}
		rec, err := h.engine.Update(ctx, actor, kind, target, patch)
		if err != nil {
			return "", err
		}
		return r.text(kindKey(kind, "updated"), id(rec.ID), rec.Name, r.status(rec.Status)), nil
	}
}

func (h *Handler) createContract(ctx context.Context, actor policy.Actor, inv Invocation, r renderer) (string, error) {
	var business, gang, terms string
	var err error
	if business, err = inv.requireString(optBusiness); err != nil {
		return "", err
	}
	if gang, err = inv.requireString(optGang); err != nil {
		return "", err
	}
	if terms, err = inv.requireString(optTerms); err != nil {
		return "", err
	}
	c, err := h.engine.CreateContract(ctx, actor, business, gang, terms)
	if err != nil {
		return "", err
	}
	return r.text("registry.contract.created", id(c.ID), c.Business, c.Gang), nil
}

func (h *Handler) viewContract(ctx context.Context, actor policy.Actor, inv Invocation, r renderer) (string, error) {
	contractID, err := inv.requireInt(optID)
	if err != nil {
		return "", err
	}
	c, err := h.engine.ViewContract(ctx, actor, contractID)
	if err != nil {
		return "", err
	}
	return r.text("registry.contract.view", id(c.ID), c.Business, c.Gang, c.Terms, r.status(c.Status)), nil
}

func (h *Handler) listContracts(ctx context.Context, actor policy.Actor, _ Invocation, r renderer) (string, error) {
	contracts, err := h.engine.ListContracts(ctx, actor)
	if err != nil {
		return "", err
	}
	if len(contracts) == 0 {
		return r.text("registry.contract.empty"), nil
	}
	return r.text("registry.contract.list", r.contractItems(contracts)), nil
}

func (h *Handler) editContract(ctx context.Context, actor policy.Actor, inv Invocation, r renderer) (string, error) {
	contractID, err := inv.requireInt(optID)
	if err != nil {
		return "", err
	}
	var patch entity.ContractPatch
	if patch.Business, err = inv.optionalString(optBusiness); err != nil {
		return "", err
	}
	if patch.Gang, err = inv.optionalString(optGang); err != nil {
		return "", err
	}
	if patch.Terms, err = inv.optionalString(optTerms); err != nil {
		return "", err
	}
	c, err := h.engine.EditContract(ctx, actor, contractID, patch)
	if err != nil {
		return "", err
	}
	return r.text("registry.contract.updated", id(c.ID)), nil
}

func (h *Handler) terminateContract(ctx context.Context, actor policy.Actor, inv Invocation, r renderer) (string, error) {
	contractID, err := inv.requireInt(optID)
	if err != nil {
		return "", err
	}
	c, err := h.engine.TerminateContract(ctx, actor, contractID)
	if err != nil {
		return "", err
	}
	return r.text("registry.contract.terminated", id(c.ID)), nil
}

func (h *Handler) businessCheck(ctx context.Context, actor policy.Actor, inv Invocation, r renderer) (string, error) {
	recID, err := inv.requireInt(optID)
	if err != nil {
		return "", err
	}
	res, err := h.engine.BusinessCheck(ctx, actor, recID)
	if err != nil {
		return "", err
	}
	var lines []string
	if b := res.Business; b != nil {
		lines = append(lines, r.text("registry.check.business", id(b.ID), b.Name, r.status(b.Status)))
	}
	if g := res.Gang; g != nil {
		lines = append(lines, r.text("registry.check.gang", id(g.ID), g.Name, r.status(g.Status)))
	}
	return strings.Join(lines, "\n"), nil
}

func kindKey(kind entity.Kind, suffix string) string {
	return "registry." + string(kind) + "." + suffix
}

// syncOperation names the roster step that failed.
func syncOperation(err error) string {
	if domainErr, ok := apperrors.As(err); ok {
		if op := domainErr.Metadata["Operation"]; op != "" {
			return op
		}
	}
	return err.Error()
}
