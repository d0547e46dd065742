package authz

import (
	"fmt"

	"github.com/resortstay/resort-booking/internal/domain"
)

// Action is a governed operation on a resource type
type Action string

const (
	ActionViewAny        Action = "viewAny"
	ActionView           Action = "view"
	ActionCreate         Action = "create"
	ActionUpdate         Action = "update"
	ActionDelete         Action = "delete"
	ActionDeleteAny      Action = "deleteAny"
	ActionRestore        Action = "restore"
	ActionRestoreAny     Action = "restoreAny"
	ActionForceDelete    Action = "forceDelete"
	ActionForceDeleteAny Action = "forceDeleteAny"
	ActionReorder        Action = "reorder"
)

// Predicate decides access for a single actor/resource pair. Predicates are
// pure: they read the actor's role and managed-resort set and the resource's
// fields, nothing else.
type Predicate func(actor *domain.Actor, res domain.Resource) bool

// Policy is the per-resource-kind rule set layered over the base rules.
type Policy struct {
	// CanAccess is the ownership predicate delegated to for view/update when
	// the actor is a resort manager. Nil falls back to the resort-scope
	// predicate.
	CanAccess Predicate
	// AllowManagerCreate widens create beyond admin to resort managers.
	AllowManagerCreate bool
	// Overrides fully replace the base decision for an action, including the
	// admin short-circuit. Used for self-only rules and admin self-delete.
	Overrides map[Action]Predicate
}

// Engine evaluates whether an actor may perform an action on a resource.
// It holds a policy table keyed by resource kind; kinds without an entry
// get the base rules with the resort-scope fallback predicate.
type Engine struct {
	policies map[domain.ResourceKind]Policy
}

// NewEngine returns an engine loaded with the default policy table
func NewEngine() *Engine {
	return &Engine{policies: defaultPolicies()}
}

// Can reports whether the action is permitted
func (e *Engine) Can(actor *domain.Actor, action Action, res domain.Resource) bool {
	if actor == nil || !actor.Role.IsValid() {
		return false
	}

	var policy Policy
	if res != nil {
		policy = e.policies[res.ResourceKind()]
	}

	if ov, ok := policy.Overrides[action]; ok {
		return ov(actor, res)
	}

	if actor.IsAdmin() {
		return true
	}

	switch action {
	case ActionViewAny:
		return actor.IsResortManager()
	case ActionView, ActionUpdate:
		if !actor.IsResortManager() || res == nil {
			return false
		}
		if policy.CanAccess != nil {
			return policy.CanAccess(actor, res)
		}
		return managesOwningResort(actor, res)
	case ActionCreate:
		return actor.IsResortManager() && policy.AllowManagerCreate
	case ActionDelete, ActionDeleteAny,
		ActionRestore, ActionRestoreAny,
		ActionForceDelete, ActionForceDeleteAny,
		ActionReorder:
		return false
	}
	return false
}

// Authorize returns ErrForbidden when the action is not permitted. It must
// run before any side effect of the requested operation.
func (e *Engine) Authorize(actor *domain.Actor, action Action, res domain.Resource) error {
	if e.Can(actor, action, res) {
		return nil
	}
	if res != nil {
		return fmt.Errorf("%s %s: %w", action, res.ResourceKind(), domain.ErrForbidden)
	}
	return fmt.Errorf("%s: %w", action, domain.ErrForbidden)
}

// managesOwningResort is the fallback ownership predicate: resources that
// can name their resort are tested against the actor's managed set,
// everything else is denied.
func managesOwningResort(actor *domain.Actor, res domain.Resource) bool {
	scoped, ok := res.(domain.ResortScoped)
	if !ok {
		return false
	}
	resortID, ok := scoped.OwningResortID()
	if !ok {
		return false
	}
	return actor.Manages(resortID)
}
