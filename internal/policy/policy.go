package policy

import (
	"errors"

	"github.com/google/uuid"

	"storefront/internal/domain"
)

// ErrForbidden is the uniform denial result. It carries no detail about
// which rule matched, so callers cannot probe resource state through
// authorization responses.
var ErrForbidden = errors.New("forbidden")

// Operation is a resource operation subject to access rules.
type Operation string

const (
	OpCreate         Operation = "create"
	OpRead           Operation = "read"
	OpReadCollection Operation = "readCollection"
	OpUpdate         Operation = "update"
	OpDelete         Operation = "delete"
	OpRotatePassword Operation = "rotatePassword"
)

// Entity names an entity type in the rule table.
type Entity string

const (
	EntityUser     Entity = "user"
	EntityProduct  Entity = "product"
	EntityCategory Entity = "category"
	EntityComment  Entity = "comment"
	EntityOrder    Entity = "order"
)

// Caller is the authenticated principal of the current request. A nil
// *Caller means the request is anonymous.
type Caller struct {
	ID    uuid.UUID
	Roles []string
}

// HasRole reports whether the caller holds role. Every authenticated caller
// implicitly holds the base role.
func (c *Caller) HasRole(role string) bool {
	if c == nil {
		return false
	}
	if role == domain.RoleUser {
		return true
	}
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the caller holds the admin role.
func (c *Caller) IsAdmin() bool {
	return c.HasRole(domain.RoleAdmin)
}

// rule decides a single (entity, operation) cell of the table. target is
// the entity instance under access, or nil for collection operations.
type rule func(c *Caller, target any) bool

// Evaluator decides whether a caller may perform an operation on an entity.
type Evaluator struct {
	rules map[Entity]map[Operation]rule
}

// NewEvaluator builds the evaluator with the full access rule table.
func NewEvaluator() *Evaluator {
	anyone := func(*Caller, any) bool { return true }
	authenticated := func(c *Caller, _ any) bool { return c != nil }
	admin := func(c *Caller, _ any) bool { return c.IsAdmin() }

	adminOrSelf := func(c *Caller, target any) bool {
		if c.IsAdmin() {
			return true
		}
		user, ok := target.(*domain.User)
		return ok && c != nil && user != nil && user.ID == c.ID
	}

	self := func(c *Caller, target any) bool {
		user, ok := target.(*domain.User)
		return ok && c != nil && user != nil && user.ID == c.ID
	}

	// Base role, or the comment's owning user.
	commentOwnerOrBase := func(c *Caller, target any) bool {
		if c.HasRole(domain.RoleUser) {
			return true
		}
		comment, ok := target.(*domain.Comment)
		return ok && c != nil && comment != nil && comment.UserID == c.ID
	}

	ownerOrAdmin := func(c *Caller, target any) bool {
		if c.IsAdmin() {
			return true
		}
		owner, ok := target.(*domain.User)
		return ok && c != nil && owner != nil && owner.ID == c.ID
	}

	return &Evaluator{
		rules: map[Entity]map[Operation]rule{
			EntityUser: {
				OpCreate:         admin,
				OpReadCollection: admin,
				OpRead:           adminOrSelf,
				OpUpdate:         adminOrSelf,
				OpDelete:         adminOrSelf,
				OpRotatePassword: self,
			},
			EntityProduct: {
				OpCreate:         admin,
				OpRead:           anyone,
				OpReadCollection: anyone,
				OpUpdate:         admin,
				OpDelete:         admin,
			},
			EntityCategory: {
				OpCreate:         admin,
				OpRead:           anyone,
				OpReadCollection: anyone,
				OpUpdate:         admin,
				OpDelete:         admin,
			},
			EntityComment: {
				OpCreate:         authenticated,
				OpRead:           anyone,
				OpReadCollection: commentOwnerOrBase,
				OpUpdate:         authenticated,
				OpDelete:         authenticated,
			},
			EntityOrder: {
				OpCreate: authenticated,
				OpUpdate: authenticated,
				// Orders are exposed as a sub-resource of their owning
				// user; target is that user.
				OpReadCollection: ownerOrAdmin,
				OpRead:           ownerOrAdmin,
			},
		},
	}
}

// Evaluate returns nil when caller may perform op on the given entity type,
// ErrForbidden otherwise. Operations absent from the table are denied.
func (e *Evaluator) Evaluate(caller *Caller, entity Entity, op Operation, target any) error {
	ops, ok := e.rules[entity]
	if !ok {
		return ErrForbidden
	}
	r, ok := ops[op]
	if !ok {
		return ErrForbidden
	}
	if !r(caller, target) {
		return ErrForbidden
	}
	return nil
}
