package services

import "lapak/internal/models"

// AccessPolicy decides what a principal may do with a product. Exactly one
// policy is active per deployment, selected by the AUTH_POLICY setting.
type AccessPolicy interface {
	Name() string
	CanCreate(p models.Principal) bool
	CanRead(p models.Principal, product *models.Product) bool
	CanMutate(p models.Principal, product *models.Product) bool
}

// OwnerPolicy grants access to a product only to its owner. This is the
// default policy.
type OwnerPolicy struct{}

func (OwnerPolicy) Name() string { return "owner" }

func (OwnerPolicy) CanCreate(models.Principal) bool { return true }

func (OwnerPolicy) CanRead(p models.Principal, product *models.Product) bool {
	return product.OwnerID == p.ID
}

func (OwnerPolicy) CanMutate(p models.Principal, product *models.Product) bool {
	return product.OwnerID == p.ID
}

// RolePolicy lets any authenticated principal read any product while
// restricting writes to administrators.
type RolePolicy struct{}

func (RolePolicy) Name() string { return "role" }

func (RolePolicy) CanCreate(p models.Principal) bool { return p.Admin }

func (RolePolicy) CanRead(models.Principal, *models.Product) bool { return true }

func (RolePolicy) CanMutate(p models.Principal, _ *models.Product) bool { return p.Admin }

// PolicyFromName returns the policy for a config value, defaulting to
// OwnerPolicy for unknown names.
func PolicyFromName(name string) AccessPolicy {
	if name == "role" {
		return RolePolicy{}
	}
	return OwnerPolicy{}
}
