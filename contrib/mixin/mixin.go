// Package mixin provides common kind.Mixin implementations for sharing
// property sets across node and edge kinds.
//
// These mixins are OPTIONAL and provided as convenient starting points.
// Users are encouraged to create their own mixins tailored to their needs.
//
// created_at/updated_at/deleted_at are not mixins here: every node and edge
// already carries them as kind.Meta columns, maintained by the Store itself
// (spec §3 invariant 6), so a CreateTime/UpdateTime/SoftDelete mixin would
// only collide with columns the Store already owns.
//
// Available mixins:
//   - TenantID: adds a tenant_id property for multi-tenant row scoping
//   - Audit: adds created_by/updated_by properties for attributing writes
//     to a principal, distinct from Meta's CreatedAt/UpdatedAt timestamps
//
// Usage:
//
//	import "github.com/nicia-ai/typegraph/contrib/mixin"
//
//	kind.NodeKind{
//	    Name:       "Invoice",
//	    Properties: kind.Compose([]kind.Mixin{mixin.TenantID{}, mixin.Audit{}}, ownProps...),
//	}
package mixin

import "github.com/nicia-ai/typegraph/kind"

// TenantID adds a tenant_id property for multi-tenancy support. Pair it with
// a query.Predicate scoping reads/writes to the caller's tenant; TenantID
// itself only declares the column, it does not enforce isolation.
//
// For different naming conventions, define your own mixin:
//
//	type WorkspaceID struct{}
//
//	func (WorkspaceID) Properties() []kind.PropertyDescriptor {
//	    return []kind.PropertyDescriptor{{Name: "workspace_id", Type: kind.ValueString}}
//	}
type TenantID struct{}

// Properties of the TenantID mixin.
func (TenantID) Properties() []kind.PropertyDescriptor {
	return []kind.PropertyDescriptor{
		{Name: "tenant_id", Type: kind.ValueString},
	}
}

var _ kind.Mixin = (*TenantID)(nil)

// Audit adds created_by/updated_by properties attributing a node or edge's
// writes to a principal (user ID, service account name). This is separate
// from kind.Meta's CreatedAt/UpdatedAt, which track when a row changed, not
// who changed it.
type Audit struct{}

// Properties of the Audit mixin.
func (Audit) Properties() []kind.PropertyDescriptor {
	return []kind.PropertyDescriptor{
		{Name: "created_by", Type: kind.ValueString},
		{Name: "updated_by", Type: kind.ValueString},
	}
}

var _ kind.Mixin = (*Audit)(nil)
