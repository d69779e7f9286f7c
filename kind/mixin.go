package kind

// Mixin declares a reusable bundle of PropertyDescriptor values that several
// node or edge kinds share (for example a tenant-scoping column, or a set of
// audit fields beyond the ones Meta already carries). It mirrors the
// schema-mixin idiom the wider ecosystem uses for shared field sets, but
// here it produces plain PropertyDescriptor slices rather than a full
// schema-builder DSL, since kind.NodeKind/EdgeKind take their Properties
// directly.
type Mixin interface {
	// Properties returns the property descriptors this mixin contributes.
	// Implementations must return a fresh slice each call; callers may
	// append to the result.
	Properties() []PropertyDescriptor
}

// Compose concatenates the properties of every mixin, in order, followed by
// own. It is a convenience for building a NodeKind/EdgeKind's Properties
// field out of shared mixins plus kind-specific fields:
//
//	kind.NodeKind{
//	    Name:       "Invoice",
//	    Properties: kind.Compose([]kind.Mixin{mixin.TenantID{}, mixin.Audit{}}, ownProps...),
//	}
//
// Compose does not deduplicate by name: when a mixin and own declare the
// same property name, both descriptors stay in the returned slice, and
// neither Compose nor Build reports the duplicate.
func Compose(mixins []Mixin, own ...PropertyDescriptor) []PropertyDescriptor {
	var props []PropertyDescriptor
	for _, m := range mixins {
		props = append(props, m.Properties()...)
	}
	props = append(props, own...)
	return props
}
