// Package schema defines the Validator contract the core treats as an
// opaque collaborator: something that parses and defaults an unchecked
// property map to a typed record, or raises a *typegraph.ValidationError.
//
// The Kind Registry and Graph Definition describe the *shape* of a node or
// edge kind's properties (names, value types, array-ness); they deliberately
// say nothing about field-level rules like "must be non-empty" or "defaults
// to now()". That responsibility belongs to a Validator, which the Store
// invokes before every create or update.
//
// # Default validator
//
// Most applications don't need a custom Validator. FieldSchema declares a
// property's constraints in one place, and NewStructValidator compiles a
// slice of them into a Validator:
//
//	v := schema.NewStructValidator([]schema.FieldSchema{
//	    schema.Field("email", kind.ValueString).Required().NotEmpty().MaxLen(255),
//	    schema.Field("age", kind.ValueNumber).Default(0).Min(0),
//	    schema.Field("createdAt", kind.ValueDate).Default(func() any { return time.Now() }),
//	})
//	props, err := v.Validate(map[string]any{"email": "a@b.com"})
//
// Unknown properties are rejected unless AllowExtra is set on the
// validator, since an unrecognised field is almost always a typo.
//
// # Custom validators
//
// Any type implementing Validator works, including ones backed by a
// generated struct, a JSON Schema document, or a hand-written function via
// ValidatorFunc. The Store never inspects the property record's shape; it
// only calls Validate and either proceeds with the returned map or
// propagates the returned error as a *typegraph.ValidationError.
package schema
