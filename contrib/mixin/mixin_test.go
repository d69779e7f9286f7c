package mixin_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicia-ai/typegraph/contrib/mixin"
	"github.com/nicia-ai/typegraph/kind"
)

func TestTenantIDMixin(t *testing.T) {
	m := mixin.TenantID{}
	props := m.Properties()

	require.Len(t, props, 1)
	assert.Equal(t, "tenant_id", props[0].Name)
	assert.Equal(t, kind.ValueString, props[0].Type)
	assert.False(t, props[0].Array)
}

func TestAuditMixin(t *testing.T) {
	m := mixin.Audit{}
	props := m.Properties()

	require.Len(t, props, 2)
	assert.Equal(t, "created_by", props[0].Name)
	assert.Equal(t, "updated_by", props[1].Name)
}

func TestMixinsImplementInterface(t *testing.T) {
	var _ kind.Mixin = mixin.TenantID{}
	var _ kind.Mixin = mixin.Audit{}
}

func TestComposeOrdersMixinsBeforeOwnProperties(t *testing.T) {
	own := kind.PropertyDescriptor{Name: "email", Type: kind.ValueString}
	props := kind.Compose([]kind.Mixin{mixin.TenantID{}, mixin.Audit{}}, own)

	require.Len(t, props, 4)
	assert.Equal(t, "tenant_id", props[0].Name)
	assert.Equal(t, "created_by", props[1].Name)
	assert.Equal(t, "updated_by", props[2].Name)
	assert.Equal(t, "email", props[3].Name)
}

func TestComposeWithNoOwnProperties(t *testing.T) {
	props := kind.Compose([]kind.Mixin{mixin.TenantID{}})
	assert.Equal(t, []kind.PropertyDescriptor{{Name: "tenant_id", Type: kind.ValueString}}, props)
}
