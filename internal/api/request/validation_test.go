package request

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/fedreg/internal/model"
)

func TestRequireID(t *testing.T) {
	uid, err := RequireID("0b6c3bd0-2f3e-4a43-9f1e-8d3f6c1c1d2a")
	require.NoError(t, err)
	assert.Equal(t, "0b6c3bd0-2f3e-4a43-9f1e-8d3f6c1c1d2a", uid)

	_, err = RequireID("")
	assert.EqualError(t, err, "missing required ID")
}

func newBody(t *testing.T, body string) *http.Request {
	t.Helper()
	r, err := http.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	require.NoError(t, err)
	return r
}

func TestDecode_Provider(t *testing.T) {
	var p model.Provider
	err := Decode(newBody(t, `{"name":"openstack-1","type":"openstack","status":"active","support_emails":["ops@example.org"]}`), &p)
	require.NoError(t, err)
	assert.Equal(t, "openstack-1", p.Name)
	assert.Equal(t, []string{"ops@example.org"}, p.SupportEmails)
}

func TestDecode_InvalidJSON(t *testing.T) {
	var p model.Provider
	err := Decode(newBody(t, `{"name":`), &p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestDecode_ValidationFails(t *testing.T) {
	var p model.Provider
	err := Decode(newBody(t, `{"name":"openstack-1","type":"vmware","status":"active"}`), &p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation error")

	err = Decode(newBody(t, `{"name":"openstack-1","type":"openstack","status":"active","support_emails":["not-an-email"]}`), &p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation error")
}

func TestDecode_RegistryRules(t *testing.T) {
	var flavor model.Flavor
	err := Decode(newBody(t, `{"name":"tiny","uuid":"f-1","gpu_model":"A100"}`), &flavor)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation error")

	var sla model.SLA
	err = Decode(newBody(t, `{"doc_uuid":"d","start_date":"2025-01-01","end_date":"2024-01-01"}`), &sla)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gtfield")
}

func TestDecode_PartialUpdate(t *testing.T) {
	var in model.FlavorUpdate
	require.NoError(t, Decode(newBody(t, `{"ram":2048}`), &in))
	require.NotNil(t, in.RAM)
	assert.Equal(t, 2048, *in.RAM)
	assert.Nil(t, in.Name)
}
