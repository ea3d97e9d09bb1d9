package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agent-gw-poc/internal/contract"
)

func TestDecodeRead(t *testing.T) {
	data := []byte(`{
		"steps": [{
			"op": "read",
			"resource": "cases",
			"select": ["case_id", "client_name"],
			"where": [{"field": "status", "op": "=", "value": "OPEN"}],
			"order_by": [{"field": "created_at", "dir": "desc"}],
			"limit": 10
		}]
	}`)

	plan, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, plan.Steps, 1)

	read, ok := plan.Primary().(*ReadOperation)
	require.True(t, ok)
	assert.Equal(t, "cases", read.Resource)
	assert.Equal(t, []string{"case_id", "client_name"}, read.Select)
	assert.Equal(t, 10, read.Limit)
	assert.Equal(t, 0, read.Offset)
	require.Len(t, read.Where, 1)
	assert.Equal(t, "OPEN", read.Where[0].Value)
	assert.Equal(t, "desc", read.OrderBy[0].Direction())

	assert.True(t, plan.IsReadOnly())
	assert.Equal(t, []string{"cases"}, plan.Resources())
}

func TestDecodeReadDefaultsLimit(t *testing.T) {
	plan, err := Decode([]byte(`{"steps": [{"op": "read", "resource": "cases", "select": ["case_id"]}]}`))
	require.NoError(t, err)

	read := plan.Primary().(*ReadOperation)
	assert.Equal(t, DefaultLimit, read.Limit)
}

func TestDecodeUppercaseTags(t *testing.T) {
	plan, err := Decode([]byte(`{"steps": [{"op": "READ", "resource": "cases", "select": ["case_id"], "limit": 5}]}`))
	require.NoError(t, err)
	read, ok := plan.Primary().(*ReadOperation)
	require.True(t, ok)
	assert.Equal(t, 5, read.Limit)
}

func TestDecodeBareOperation(t *testing.T) {
	plan, err := Decode([]byte(`{"op": "insert", "resource": "cases", "values": {"client_name": "Acme"}}`))
	require.NoError(t, err)
	require.Len(t, plan.Steps, 1)

	ins := plan.Primary().(*InsertOperation)
	assert.Equal(t, contract.OpInsert, ins.Kind())
	assert.Equal(t, "Acme", ins.Values["client_name"])
	assert.False(t, plan.IsReadOnly())
}

func TestDecodeUpdate(t *testing.T) {
	plan, err := Decode([]byte(`{
		"steps": [{
			"op": "update",
			"resource": "cases",
			"where": [{"field": "case_id", "op": "=", "value": "0d1e3a5c-1111-4222-8333-444455556666"}],
			"update": {"status": "CLOSED"},
			"limit": 1
		}]
	}`))
	require.NoError(t, err)

	upd := plan.Primary().(*UpdateOperation)
	assert.Equal(t, 1, upd.Limit)
	assert.Equal(t, "CLOSED", upd.Update["status"])
}

func TestDecodeDelete(t *testing.T) {
	plan, err := Decode([]byte(`{"steps": [{"op": "delete", "resource": "cases"}]}`))
	require.NoError(t, err)
	assert.Equal(t, contract.Operation("DELETE"), plan.Primary().Kind())
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown op", `{"steps": [{"op": "truncate", "resource": "cases"}]}`},
		{"missing op tag", `{"steps": [{"resource": "cases"}]}`},
		{"not json", `select * from cases`},
		{"bare object without op", `{"resource": "cases"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestFingerprintStable(t *testing.T) {
	a := &DSL{Steps: []Operation{&ReadOperation{
		Resource: "cases",
		Select:   []string{"case_id"},
		Where:    []WhereClause{{Field: "status", Op: "=", Value: "OPEN"}},
		Limit:    10,
	}}}
	b := &DSL{Steps: []Operation{&ReadOperation{
		Resource: "cases",
		Select:   []string{"case_id"},
		Where:    []WhereClause{{Field: "status", Op: "=", Value: "OPEN"}},
		Limit:    10,
	}}}

	fpA, err := Fingerprint(a)
	require.NoError(t, err)
	fpB, err := Fingerprint(b)
	require.NoError(t, err)

	assert.Equal(t, fpA, fpB)
	assert.Len(t, fpA, 16)
}

func TestFingerprintSensitiveToValues(t *testing.T) {
	open := &DSL{Steps: []Operation{&ReadOperation{
		Resource: "cases", Select: []string{"case_id"},
		Where: []WhereClause{{Field: "status", Op: "=", Value: "OPEN"}},
		Limit: 10,
	}}}
	closed := &DSL{Steps: []Operation{&ReadOperation{
		Resource: "cases", Select: []string{"case_id"},
		Where: []WhereClause{{Field: "status", Op: "=", Value: "CLOSED"}},
		Limit: 10,
	}}}

	fpOpen, err := Fingerprint(open)
	require.NoError(t, err)
	fpClosed, err := Fingerprint(closed)
	require.NoError(t, err)
	assert.NotEqual(t, fpOpen, fpClosed)
}

func TestFingerprintSurvivesDecodeRoundTrip(t *testing.T) {
	plan := &DSL{Steps: []Operation{&UpdateOperation{
		Resource: "documents",
		Where:    []WhereClause{{Field: "document_id", Op: "=", Value: "abc"}},
		Update:   map[string]interface{}{"status": "COMPLETED"},
		Limit:    1,
	}}}

	before, err := Fingerprint(plan)
	require.NoError(t, err)

	encoded, err := plan.MarshalJSON()
	require.NoError(t, err)
	decoded, err := Decode(encoded)
	require.NoError(t, err)

	after, err := Fingerprint(decoded)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
