package schema_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevemurr/vitrine/schema"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestValidateNilSchema(t *testing.T) {
	assert.NoError(t, schema.Validate(nil, map[string]any{"anything": "goes"}))
}

func TestValidateTypeUnion(t *testing.T) {
	s := &schema.Schema{Types: []string{schema.String, schema.Number}}

	assert.NoError(t, schema.Validate(s, "x"))
	assert.NoError(t, schema.Validate(s, float64(3)))
	err := schema.Validate(s, true)
	assert.EqualError(t, err, "$: expected string or number, got boolean")
}

func TestValidateNestedProperties(t *testing.T) {
	s := &schema.Schema{
		Types: []string{schema.Object},
		Properties: map[string]*schema.Schema{
			"tags": {Types: []string{schema.Array}, Items: &schema.Schema{Types: []string{schema.String}}},
		},
	}

	assert.NoError(t, schema.Validate(s, decode(t, `{"tags":["a","b"]}`)))
	assert.EqualError(t, schema.Validate(s, decode(t, `{"tags":["a",1]}`)), "$.tags[1]: expected string, got number")
}

func TestValidateClosed(t *testing.T) {
	s := &schema.Schema{
		Types:      []string{schema.Object},
		Properties: map[string]*schema.Schema{"a": {}},
		Closed:     true,
	}

	assert.NoError(t, schema.Validate(s, decode(t, `{"a":1}`)))
	assert.ErrorContains(t, schema.Validate(s, decode(t, `{"a":1,"z":2,"b":3}`)), "additional properties not allowed: b, z")
}

func TestValidateStringLength(t *testing.T) {
	s := &schema.Schema{Types: []string{schema.String}, MaxLength: 3}

	assert.NoError(t, schema.Validate(s, "ééé"))
	assert.NoError(t, schema.Validate(s, ""))
	assert.ErrorContains(t, schema.Validate(s, "abcd"), "greater than maxLength")
}

func TestProductPatch(t *testing.T) {
	ok := []string{
		`{"name":"Test Gadget"}`,
		`{"slug":"x","tags":"a, b","featured":"1","isNew":true}`,
		`{"name":"X","type":["retail","hr"],"deploy":null,"featured":1}`,
		`{"name":"X","heroTitle":"kept"}`,
	}
	for _, body := range ok {
		assert.NoError(t, schema.Validate(schema.ProductPatch, decode(t, body)), body)
	}

	bad := []string{
		`[]`,
		`{"name":{"first":"x"}}`,
		`{"tags":[["nested"]]}`,
		`{"featured":{}}`,
	}
	for _, body := range bad {
		assert.Error(t, schema.Validate(schema.ProductPatch, decode(t, body)), body)
	}
}

func TestQuoteAndWaitlist(t *testing.T) {
	assert.NoError(t, schema.Validate(schema.Quote, decode(t, `{"ref":"Q1","client":{"name":"A"},"discount":5,"solution":["x"]}`)))
	assert.Error(t, schema.Validate(schema.Quote, decode(t, `{"ref":"Q1","client":"A"}`)))
	assert.NoError(t, schema.Validate(schema.Quote, decode(t, `{"ref":"Q1","discount":"5"}`)))
	assert.Error(t, schema.Validate(schema.Quote, decode(t, `{"discount":true}`)))

	assert.NoError(t, schema.Validate(schema.Waitlist, decode(t, `{"name":"Awa","email":"a@b.c"}`)))
	assert.NoError(t, schema.Validate(schema.Waitlist, decode(t, `{"name":"Awa","phone":70123456}`)))
	assert.Error(t, schema.Validate(schema.Waitlist, decode(t, `{"name":"Awa","phone":[1]}`)))
	long := `{"note":"` + strings.Repeat("x", 2001) + `"}`
	assert.Error(t, schema.Validate(schema.Waitlist, decode(t, long)))

	assert.NoError(t, schema.Validate(schema.Login, decode(t, `{"username":"admin","password":"admin123"}`)))
	assert.Error(t, schema.Validate(schema.Login, decode(t, `{"username":1}`)))
	assert.ErrorContains(t, schema.Validate(schema.Login, decode(t, `{"username":"admin","role":"root"}`)),
		"additional properties not allowed: role")
}
