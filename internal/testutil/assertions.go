package testutil

import (
	"bytes"
	"testing"

	"github.com/leengari/postddl/internal/domain/data"
	"github.com/leengari/postddl/internal/scan"
)

// AssertAttribute checks that a request carries attribute name with the expected payload
func AssertAttribute(t *testing.T, req *scan.Request, name string, expected []byte) {
	t.Helper()
	actual, ok := req.Attributes[name]
	if !ok {
		t.Errorf("expected attribute %s to be set", name)
		return
	}
	if !bytes.Equal(actual, expected) {
		t.Errorf("attribute %s: expected %x, got %x", name, expected, actual)
	}
}

// AssertNoAttribute checks that a request does not carry attribute name
func AssertNoAttribute(t *testing.T, req *scan.Request, name string) {
	t.Helper()
	if v, ok := req.Attributes[name]; ok {
		t.Errorf("did not expect attribute %s, got %x", name, v)
	}
}

// AssertCount checks the count carried by a single aggregate row
func AssertCount(t *testing.T, row *data.Tuple, expected int64) {
	t.Helper()
	if row == nil {
		t.Errorf("expected a count row, got nil")
		return
	}
	v, ok := row.GetValue(data.SingleColumnFamily, data.SingleColumn)
	if !ok {
		t.Errorf("row %q has no aggregate cell", row.Key)
		return
	}
	actual, err := data.DecodeLong(v)
	if err != nil {
		t.Errorf("decode count: %v", err)
		return
	}
	if actual != expected {
		t.Errorf("expected count %d, got %d", expected, actual)
	}
}

// FamilyNames returns the projected family names of a request
func FamilyNames(req *scan.Request) []string {
	names := make([]string, 0, len(req.Families))
	for _, f := range req.Families {
		names = append(names, string(f.Family))
	}
	return names
}
