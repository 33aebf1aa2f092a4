package jsonconv_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jsonarc/jsonarc/archive"
	"github.com/jsonarc/jsonarc/internal/oid"
	"github.com/jsonarc/jsonarc/jsonconv"
	"github.com/jsonarc/jsonarc/strdict"
	"github.com/jsonarc/jsonarc/wire"
)

func roundTripJSON(t *testing.T, in string) string {
	t.Helper()

	dict := strdict.NewSync(32, 0.01)
	doc, err := jsonconv.Decode([]byte(in), dict, oid.NewGenerator())
	require.NoError(t, err)

	w := archive.NewWriter(archive.WithSidIndex(true))
	data, err := w.Write(doc, dict)
	require.NoError(t, err)

	r, err := archive.Open(data)
	require.NoError(t, err)

	root, err := r.Root()
	require.NoError(t, err)
	obj, err := root.Materialize()
	require.NoError(t, err)

	q := archive.NewQuery(r, false)
	out, err := jsonconv.Encode(obj, q)
	require.NoError(t, err)

	return string(out)
}

func TestDecodeEncodeScalarFields(t *testing.T) {
	out := roundTripJSON(t, `{"name":"Ada","age":36,"active":true,"score":9.5}`)
	require.JSONEq(t, `{"name":"Ada","age":36,"active":true,"score":9.5}`, out)
}

func TestDecodeEncodeNestedObject(t *testing.T) {
	out := roundTripJSON(t, `{"address":{"city":"Paris","zip":75001}}`)
	require.JSONEq(t, `{"address":{"city":"Paris","zip":75001}}`, out)
}

func TestDecodeEncodeScalarArray(t *testing.T) {
	out := roundTripJSON(t, `{"scores":[1,2,3]}`)
	require.JSONEq(t, `{"scores":[1,2,3]}`, out)
}

// TestDecodeScalarArrayPicksNarrowestIntType guards against regressing to
// always widening integer arrays to int64: [1,2,3] must become an int8
// array, an 8x smaller payload than the int64 encoding would produce.
func TestDecodeScalarArrayPicksNarrowestIntType(t *testing.T) {
	dict := strdict.NewSync(4, 0.01)
	doc, err := jsonconv.Decode([]byte(`{"xs":[1,2,3]}`), dict, oid.NewGenerator())
	require.NoError(t, err)

	require.Len(t, doc.Root.Groups, 1)
	g := doc.Root.Groups[0]
	require.Equal(t, wire.TypeInt8Array, g.Type)

	vals, ok := g.Values[0].([]any)
	require.True(t, ok)
	require.Equal(t, []any{int8(1), int8(2), int8(3)}, vals)

	payloadSize := len(vals) * g.Type.Scalar().FixedSize()
	require.Equal(t, 3, payloadSize)
}

func TestDecodeEncodeObjectArray(t *testing.T) {
	out := roundTripJSON(t, `{"tags":[{"name":"red"},{"name":"blue"}]}`)
	require.JSONEq(t, `{"tags":[{"name":"red"},{"name":"blue"}]}`, out)
}

func TestDecodeRejectsNonObjectRoot(t *testing.T) {
	dict := strdict.NewSync(4, 0.01)
	_, err := jsonconv.Decode([]byte(`[1,2,3]`), dict, oid.NewGenerator())
	require.Error(t, err)
}
