package archive_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jsonarc/jsonarc/archive"
	"github.com/jsonarc/jsonarc/model"
	"github.com/jsonarc/jsonarc/pack"
	"github.com/jsonarc/jsonarc/strdict"
	"github.com/jsonarc/jsonarc/wire"
)

func newDict(t *testing.T, keys ...string) (strdict.Dict, map[string]uint64) {
	t.Helper()
	dict := strdict.NewSync(16, 0.01)
	sids, err := dict.Insert(keys)
	require.NoError(t, err)

	byKey := make(map[string]uint64, len(keys))
	for i, k := range keys {
		byKey[k] = sids[i]
	}

	return dict, byKey
}

func roundTrip(t *testing.T, doc *model.Document, dict strdict.Dict, opts ...archive.WriterOption) *archive.Reader {
	t.Helper()
	w := archive.NewWriter(opts...)
	data, err := w.Write(doc, dict)
	require.NoError(t, err)

	r, err := archive.Open(data)
	require.NoError(t, err)

	return r
}

func TestEmptyDocumentRoundTrip(t *testing.T) {
	dict := strdict.NewSync(1, 0.01)
	doc := &model.Document{Root: &model.Object{OID: 1}}

	r := roundTrip(t, doc, dict)
	info := r.Info()
	require.Zero(t, info.StringTableEntryCount)

	root, err := r.Root()
	require.NoError(t, err)
	require.Equal(t, uint64(1), root.OID())
	require.Empty(t, root.Types())
}

func TestSingleStringPropertyRoundTrip(t *testing.T) {
	dict, sids := newDict(t, "name", "Ada")

	doc := &model.Document{Root: &model.Object{
		OID: 42,
		Groups: []model.PropertyGroup{
			{Type: wire.TypeString, Keys: []uint64{sids["name"]}, Values: []any{sids["Ada"]}},
		},
	}}

	r := roundTrip(t, doc, dict, archive.WithSidIndex(true))

	root, err := r.Root()
	require.NoError(t, err)

	g, err := root.Group(wire.TypeString)
	require.NoError(t, err)
	require.Equal(t, []uint64{sids["name"]}, g.Keys)
	require.Equal(t, sids["Ada"], g.Values[0])

	q := archive.NewQuery(r, true)
	s, err := q.FetchString(sids["Ada"])
	require.NoError(t, err)
	require.Equal(t, "Ada", s)
}

func TestMixedScalarArrayRoundTrip(t *testing.T) {
	dict, sids := newDict(t, "scores")

	doc := &model.Document{Root: &model.Object{
		OID: 7,
		Groups: []model.PropertyGroup{
			{
				Type: wire.TypeInt32Array,
				Keys: []uint64{sids["scores"]},
				Values: []any{
					[]any{int32(1), int32(2), int32(3)},
				},
			},
		},
	}}

	r := roundTrip(t, doc, dict)
	root, err := r.Root()
	require.NoError(t, err)

	g, err := root.Group(wire.TypeInt32Array)
	require.NoError(t, err)
	require.Equal(t, []any{int32(1), int32(2), int32(3)}, g.Values[0])
}

func TestNestedObjectBackPatchRoundTrip(t *testing.T) {
	dict, sids := newDict(t, "address", "city", "Paris")

	child := &model.Object{
		OID: 2,
		Groups: []model.PropertyGroup{
			{Type: wire.TypeString, Keys: []uint64{sids["city"]}, Values: []any{sids["Paris"]}},
		},
	}
	doc := &model.Document{Root: &model.Object{
		OID: 1,
		Groups: []model.PropertyGroup{
			{Type: wire.TypeObject, Keys: []uint64{sids["address"]}, Values: []any{child}},
		},
	}}

	r := roundTrip(t, doc, dict)
	root, err := r.Root()
	require.NoError(t, err)

	g, err := root.Group(wire.TypeObject)
	require.NoError(t, err)

	nested, ok := g.Values[0].(*model.Object)
	require.True(t, ok)
	require.Equal(t, uint64(2), nested.OID)

	cityGroup, ok := nested.Group(wire.TypeString)
	require.True(t, ok)
	require.Equal(t, sids["Paris"], cityGroup.Values[0])
}

func TestObjectArrayRoundTrip(t *testing.T) {
	dict, sids := newDict(t, "tags", "name", "red", "blue")

	oa := model.ObjectArray{
		Columns: []model.Column{
			{
				NameSid:   sids["name"],
				ValueType: wire.TypeString,
				Entries: []model.ColumnEntry{
					{Position: 0, Value: sids["red"]},
					{Position: 1, Value: sids["blue"]},
				},
			},
		},
	}
	doc := &model.Document{Root: &model.Object{
		OID: 9,
		Groups: []model.PropertyGroup{
			{Type: wire.TypeObjectArray, Keys: []uint64{sids["tags"]}, Values: []any{oa}},
		},
	}}

	r := roundTrip(t, doc, dict)
	root, err := r.Root()
	require.NoError(t, err)

	g, err := root.Group(wire.TypeObjectArray)
	require.NoError(t, err)

	got, ok := g.Values[0].(model.ObjectArray)
	require.True(t, ok)
	require.Len(t, got.OIDs, 2)
	require.Len(t, got.Columns, 1)
	require.Equal(t, sids["red"], got.Columns[0].Entries[0].Value)
	require.Equal(t, sids["blue"], got.Columns[0].Entries[1].Value)
}

func TestHuffmanPackerRoundTrip(t *testing.T) {
	dict, sids := newDict(t, "greeting", "hello hello hello world")

	doc := &model.Document{Root: &model.Object{
		OID: 3,
		Groups: []model.PropertyGroup{
			{Type: wire.TypeString, Keys: []uint64{sids["greeting"]}, Values: []any{sids["hello hello hello world"]}},
		},
	}}

	r := roundTrip(t, doc, dict, archive.WithPacker(pack.NewHuffman()), archive.WithSidIndex(true))

	q := archive.NewQuery(r, false)
	s, err := q.FetchString(sids["hello hello hello world"])
	require.NoError(t, err)
	require.Equal(t, "hello hello hello world", s)
}

type containsPredicate struct{ substr string }

func (p containsPredicate) Validate() error {
	if p.substr == "" {
		return errors.New("empty substring")
	}
	return nil
}

func (p containsPredicate) Match(s string) bool {
	return len(p.substr) <= len(s) && (func() bool {
		for i := 0; i+len(p.substr) <= len(s); i++ {
			if s[i:i+len(p.substr)] == p.substr {
				return true
			}
		}
		return false
	})()
}

func TestQueryFindIDs(t *testing.T) {
	dict, sids := newDict(t, "a", "apple", "b", "banana", "c", "cherry")

	doc := &model.Document{Root: &model.Object{
		OID: 1,
		Groups: []model.PropertyGroup{
			{
				Type: wire.TypeString,
				Keys: []uint64{sids["a"], sids["b"], sids["c"]},
				Values: []any{
					sids["apple"], sids["banana"], sids["cherry"],
				},
			},
		},
	}}

	r := roundTrip(t, doc, dict)
	q := archive.NewQuery(r, false)

	ids, err := q.FindIDs(containsPredicate{substr: "an"}, 0)
	require.NoError(t, err)
	require.Contains(t, ids, sids["banana"])
	require.NotContains(t, ids, sids["cherry"])
	require.NotContains(t, ids, sids["apple"])
}
