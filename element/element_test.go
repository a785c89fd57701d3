package element

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestBuilders(t *testing.T) {
	t.Run("zero value is undefined", func(t *testing.T) {
		var e Element
		assert.True(t, e.IsUndefined())
		assert.Equal(t, KindUndefined, e.Kind())
	})

	t.Run("scalars", func(t *testing.T) {
		assert.Equal(t, KindNull, Null().Kind())
		assert.True(t, Bool(true).Bool())
		assert.Equal(t, 5.0, Int(5).Number())
		assert.Equal(t, "x", String("x").Str())
		assert.True(t, KindString.IsScalar())
		assert.False(t, KindArray.IsScalar())
	})

	t.Run("object keeps last duplicate in first position", func(t *testing.T) {
		o := Object(Prop("a", Int(1)), Prop("b", Int(2)), Prop("a", Int(3)))
		require.Equal(t, 2, o.Len())
		props := o.Properties()
		assert.Equal(t, "a", props[0].Name)
		assert.Equal(t, 3.0, props[0].Value.Number())
	})

	t.Run("array copies its input", func(t *testing.T) {
		items := []Element{Int(1), Int(2)}
		a := Array(items...)
		items[0] = Int(9)
		assert.Equal(t, 1.0, a.Index(0).Number())
	})
}

func TestLookup(t *testing.T) {
	doc := Object(
		Prop("tenant", String("contoso")),
		Prop("address", Object(Prop("city", String("Seattle")))),
		Prop("a/b", Int(7)),
		Prop("tags", Array(String("x"), String("y"))),
		Prop("", String("blank")),
	)

	tests := []struct {
		path  string
		want  Element
		found bool
	}{
		{"/tenant", String("contoso"), true},
		{"/address/city", String("Seattle"), true},
		{"/a~1b", Int(7), true},
		{"/tags/1", String("y"), true},
		{"/tags/5", Undefined(), false},
		{"/missing", Undefined(), false},
		{"/tenant/deeper", Undefined(), false},
		{"/", String("blank"), true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := doc.Lookup(tt.path)
			assert.Equal(t, tt.found, ok)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestLookupRoot(t *testing.T) {
	doc := Object(Prop("a", Int(1)))

	got, ok := doc.Lookup("")
	assert.True(t, ok)
	assert.True(t, doc.Equal(got))

	_, ok = doc.Lookup("/")
	assert.False(t, ok, `"/" names the empty property, not the document`)
}

func TestEqual(t *testing.T) {
	assert.True(t, Object(Prop("a", Int(1)), Prop("b", Int(2))).Equal(Object(Prop("b", Int(2)), Prop("a", Int(1)))))
	assert.False(t, Array(Bool(true), Bool(false)).Equal(Array(Bool(false), Bool(true))))
	assert.False(t, Null().Equal(Undefined()))
	assert.True(t, Undefined().Equal(Element{}))
}

func TestParseJSON(t *testing.T) {
	t.Run("decodes every kind", func(t *testing.T) {
		e, err := ParseJSON([]byte(`{"b":[1,"two",true,null],"a":{"c":2.5}}`))
		require.NoError(t, err)
		want := Object(
			Prop("a", Object(Prop("c", Number(2.5)))),
			Prop("b", Array(Int(1), String("two"), Bool(true), Null())),
		)
		assert.True(t, want.Equal(e), "got %s", e)
		assert.Equal(t, "a", e.Properties()[0].Name)
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		_, err := ParseJSON([]byte(`{"a":`))
		assert.Error(t, err)
	})

	t.Run("rejects unsupported go values", func(t *testing.T) {
		_, err := FromGo(struct{}{})
		assert.ErrorIs(t, err, ErrUnsupported)
	})
}

func TestStructpb(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		e := Object(
			Prop("n", Number(1.5)),
			Prop("s", String("x")),
			Prop("l", Array(Null(), Bool(false))),
		)
		pv, err := ToStructpb(e)
		require.NoError(t, err)
		back, err := FromStructpb(pv)
		require.NoError(t, err)
		assert.True(t, e.Equal(back), "got %s", back)
	})

	t.Run("nil is undefined", func(t *testing.T) {
		e, err := FromStructpb(nil)
		require.NoError(t, err)
		assert.True(t, e.IsUndefined())
	})

	t.Run("undefined has no protobuf form", func(t *testing.T) {
		_, err := ToStructpb(Undefined())
		assert.ErrorIs(t, err, ErrUnsupported)
	})

	t.Run("from native struct", func(t *testing.T) {
		pv, err := structpb.NewValue(map[string]any{"id": "42", "n": 3})
		require.NoError(t, err)
		e, err := FromStructpb(pv)
		require.NoError(t, err)
		id, _ := e.Get("id")
		assert.Equal(t, "42", id.Str())
	})
}

func TestString(t *testing.T) {
	e := Object(Prop("a", Array(Int(1), Null(), Undefined())), Prop("b", String("x")))
	assert.Equal(t, `{"a":[1,null,undefined],"b":"x"}`, e.String())
}
