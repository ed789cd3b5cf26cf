package model_test

import (
	"testing"

	"github.com/iyhunko/affiliate-catalog/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCatalog() model.Catalog {
	return model.Catalog{
		{ID: "a", Title: "Alpha", URL: "https://shop.example/a"},
		{ID: "b", Title: "Beta", URL: "https://shop.example/b"},
		{ID: "c", Title: "Gamma", URL: "https://shop.example/c"},
	}
}

func TestCatalog_Upsert(t *testing.T) {
	t.Run("new product is prepended", func(t *testing.T) {
		// given
		c := sampleCatalog()

		// when
		out := c.Upsert(model.Product{ID: "d", Title: "Delta", URL: "https://shop.example/d"})

		// then
		require.Len(t, out, 4)
		assert.Equal(t, "d", out[0].ID)
		assert.Len(t, c, 3, "original catalog must not change")
	})

	t.Run("existing product is replaced and moved to the front", func(t *testing.T) {
		// given
		c := sampleCatalog()

		// when
		out := c.Upsert(model.Product{ID: "c", Title: "Gamma v2", URL: "https://shop.example/c"})

		// then
		require.Len(t, out, 3)
		assert.Equal(t, "c", out[0].ID)
		assert.Equal(t, "Gamma v2", out[0].Title)
		assert.Equal(t, []string{"c", "a", "b"}, ids(out))
		assert.Equal(t, "Gamma", c[2].Title)
	})
}

func TestCatalog_Without(t *testing.T) {
	c := sampleCatalog()

	out := c.Without("b")

	assert.Equal(t, []string{"a", "c"}, ids(out))
	assert.Equal(t, -1, out.IndexOf("b"))
	assert.Len(t, c, 3)
	assert.Equal(t, []string{"a", "b", "c"}, ids(c.Without("missing")))
}

func TestCatalog_DuplicateID(t *testing.T) {
	_, dup := sampleCatalog().DuplicateID()
	assert.False(t, dup)

	id, dup := append(sampleCatalog(), model.Product{ID: "a"}).DuplicateID()
	assert.True(t, dup)
	assert.Equal(t, "a", id)
}

func TestEncodeCatalog(t *testing.T) {
	data, err := model.EncodeCatalog(model.Catalog{{ID: "a", Title: "Alpha", URL: "u"}})
	require.NoError(t, err)

	expected := "[\n  {\n    \"id\": \"a\",\n    \"title\": \"Alpha\",\n    \"price\": \"\",\n    \"image\": \"\",\n    \"url\": \"u\",\n    \"tag\": \"\"\n  }\n]"
	assert.Equal(t, expected, string(data))

	empty, err := model.EncodeCatalog(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}

func TestDecodeCatalog(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"DecodeCatalog_Array", `[{"id":"a","title":"Alpha"},{"id":"b"}]`, []string{"a", "b"}},
		{"DecodeCatalog_EmptyArray", `[]`, []string{}},
		{"DecodeCatalog_Object", `{"products":[]}`, []string{}},
		{"DecodeCatalog_Null", `null`, []string{}},
		{"DecodeCatalog_Malformed", `[{"id":`, []string{}},
		{"DecodeCatalog_Empty", ``, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := model.DecodeCatalog([]byte(tt.input))
			require.NotNil(t, got)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestProduct_MissingFields(t *testing.T) {
	assert.Empty(t, model.Product{Title: "x", URL: "y"}.MissingFields())
	assert.Equal(t, []string{"title", "url"}, model.Product{Title: "  "}.MissingFields())
	assert.Equal(t, []string{"url"}, model.Product{Title: "x"}.MissingFields())
}

func TestProduct_InitMeta(t *testing.T) {
	var p model.Product
	p.InitMeta()
	assert.Len(t, p.ID, 36)
}

func ids(c model.Catalog) []string {
	out := make([]string, 0, len(c))
	for _, p := range c {
		out = append(out, p.ID)
	}
	return out
}
