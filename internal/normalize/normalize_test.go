package normalize

import (
	"encoding/json"
	"testing"

	"github.com/recipeshare/api/internal/model"
	"github.com/stretchr/testify/assert"
)

// decode mimics what gin hands us after binding a JSON body into an `any` field.
func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("decode %s: %v", s, err)
	}
	return v
}

func TestIngredients(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want model.Ingredients
	}{
		{"nil", nil, model.Ingredients{}},
		{"string array", decode(t, `["flour", " ", "sugar"]`), model.Ingredients{{Text: "flour"}, {Text: "sugar"}}},
		{"objects", decode(t, `[{"name":"milk","quantity":2,"unit":"cups"}]`), model.Ingredients{{Text: "milk", Amount: "2", Unit: "cups"}}},
		{"json string", `["eggs","salt"]`, model.Ingredients{{Text: "eggs"}, {Text: "salt"}}},
		{"scalar", "butter", model.Ingredients{{Text: "butter"}}},
		{"number", float64(3), model.Ingredients{{Text: "3"}}},
		{"empty array", decode(t, `[]`), model.Ingredients{}},
		{"malformed json string", "[flour", model.Ingredients{{Text: "[flour"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Ingredients(tt.raw))
		})
	}
}

func TestInstructionsRenumbers(t *testing.T) {
	raw := decode(t, `[{"text":"preheat","step":4}, "", "mix", {"step":2}]`)

	got := Instructions(raw)

	assert.Equal(t, model.Instructions{
		{Text: "preheat", Step: 1},
		{Text: "mix", Step: 2},
	}, got)
}

func TestInstructionsFromJSONString(t *testing.T) {
	got := Instructions(`["bake"]`)
	assert.Equal(t, model.Instructions{{Text: "bake", Step: 1}}, got)
}

func TestTags(t *testing.T) {
	assert.Equal(t, model.Tags{"dessert", "quick"}, Tags("Quick, #dessert, quick"))
	assert.Equal(t, model.Tags{"a", "b"}, Tags(decode(t, `["B","a",{"name":"b"}]`)))
	assert.Equal(t, model.Tags{}, Tags(nil))
	assert.Equal(t, model.Tags{"vegan"}, Tags(`["vegan"]`))
}

func TestWithPlaceholders(t *testing.T) {
	ingredients, instructions := WithPlaceholders(model.Ingredients{}, nil)

	assert.Equal(t, model.Ingredients{{Text: PlaceholderIngredient}}, ingredients)
	assert.Equal(t, model.Instructions{{Text: PlaceholderInstruction, Step: 1}}, instructions)

	kept, _ := WithPlaceholders(model.Ingredients{{Text: "rice"}}, nil)
	assert.Equal(t, model.Ingredients{{Text: "rice"}}, kept)
}
