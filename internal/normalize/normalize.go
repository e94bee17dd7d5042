// Package normalize turns loosely typed client input for recipe collections
// into the typed model values.
//
// Clients send ingredients, instructions and tags as arrays, as JSON-encoded
// strings holding an array, or as a single scalar. Every shape goes through
// the same entry point per field.
package normalize

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/recipeshare/api/internal/model"
)

const (
	PlaceholderIngredient  = "No ingredients specified"
	PlaceholderInstruction = "No instructions specified"

	maxTagLength = 50
)

// Raw is whatever encoding/json produced for a collection field: nil, string,
// float64, bool, []any or map[string]any.
type Raw = any

// Ingredients normalizes raw into an ordered ingredient list. Blank entries are dropped.
func Ingredients(raw Raw) model.Ingredients {
	out := model.Ingredients{}
	for _, item := range flatten(raw, false) {
		var ing model.Ingredient
		switch v := item.(type) {
		case map[string]any:
			ing.Text = firstString(v, "text", "name", "item", "ingredient")
			ing.Amount = firstString(v, "amount", "quantity", "qty")
			ing.Unit = firstString(v, "unit")
		default:
			ing.Text = scalarString(v)
		}
		if ing.Text == "" {
			continue
		}
		out = append(out, ing)
	}
	return out
}

// Instructions normalizes raw into steps numbered 1..n in input order.
func Instructions(raw Raw) model.Instructions {
	out := model.Instructions{}
	for _, item := range flatten(raw, false) {
		var text string
		switch v := item.(type) {
		case map[string]any:
			text = firstString(v, "text", "instruction", "description", "step")
			// "step" may be the number rather than the text
			if _, err := strconv.Atoi(text); err == nil {
				text = firstString(v, "text", "instruction", "description")
			}
		default:
			text = scalarString(v)
		}
		if text == "" {
			continue
		}
		out = append(out, model.Instruction{Text: text, Step: len(out) + 1})
	}
	return out
}

// Tags normalizes raw into a sorted set of lowercase tags. Plain strings are
// split on commas.
func Tags(raw Raw) model.Tags {
	seen := make(map[string]struct{})
	for _, item := range flatten(raw, true) {
		var tag string
		switch v := item.(type) {
		case map[string]any:
			tag = firstString(v, "name", "tag", "text")
		default:
			tag = scalarString(v)
		}
		tag = strings.ToLower(strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(tag), "#")))
		if tag == "" {
			continue
		}
		if runes := []rune(tag); len(runes) > maxTagLength {
			tag = string(runes[:maxTagLength])
		}
		seen[tag] = struct{}{}
	}

	out := make(model.Tags, 0, len(seen))
	for tag := range seen {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// WithPlaceholders never lets an approved recipe end up with an empty list.
func WithPlaceholders(ingredients model.Ingredients, instructions model.Instructions) (model.Ingredients, model.Instructions) {
	if len(ingredients) == 0 {
		ingredients = model.Ingredients{{Text: PlaceholderIngredient}}
	}
	if len(instructions) == 0 {
		instructions = model.Instructions{{Text: PlaceholderInstruction, Step: 1}}
	}
	return ingredients, instructions
}

// flatten expands raw into its elements. JSON-array strings are decoded;
// splitCommas applies to plain strings only.
func flatten(raw Raw, splitCommas bool) []any {
	switch v := raw.(type) {
	case nil:
		return nil
	case []any:
		out := make([]any, 0, len(v))
		for _, item := range v {
			// nested arrays are flattened one level at a time
			if nested, ok := item.([]any); ok {
				out = append(out, flatten(nested, false)...)
				continue
			}
			out = append(out, item)
		}
		return out
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		if strings.HasPrefix(s, "[") {
			var decoded []any
			if err := json.Unmarshal([]byte(s), &decoded); err == nil {
				return flatten(decoded, false)
			}
		}
		if splitCommas && strings.Contains(s, ",") {
			parts := strings.Split(s, ",")
			out := make([]any, len(parts))
			for i, p := range parts {
				out[i] = p
			}
			return out
		}
		return []any{s}
	default:
		return []any{v}
	}
}

func scalarString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			if s := scalarString(v); s != "" {
				return s
			}
		}
	}
	return ""
}
