package prompts

import "sort"

func StringSchema() map[string]any {
	return map[string]any{"type": "string"}
}

func StringArraySchema() map[string]any {
	return map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}
}

func StringOrNullSchema() map[string]any {
	return map[string]any{
		"type": []any{"string", "null"},
	}
}

func IntSchema() map[string]any {
	return map[string]any{"type": "integer"}
}

func IntOrNullSchema() map[string]any {
	return map[string]any{
		"type": []any{"integer", "null"},
	}
}

func EnumSchema(values ...string) map[string]any {
	arr := make([]any, 0, len(values))
	for _, v := range values {
		arr = append(arr, v)
	}
	return map[string]any{"type": "string", "enum": arr}
}

func ArrayOf(items map[string]any) map[string]any {
	return map[string]any{
		"type":  "array",
		"items": items,
	}
}

// StrictObject marks every property required and forbids extras, as strict
// structured outputs demand.
func StrictObject(properties map[string]any) map[string]any {
	req := make([]string, 0, len(properties))
	for k := range properties {
		req = append(req, k)
	}
	sort.Strings(req)
	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             req,
		"additionalProperties": false,
	}
}
