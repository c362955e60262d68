package live

// Param is one argument of a tool. Type is a JSON Schema type name:
// "string", "integer", "number" or "boolean".
type Param struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Required    bool     `json:"required,omitempty"`
}

// Tool is a function the model may call during the conversation.
type Tool struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"params,omitempty"`
}

// Schema renders the parameters as a JSON Schema object.
func (t Tool) Schema() map[string]any {
	props := make(map[string]any, len(t.Params))
	var required []string
	for _, p := range t.Params {
		prop := map[string]any{"type": p.Type}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	s := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// ToolCall is an invocation requested by the model.
type ToolCall struct {
	// ID matches the response back to this call.
	ID   string
	Name string
	Args map[string]any
}

// ToolResponse is the result of one ToolCall.
type ToolResponse struct {
	ID     string
	Name   string
	Result map[string]any
}
