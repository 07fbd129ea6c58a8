package curly

import (
	"fmt"
)

// TemplateString is template source carried in configuration.
type TemplateString string

func (t TemplateString) Validate() error {
	if _, err := New(nil).Compile("inline", string(t)); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}
	return nil
}

// Render compiles and renders the template with a default engine.
func (t TemplateString) Render(data any) (string, error) {
	return New(nil).RenderString("inline", string(t), FromGo(data))
}
