package docmodel

// Document is the top-level wire shape shared by the JSONC and YAML loaders.
// Field tags cover both formats; the HCL loader has its own block schema and
// builds the typed model directly.
type Document struct {
	Design    string        `json:"design,omitempty" yaml:"design,omitempty"`
	Templates []TemplateDoc `json:"templates,omitempty" yaml:"templates,omitempty"`
	Instances []InstanceDoc `json:"instances,omitempty" yaml:"instances,omitempty"`
}

// TemplateDoc is one template declaration.
type TemplateDoc struct {
	Family    string        `json:"family" yaml:"family"`
	When      []WhenDoc     `json:"when,omitempty" yaml:"when,omitempty"`
	Params    []ParamDoc    `json:"params,omitempty" yaml:"params,omitempty"`
	Requires  []string      `json:"requires,omitempty" yaml:"requires,omitempty"`
	Static    *StaticDoc    `json:"static,omitempty" yaml:"static,omitempty"`
	Generator *GeneratorDoc `json:"generator,omitempty" yaml:"generator,omitempty"`
}

// WhenDoc is one discriminant condition.
type WhenDoc struct {
	Param string `json:"param" yaml:"param"`
	Op    string `json:"op" yaml:"op"`
	Value any    `json:"value,omitempty" yaml:"value,omitempty"`
}

// ParamDoc declares one schema parameter.
type ParamDoc struct {
	Name    string   `json:"name" yaml:"name"`
	Type    string   `json:"type" yaml:"type"`
	Min     *int64   `json:"min,omitempty" yaml:"min,omitempty"`
	Max     *int64   `json:"max,omitempty" yaml:"max,omitempty"`
	Values  []string `json:"values,omitempty" yaml:"values,omitempty"`
	Default any      `json:"default,omitempty" yaml:"default,omitempty"`
}

// StaticDoc declares a static-substitution strategy.
type StaticDoc struct {
	Text   string `json:"text,omitempty" yaml:"text,omitempty"`
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
	HDL    string `json:"hdl,omitempty" yaml:"hdl,omitempty"`
}

// GeneratorDoc declares an external-generator strategy.
type GeneratorDoc struct {
	Command []string `json:"command" yaml:"command"`
	Timeout string   `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	HDL     string   `json:"hdl,omitempty" yaml:"hdl,omitempty"`
}

// InstanceDoc is one component-instance request.
type InstanceDoc struct {
	Name   string         `json:"name" yaml:"name"`
	Family string         `json:"family" yaml:"family"`
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
	Top    bool           `json:"top,omitempty" yaml:"top,omitempty"`
}
