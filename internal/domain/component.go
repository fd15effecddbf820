package domain

// ComponentDescriptor documents one UI component the model may use.
type ComponentDescriptor struct {
	Name           string `yaml:"name"`
	ImportContract string `yaml:"import"`
	UsageExample   string `yaml:"usage"`
}
