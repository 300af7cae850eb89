package model

// RouteDescriptor is one entry of the dashboard navigation tree.
type RouteDescriptor struct {
	ID       string            `json:"id" yaml:"id"`
	Title    string            `json:"title" yaml:"title"`
	Icon     string            `json:"icon,omitempty" yaml:"icon,omitempty"`
	URL      string            `json:"url" yaml:"url"`
	Children []RouteDescriptor `json:"children,omitempty" yaml:"children,omitempty"`
	// Roles, when non-empty, is the explicit allow-list for this entry.
	Roles []Role `json:"roles,omitempty" yaml:"roles,omitempty"`
}
