package domain

// Task represents a named, invocable unit of the asset pipeline.
// It uses InternedString for names that are repeated across the graph.
type Task struct {
	Name         InternedString
	Description  string
	Category     Category
	Dependencies []InternedString
}

// NewTask creates a task with the given prerequisites in declaration order.
func NewTask(name, description string, category Category, deps ...string) *Task {
	return &Task{
		Name:         NewInternedString(name),
		Description:  description,
		Category:     category,
		Dependencies: NewInternedStrings(deps),
	}
}

// IsComposite reports whether the task only sequences its prerequisites.
func (t *Task) IsComposite() bool {
	return t.Category == CategoryNone && len(t.Dependencies) > 0
}
