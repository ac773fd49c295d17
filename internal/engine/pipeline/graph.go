// Package pipeline defines the fixed asset tasks and the actions bound to them.
package pipeline

import "go.trai.ch/press/internal/core/domain"

// Task names.
const (
	TaskClean    = "clean"
	TaskCopyHTML = "copy-html"
	TaskSass     = "sass"
	TaskCSS      = "css"
	TaskJS       = "js"
	TaskImages   = "img"
	TaskVendors  = "vendors"
	TaskBuild    = "build"
	TaskWatch    = "watch"
	TaskDefault  = "default"
)

// Tasks returns the task table in definition order.
// Every prerequisite is defined before the task that requires it.
func Tasks() []*domain.Task {
	return []*domain.Task{
		domain.NewTask(TaskClean, "Remove the destination root", domain.CategoryNone),
		domain.NewTask(TaskCopyHTML, "Copy markup into the destination root", domain.CategoryHTML),
		domain.NewTask(TaskSass, "Compile and vendor-prefix stylesheets", domain.CategorySCSS),
		domain.NewTask(TaskCSS, "Minify and bundle stylesheets", domain.CategoryCSS),
		domain.NewTask(TaskJS, "Minify and bundle scripts", domain.CategoryJS),
		domain.NewTask(TaskImages, "Compress images", domain.CategoryImages),
		domain.NewTask(TaskVendors, "Copy vendor files", domain.CategoryVendors),
		domain.NewTask(TaskBuild, "Build every asset from scratch", domain.CategoryNone,
			TaskClean, TaskSass, TaskCSS, TaskJS, TaskVendors, TaskImages, TaskCopyHTML),
		domain.NewTask(TaskWatch, "Serve the site and rebuild on change", domain.CategoryNone),
		domain.NewTask(TaskDefault, "Build, then watch", domain.CategoryNone, TaskBuild, TaskWatch),
	}
}

// NewGraph returns the validated task graph.
func NewGraph() (*domain.Graph, error) {
	g := domain.NewGraph()
	for _, t := range Tasks() {
		if err := g.AddTask(t); err != nil {
			return nil, err
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
