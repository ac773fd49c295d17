// Package domain contains the core domain models of the asset pipeline.
package domain

import (
	"iter"

	"go.trai.ch/zerr"
)

// Graph holds the named tasks of the pipeline and their ordered prerequisites.
type Graph struct {
	tasks map[InternedString]Task
	order []InternedString
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		tasks: make(map[InternedString]Task),
	}
}

// AddTask defines a task.
// It returns an error if a task with the same name already exists or if a
// prerequisite has not been defined yet.
func (g *Graph) AddTask(t *Task) error {
	if t.Name.String() == "" {
		return ErrInvalidTaskName
	}
	if _, exists := g.tasks[t.Name]; exists {
		return zerr.With(ErrTaskAlreadyExists, "task_name", t.Name.String())
	}
	for _, dep := range t.Dependencies {
		if _, ok := g.tasks[dep]; !ok {
			err := zerr.With(ErrMissingDependency, "dependency", dep.String())
			return zerr.With(err, "task_name", t.Name.String())
		}
	}

	deps := make([]InternedString, len(t.Dependencies))
	copy(deps, t.Dependencies)
	stored := *t
	stored.Dependencies = deps

	g.tasks[t.Name] = stored
	g.order = append(g.order, t.Name)
	return nil
}

// GetTask returns the task with the given name.
func (g *Graph) GetTask(name string) (Task, bool) {
	t, ok := g.tasks[NewInternedString(name)]
	return t, ok
}

// TaskCount returns the number of defined tasks.
func (g *Graph) TaskCount() int {
	return len(g.tasks)
}

// Validate checks that every prerequisite is defined and that the graph has no cycles.
func (g *Graph) Validate() error {
	visited := make(map[InternedString]int) // 0: unvisited, 1: visiting, 2: visited
	var path []InternedString

	var visit func(u InternedString) error
	visit = func(u InternedString) error {
		visited[u] = 1
		path = append(path, u)

		task, exists := g.tasks[u]
		if !exists {
			return zerr.With(ErrMissingDependency, "dependency", u.String())
		}

		for _, dep := range task.Dependencies {
			if visited[dep] == 1 {
				return g.buildCycleError(path, dep)
			}
			if visited[dep] == 0 {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		visited[u] = 2
		path = path[:len(path)-1]
		return nil
	}

	for _, name := range g.order {
		if visited[name] == 0 {
			if err := visit(name); err != nil {
				return err
			}
		}
	}

	return nil
}

// buildCycleError constructs an error with cycle path metadata.
func (g *Graph) buildCycleError(path []InternedString, dep InternedString) error {
	cyclePath := ""
	startIdx := 0
	for i, node := range path {
		if node == dep {
			startIdx = i
			break
		}
	}
	for i := startIdx; i < len(path); i++ {
		cyclePath += path[i].String() + " -> "
	}
	cyclePath += dep.String()
	return zerr.With(ErrCycleDetected, "cycle", cyclePath)
}

// Plan returns the execution sequence for running the named task.
// Prerequisites appear depth-first in declaration order, each before the task
// that requires it. A task reachable through several paths appears once, at
// its first position.
func (g *Graph) Plan(name string) ([]Task, error) {
	root := NewInternedString(name)
	if _, ok := g.tasks[root]; !ok {
		return nil, zerr.With(ErrTaskNotFound, "task", name)
	}

	seen := make(map[InternedString]bool)
	var plan []Task

	var visit func(u InternedString)
	visit = func(u InternedString) {
		if seen[u] {
			return
		}
		seen[u] = true
		task := g.tasks[u]
		for _, dep := range task.Dependencies {
			visit(dep)
		}
		plan = append(plan, task)
	}
	visit(root)

	return plan, nil
}

// Walk returns an iterator that yields tasks in definition order.
func (g *Graph) Walk() iter.Seq[Task] {
	return func(yield func(Task) bool) {
		for _, name := range g.order {
			if !yield(g.tasks[name]) {
				return
			}
		}
	}
}

// Dependents returns the names of tasks that list name as a direct prerequisite.
func (g *Graph) Dependents(name string) []string {
	target := NewInternedString(name)
	var out []string
	for _, n := range g.order {
		for _, dep := range g.tasks[n].Dependencies {
			if dep == target {
				out = append(out, n.String())
				break
			}
		}
	}
	return out
}
