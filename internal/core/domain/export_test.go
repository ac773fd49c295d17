// export_test.go exports internals for white-box testing.
package domain

// InsertTaskUnchecked stores a task without the definition-order checks of AddTask.
func (g *Graph) InsertTaskUnchecked(t Task) {
	g.tasks[t.Name] = t
	g.order = append(g.order, t.Name)
}
