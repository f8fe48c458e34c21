package task

import "fmt"

// Validate checks the structural invariants of a List: unique ids, every
// dependency resolves to a known id, and the dependency relation is
// acyclic.
func Validate(l *List) error {
	seen := make(map[string]struct{}, len(l.Tasks))
	for _, t := range l.Tasks {
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateTaskID, t.ID)
		}
		seen[t.ID] = struct{}{}
	}

	for _, t := range l.Tasks {
		for _, dep := range t.DependsOn {
			if _, ok := seen[dep]; !ok {
				return fmt.Errorf("%w: task %s depends on %s", ErrUnknownDependency, t.ID, dep)
			}
		}
	}

	return checkAcyclic(l.Tasks)
}

// checkAcyclic runs Kahn's algorithm over the dependency edges (dep -> task).
// If fewer nodes are visited than exist, a cycle is present.
func checkAcyclic(tasks []Task) error {
	indegree := make(map[string]int, len(tasks))
	dependents := make(map[string][]string, len(tasks))

	for _, t := range tasks {
		if _, ok := indegree[t.ID]; !ok {
			indegree[t.ID] = 0
		}
		for _, dep := range t.DependsOn {
			indegree[t.ID]++
			dependents[dep] = append(dependents[dep], t.ID)
		}
	}

	queue := make([]string, 0, len(tasks))
	for _, t := range tasks {
		if indegree[t.ID] == 0 {
			queue = append(queue, t.ID)
		}
	}

	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++

		for _, dependent := range dependents[id] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if visited < len(tasks) {
		return ErrCyclicDependency
	}
	return nil
}
