package task

// PickNext is the pure scheduling function: among tasks in state pending
// whose every dependency is complete, it returns the one with the minimum
// priority value. Ties resolve to the earliest such task in list order.
// Returns false if no pending task is currently eligible.
func PickNext(l *List) (*Task, bool) {
	complete := make(map[string]struct{}, len(l.Tasks))
	for _, t := range l.Tasks {
		if t.Status == StatusComplete {
			complete[t.ID] = struct{}{}
		}
	}

	var best *Task
	for i := range l.Tasks {
		t := &l.Tasks[i]
		if t.Status != StatusPending {
			continue
		}
		if !depsSatisfied(t, complete) {
			continue
		}
		if best == nil || t.Priority < best.Priority {
			best = t
		}
	}

	if best == nil {
		return nil, false
	}
	return best, true
}

func depsSatisfied(t *Task, complete map[string]struct{}) bool {
	for _, dep := range t.DependsOn {
		if _, ok := complete[dep]; !ok {
			return false
		}
	}
	return true
}
