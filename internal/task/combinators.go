package task

// WhenAll completes fulfilled with the ordered array of per-task results
// once every input task fulfills, or rejects with the first rejection seen
// (remaining tasks continue running but no longer affect the aggregate
// outcome). An empty input fulfills immediately with an empty slice.
func WhenAll(tasks []*Handle) *Handle {
	agg, completer := Create()

	if len(tasks) == 0 {
		completer.SetValue([]any{})
		return agg
	}

	results := make([]any, len(tasks))
	remaining := len(tasks)

	for i, t := range tasks {
		i := i
		t.OnCompleted(func(h *Handle) {
			if agg.IsCompleted() {
				return
			}
			if h.State() == Rejected {
				completer.SetError(h.Err())
				return
			}
			results[i] = h.Value()
			remaining--
			if remaining == 0 {
				completer.SetValue(results)
			}
		})
	}

	return agg
}

// Race completes with the outcome (fulfilled or rejected) of whichever input
// task settles first. Later settlements of the other tasks are ignored.
func Race(tasks []*Handle) *Handle {
	agg, completer := Create()

	for _, t := range tasks {
		t.OnCompleted(func(h *Handle) {
			if agg.IsCompleted() {
				return
			}
			if h.State() == Rejected {
				completer.SetError(h.Err())
			} else {
				completer.SetValue(h.Value())
			}
		})
	}

	return agg
}
