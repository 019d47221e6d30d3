package schedule

// taskHeap is the ready_by_time index: a binary heap over *Task ordered by
// (due date, identity), modeled on the taskItem{index, task} technique in
// shiblon-entrogo's taskstore/pqueue.go, adapted to store the index directly
// on the task rather than in a wrapper struct, since Task is already the
// only object shared with ready_by_identity.
type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].dueDate != h[j].dueDate {
		return h[i].dueDate < h[j].dueDate
	}
	return h[i].identity.less(h[j].identity)
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex = i
	h[j].heapIndex = j
}

func (h *taskHeap) Push(x any) {
	task := x.(*Task)
	task.heapIndex = len(*h)
	*h = append(*h, task)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	task := old[n-1]
	old[n-1] = nil
	task.heapIndex = -1
	*h = old[:n-1]
	return task
}
