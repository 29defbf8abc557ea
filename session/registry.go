package session

import "sync"

// registry is the concurrency-safe mapping from task identifier to its
// per-task state. Mutations are short critical sections; callbacks are
// never invoked while the lock is held.
type registry struct {
	mu    sync.Mutex
	tasks map[int]*task
}

func newRegistry() *registry {
	return &registry{
		tasks: make(map[int]*task),
	}
}

func (r *registry) insert(id int, t *task) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks[id] = t
}

func (r *registry) get(id int) (*task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]

	return t, ok
}

// take removes and returns the task in a single critical section. It is the
// single gate deciding who acts on a task's terminal transition: whichever
// of completion, cancellation, or invalidation takes the entry first wins,
// and later deliveries for the id become silent no-ops.
func (r *registry) take(id int) (*task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if ok {
		delete(r.tasks, id)
	}

	return t, ok
}

func (r *registry) remove(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tasks, id)
}

// drain atomically clears the registry and returns the removed tasks,
// so a broadcast can iterate them without racing concurrent deliveries
// for the same set.
func (r *registry) drain() []*task {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks := make([]*task, 0, len(r.tasks))
	for _, t := range r.tasks {
		tasks = append(tasks, t)
	}
	clear(r.tasks)

	return tasks
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.tasks)
}
