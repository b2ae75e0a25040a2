package workpool

// Pool runs submitted tasks on a fixed number of worker goroutines.
// Media and inference work is CPU bound, so the request goroutines hand
// their work here instead of running it inline. Submission blocks until
// a worker picks the task up, and there is no timeout on a running task.
type Pool struct {
	tasks chan func()
}

func NewPool(workerCount int) *Pool {
	if workerCount <= 0 {
		panic("Worker count must be positive")
	}

	pool := &Pool{
		tasks: make(chan func()),
	}

	for i := 0; i < workerCount; i++ {
		go pool.work()
	}

	return pool
}

func (p *Pool) work() {
	for task := range p.tasks {
		task()
	}
}

// Do runs the task on a pool worker and waits for it to finish.
func (p *Pool) Do(task func() error) error {
	done := make(chan error, 1)

	p.tasks <- func() {
		done <- task()
	}

	return <-done
}
