package utils

import "sync"

type Task[T any] struct {
	Index int
	Value T
}

type CompletedTask[T any] struct {
	Index  int
	Result T
	Error  error
}

func RunInPool[In any, Out any](worker func(In) (Out, error), queue chan Task[In], completed chan CompletedTask[Out], maxWorkers int) {
	workers := max(min(len(queue), maxWorkers), 1)

	go func() {
		wg := sync.WaitGroup{}
		wg.Add(workers)

		for i := 0; i < workers; i++ {
			go func() {
				defer wg.Done()

				for {
					next, ok := <-queue
					if !ok {
						return
					}

					res, err := worker(next.Value)
					if err != nil {
						completed <- CompletedTask[Out]{Index: next.Index, Error: err}
					} else {
						completed <- CompletedTask[Out]{Index: next.Index, Result: res, Error: nil}
					}
				}
			}()
		}

		wg.Wait()

		close(completed)
	}()
}

// MapInPool runs worker over items with at most maxWorkers goroutines and
// returns the results in the order of items. Every item is processed; the
// error of the lowest failing index is returned.
func MapInPool[In any, Out any](items []In, maxWorkers int, worker func(In) (Out, error)) ([]Out, error) {
	queue := make(chan Task[In], len(items))
	for i, item := range items {
		queue <- Task[In]{Index: i, Value: item}
	}
	close(queue)

	completed := make(chan CompletedTask[Out], len(items))
	RunInPool(worker, queue, completed, maxWorkers)

	results := make([]Out, len(items))
	errIndex := len(items)
	var firstErr error
	for task := range completed {
		if task.Error != nil {
			if task.Index < errIndex {
				errIndex, firstErr = task.Index, task.Error
			}
			continue
		}
		results[task.Index] = task.Result
	}

	return results, firstErr
}
