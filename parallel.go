package matview

import "sync"

// Parallelize partitions [0, tasks) into up to workers contiguous ranges
// and invokes fn once per non-empty range, concurrently when workers > 1.
// Each worker receives its ordinal and its range; workers typically build
// their own extractors against a shared matrix, which is safe because
// matrices are immutable.  The first error (by worker order) is returned
// after all workers have joined.  The number of workers actually used is
// returned; passing workers <= 1 runs everything on the calling goroutine,
// which is the deterministic serial path.
func Parallelize[I Index](fn func(worker int, start, length I) error, tasks I, workers int) (int, error) {
	if tasks <= 0 {
		return 0, nil
	}
	if workers <= 1 {
		return 1, fn(0, 0, tasks)
	}

	chunk := (int64(tasks) + int64(workers) - 1) / int64(workers)
	used := int((int64(tasks) + chunk - 1) / chunk)

	errs := make([]error, used)
	var wg sync.WaitGroup
	for w := 0; w < used; w++ {
		start := I(int64(w) * chunk)
		length := I(chunk)
		if int64(start)+int64(length) > int64(tasks) {
			length = tasks - start
		}
		wg.Add(1)
		go func(w int, start, length I) {
			defer wg.Done()
			errs[w] = fn(w, start, length)
		}(w, start, length)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return used, err
		}
	}
	return used, nil
}
