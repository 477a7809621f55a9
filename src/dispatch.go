package cqtscope

import (
	"fmt"
	"runtime"
	"sync"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Worker-pool backend for Executor.Dispatch (spec
 *		section 4.4/5: "a parallel schedule (thread pool or GPU
 *		compute) with a tile of recommended size 8x8 in
 *		(bin, frame)"; this is the pipeline's only suspension
 *		point.
 *
 *		Adapted from direwolf's tq.go producer/consumer
 *		pattern - there, a transmit thread waits on a
 *		mutex+condition-variable queue for packets to send;
 *		here, a fixed pool of workers drains a channel of tile
 *		jobs and a WaitGroup stands in for the wake-up
 *		condition, which is the idiomatic Go equivalent of the
 *		same "producer enqueues, workers drain, caller waits
 *		for drain" shape.
 *
 *------------------------------------------------------------------*/

// dispatchTileSize is the recommended (bin, frame) tile edge length
// from spec section 4.4.
const dispatchTileSize = 8

type tileJob struct {
	frameStart, frameEnd int
	binStart, binEnd     int
}

// dispatchTiles partitions m's (frame, bin) grid into dispatchTileSize
// tiles and computes them across a bounded worker pool. A panic
// inside any single tile is recovered and surfaced as an error - spec
// section 7's DispatchFailure - rather than crashing the process;
// cells in other tiles still complete, but the whole dispatch is
// reported as failed so the driver can choose to retry.
func dispatchTiles(e *Executor, audio []float32, frameOffset int, m *Magnitude) error {
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 1
	}

	jobs := make(chan tileJob)
	errs := make(chan error, 1)
	var wg sync.WaitGroup

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if err := runTile(e, audio, frameOffset, m, job); err != nil {
					select {
					case errs <- err:
					default:
					}
				}
			}
		}()
	}

	for fs := 0; fs < m.NumFrames; fs += dispatchTileSize {
		fe := fs + dispatchTileSize
		if fe > m.NumFrames {
			fe = m.NumFrames
		}
		for bs := 0; bs < m.NumBins; bs += dispatchTileSize {
			be := bs + dispatchTileSize
			if be > m.NumBins {
				be = m.NumBins
			}
			jobs <- tileJob{frameStart: fs, frameEnd: fe, binStart: bs, binEnd: be}
		}
	}
	close(jobs)
	wg.Wait()

	select {
	case err := <-errs:
		return err
	default:
		return nil
	}
}

// runTile computes every cell in one tile, recovering a panic into an
// error so one bad tile cannot take down the whole worker pool.
func runTile(e *Executor, audio []float32, frameOffset int, m *Magnitude, job tileJob) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tile frames[%d:%d) bins[%d:%d) panicked: %v",
				job.frameStart, job.frameEnd, job.binStart, job.binEnd, r)
		}
	}()

	for f := job.frameStart; f < job.frameEnd; f++ {
		row := m.Data[f*m.RowStride : f*m.RowStride+m.NumBins]
		for k := job.binStart; k < job.binEnd; k++ {
			row[k] = e.cell(audio, frameOffset, f, k)
		}
	}
	return nil
}
