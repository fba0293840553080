package app

import (
	"context"
	"sync"

	"go-skud/internal/ingest"
	"go-skud/internal/notify"
)

// runBackground starts the notification dispatcher and the ingest worker.
// The dispatcher outlives the worker so alerts produced while draining the
// ingest queue still go out.
func runBackground(ctx context.Context, wg *sync.WaitGroup, dispatcher *notify.Dispatcher, worker *ingest.Worker) {
	dispatcherCtx, stopDispatcher := context.WithCancel(context.WithoutCancel(ctx))

	wg.Add(2)
	go func() {
		defer wg.Done()
		dispatcher.Run(dispatcherCtx)
	}()
	go func() {
		defer wg.Done()
		defer stopDispatcher()
		worker.Run(ctx)
	}()
}
