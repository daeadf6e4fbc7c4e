package hooks

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Execute runs the phase's eligible hooks against a context. The
// returned result always contains one entry per eligible hook,
// whatever combination of successes, failures, timeouts and aborts
// occurred.
func (r *Registry[C]) Execute(ctx context.Context, hookCtx C, opts ExecOptions) PhaseResult[C] {
	if opts.Mode == "" {
		opts.Mode = ModeSequential
	}
	phaseCtx := ctx
	if phaseCtx == nil {
		phaseCtx = context.Background()
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		phaseCtx, cancel = context.WithTimeout(phaseCtx, opts.Timeout)
		defer cancel()
	}

	eligible := r.eligible(hookCtx)
	if opts.Mode == ModeParallel {
		return r.executeParallel(phaseCtx, eligible, hookCtx)
	}
	return r.executeSequential(phaseCtx, eligible, hookCtx, opts.StopOnAbort)
}

func (r *Registry[C]) executeSequential(ctx context.Context, eligible []Hook[C], hookCtx C, stopOnAbort bool) PhaseResult[C] {
	result := PhaseResult[C]{
		Results: make([]HookResult, 0, len(eligible)),
		Context: hookCtx,
	}

	for index, hook := range eligible {
		if ctx.Err() != nil {
			result.Results = append(result.Results, skippedResult(hook, "phase deadline exceeded before hook started"))
			result.Skipped++
			continue
		}

		hookResult, outcome := runHook(ctx, hook, result.Context)
		result.Results = append(result.Results, hookResult)

		switch hookResult.Status {
		case StatusFailed:
			result.Failed++
		case StatusAborted:
			result.Aborted = true
			result.AbortReason = hookResult.AbortReason
			if stopOnAbort {
				for _, remaining := range eligible[index+1:] {
					result.Results = append(result.Results, skippedResult(remaining, "skipped: earlier hook aborted the phase"))
					result.Skipped++
				}
				return result
			}
		case StatusSucceeded:
			result.Succeeded++
			if outcome.Modified != nil {
				result.Context = *outcome.Modified
			}
		}
	}
	return result
}

func (r *Registry[C]) executeParallel(ctx context.Context, eligible []Hook[C], hookCtx C) PhaseResult[C] {
	result := PhaseResult[C]{
		Results: make([]HookResult, len(eligible)),
		Context: hookCtx,
	}

	var wg sync.WaitGroup
	for index, hook := range eligible {
		wg.Add(1)
		go func(index int, hook Hook[C]) {
			defer wg.Done()
			hookResult, _ := runHook(ctx, hook, hookCtx)
			result.Results[index] = hookResult
		}(index, hook)
	}
	wg.Wait()

	// Results land in launch order so the report stays stable; an
	// abort in parallel mode never cancels hooks that already
	// started, it is only surfaced to the caller.
	for _, hookResult := range result.Results {
		switch hookResult.Status {
		case StatusSucceeded:
			result.Succeeded++
		case StatusFailed:
			result.Failed++
		case StatusAborted:
			if !result.Aborted {
				result.Aborted = true
				result.AbortReason = hookResult.AbortReason
			}
		}
	}
	return result
}

// runHook executes one hook with its own timeout and panic isolation.
// A timeout surfaces as a failed result with a descriptive message,
// never as an uncaught fault.
func runHook[C any](ctx context.Context, hook Hook[C], hookCtx C) (HookResult, Outcome[C]) {
	execCtx := ctx
	if hook.Timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, hook.Timeout)
		defer cancel()
	}

	type handlerReturn struct {
		outcome Outcome[C]
		err     error
	}
	returned := make(chan handlerReturn, 1)
	started := time.Now()

	go func() {
		defer func() {
			if recovered := recover(); recovered != nil {
				returned <- handlerReturn{err: fmt.Errorf("hook panicked: %v", recovered)}
			}
		}()
		outcome, err := hook.Handler.Handle(execCtx, hookCtx)
		returned <- handlerReturn{outcome: outcome, err: err}
	}()

	select {
	case <-execCtx.Done():
		message := "hook execution timed out"
		if hook.Timeout > 0 && ctx.Err() == nil {
			message = fmt.Sprintf("hook execution exceeded its %s timeout", hook.Timeout)
		} else if ctx.Err() != nil {
			message = "phase deadline exceeded during hook execution"
		}
		return HookResult{
			HookID:   hook.ID,
			HookName: hook.Name,
			Status:   StatusFailed,
			Error:    message,
			Duration: time.Since(started),
		}, Outcome[C]{}
	case item := <-returned:
		duration := time.Since(started)
		if item.err != nil {
			return HookResult{
				HookID:   hook.ID,
				HookName: hook.Name,
				Status:   StatusFailed,
				Error:    item.err.Error(),
				Duration: duration,
			}, Outcome[C]{}
		}
		if item.outcome.Abort {
			return HookResult{
				HookID:      hook.ID,
				HookName:    hook.Name,
				Status:      StatusAborted,
				AbortReason: item.outcome.AbortReason,
				Duration:    duration,
			}, item.outcome
		}
		return HookResult{
			HookID:   hook.ID,
			HookName: hook.Name,
			Status:   StatusSucceeded,
			Duration: duration,
		}, item.outcome
	}
}

func skippedResult[C any](hook Hook[C], message string) HookResult {
	return HookResult{
		HookID:   hook.ID,
		HookName: hook.Name,
		Status:   StatusSkipped,
		Error:    message,
	}
}
