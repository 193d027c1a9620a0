// Package runner executes stored items: single requests against the rule
// engine, priority suites entry by entry, and generic API calls. Every
// execution is recorded in run history.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ruliad/internal/apicaller"
	"ruliad/internal/core"
	"ruliad/internal/engine"
	"ruliad/internal/store"
)

// RunStatus values recorded in run history.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusError   = "error"
)

// RequestResult is the outcome of a single request execution.
type RequestResult struct {
	RequestID   string
	RequestName string
	RuleName    string
	Passed      bool
	Decision    string
	Detail      json.RawMessage
	Duration    time.Duration
	Err         error
}

// EntryResult is the outcome of one suite entry.
type EntryResult struct {
	RuleName string
	XID      string
	Expected bool
	Actual   bool
	Matched  bool
	Err      error
}

// SuiteSummary aggregates a full suite run.
type SuiteSummary struct {
	SuiteID       string
	SuiteName     string
	TotalEntries  int
	Executed      int
	Matched       int
	Mismatched    int
	Errors        int
	Results       []EntryResult
	TotalDuration time.Duration
	StartTime     time.Time
	EndTime       time.Time
}

// Describe renders a one-line summary for notifications.
func (s *SuiteSummary) Describe() string {
	return fmt.Sprintf("%d/%d matched, %d mismatched, %d errors",
		s.Matched, s.Executed, s.Mismatched, s.Errors)
}

// ProgressCallback is called after each suite entry is executed.
type ProgressCallback func(current int, total int, result *EntryResult)

// Runner drives executions for one environment.
type Runner struct {
	env        string
	engine     *engine.Client
	caller     *apicaller.Client
	gateway    store.Gateway
	user       string
	onProgress ProgressCallback
}

// Option configures the Runner.
type Option func(*Runner)

// WithAPICaller sets a custom API call client.
func WithAPICaller(c *apicaller.Client) Option {
	return func(r *Runner) {
		r.caller = c
	}
}

// WithProgressCallback sets a callback for suite progress updates.
func WithProgressCallback(cb ProgressCallback) Option {
	return func(r *Runner) {
		r.onProgress = cb
	}
}

// New creates a runner for env. Executions go to eng, outcomes to gw.
func New(env string, eng *engine.Client, gw store.Gateway, user string, opts ...Option) *Runner {
	r := &Runner{
		env:     env,
		engine:  eng,
		caller:  apicaller.NewClient(),
		gateway: gw,
		user:    user,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// RunRequest executes a stored request and records the outcome.
func (r *Runner) RunRequest(ctx context.Context, req *core.Request) (*RequestResult, error) {
	start := time.Now()

	result := &RequestResult{
		RequestID:   req.ID,
		RequestName: req.Name,
		RuleName:    req.RuleName,
	}

	exec, err := r.engine.Execute(ctx, req)
	result.Duration = time.Since(start)
	if err != nil {
		result.Err = err
		r.record(ctx, core.KindRequest, req.ID, StatusError, errResult(err), result.Duration)
		return result, err
	}

	result.Passed = exec.Result
	result.Decision = exec.Status
	result.Detail = exec.EvaluationData

	status := StatusFailure
	if exec.Result {
		status = StatusSuccess
	}
	resultJSON, _ := json.Marshal(exec)
	r.record(ctx, core.KindRequest, req.ID, status, string(resultJSON), result.Duration)

	return result, nil
}

// RunSuite executes every suite entry sequentially and records a single
// aggregate run. A cancelled context stops between entries.
func (r *Runner) RunSuite(ctx context.Context, suite *core.Suite) (*SuiteSummary, error) {
	summary := &SuiteSummary{
		SuiteID:      suite.ID,
		SuiteName:    suite.Name,
		TotalEntries: len(suite.Entries),
		StartTime:    time.Now(),
		Results:      make([]EntryResult, 0, len(suite.Entries)),
	}

	for i, entry := range suite.Entries {
		if ctx.Err() != nil {
			break
		}

		result := r.executeEntry(ctx, entry)
		summary.Results = append(summary.Results, result)
		summary.Executed++

		switch {
		case result.Err != nil:
			summary.Errors++
		case result.Matched:
			summary.Matched++
		default:
			summary.Mismatched++
		}

		if r.onProgress != nil {
			r.onProgress(i+1, summary.TotalEntries, &result)
		}
	}

	summary.EndTime = time.Now()
	summary.TotalDuration = summary.EndTime.Sub(summary.StartTime)

	status := StatusSuccess
	if summary.Errors > 0 {
		status = StatusError
	} else if summary.Mismatched > 0 {
		status = StatusFailure
	}

	resultJSON, _ := json.Marshal(map[string]interface{}{
		"total":      summary.TotalEntries,
		"executed":   summary.Executed,
		"matched":    summary.Matched,
		"mismatched": summary.Mismatched,
		"errors":     summary.Errors,
	})
	r.record(ctx, core.KindSuite, suite.ID, status, string(resultJSON), summary.TotalDuration)

	return summary, ctx.Err()
}

// SendAPICall sends a stored API call and records the outcome.
func (r *Runner) SendAPICall(ctx context.Context, call *core.APICall) (*apicaller.Result, error) {
	result, err := r.caller.Send(ctx, call)
	if err != nil {
		r.record(ctx, core.KindAPICall, call.ID, StatusError, errResult(err), 0)
		return nil, err
	}

	status := StatusFailure
	if result.OK() {
		status = StatusSuccess
	}
	resultJSON, _ := json.Marshal(map[string]interface{}{
		"status_code": result.StatusCode,
		"size":        result.Size,
	})
	r.record(ctx, core.KindAPICall, call.ID, status, string(resultJSON), result.Duration)

	return result, nil
}

func (r *Runner) executeEntry(ctx context.Context, entry core.SuiteEntry) EntryResult {
	result := EntryResult{
		RuleName: entry.RuleName,
		XID:      entry.XID,
		Expected: entry.ExpectedResult,
	}

	exec, err := r.engine.Execute(ctx, &core.Request{
		RuleName:    entry.RuleName,
		Environment: r.env,
		PersonaID:   entry.XID,
		JSONContext: entry.JSONContext,
	})
	if err != nil {
		result.Err = err
		return result
	}

	result.Actual = exec.Result
	result.Matched = exec.Result == entry.ExpectedResult
	return result
}

// record saves a run; history is best-effort and never fails an execution.
func (r *Runner) record(ctx context.Context, kind core.ItemKind, refID, status, result string, duration time.Duration) {
	if r.gateway == nil || refID == "" {
		return
	}

	// A cancelled run still deserves a history row.
	if ctx.Err() != nil {
		ctx = context.WithoutCancel(ctx)
	}

	r.gateway.SaveRun(ctx, store.Run{
		RunType:     kind,
		ReferenceID: refID,
		Environment: r.env,
		Status:      status,
		Result:      result,
		ExecutionMS: duration.Milliseconds(),
		CreatedBy:   r.user,
	})
}

func errResult(err error) string {
	b, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(b)
}
