// Package runner executes generated simulation jobs with an external engine,
// a bounded number at a time.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"neuromlcap/internal/model"
)

// Executor runs one job whose files live in dir and returns the combined
// engine output.
type Executor interface {
	Execute(ctx context.Context, dir string, job model.Job) ([]byte, error)
}

// Engine command lines, keyed by the configured engine name.
var engines = map[string][]string{
	"jnml":        {"jnml", "{file}", "-nogui"},
	"jnml_neuron": {"jnml", "{file}", "-neuron", "-run", "-nogui"},
	"pynml":       {"pynml", "{file}", "-nogui"},
}

// CommandExecutor runs the LEMS file of a job with an engine binary found on
// PATH, in the analysis directory.
type CommandExecutor struct {
	Engine string
}

func NewCommandExecutor(engine string) (*CommandExecutor, error) {
	if _, ok := engines[engine]; !ok {
		return nil, model.NewConfigError("default.engine", "unknown engine %q", engine)
	}
	return &CommandExecutor{Engine: engine}, nil
}

// Command returns the program and arguments that run file.
func (e *CommandExecutor) Command(file string) (string, []string) {
	tmpl := engines[e.Engine]
	args := make([]string, 0, len(tmpl)-1)
	for _, a := range tmpl[1:] {
		if a == "{file}" {
			a = file
		}
		args = append(args, a)
	}
	return tmpl[0], args
}

func (e *CommandExecutor) Execute(ctx context.Context, dir string, job model.Job) ([]byte, error) {
	name, args := e.Command(job.SimFile)
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

type Pool struct {
	MaxWorkers int
	Executor   Executor
	Logger     *slog.Logger
}

// Run executes jobs with at most MaxWorkers in flight and blocks until all
// finish. The first failure cancels the jobs not yet started and is returned
// as an *model.ExternalToolError naming the job's LEMS file. Jobs are never
// retried.
func (p *Pool) Run(ctx context.Context, dir string, jobs []model.Job) error {
	if p.Executor == nil {
		return errors.New("runner: no executor")
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := p.MaxWorkers
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			logger.Debug("job started", "job_id", job.ID, "simfile", job.SimFile)
			out, err := p.Executor.Execute(gctx, dir, job)
			if err != nil {
				var toolErr *model.ExternalToolError
				if errors.As(err, &toolErr) {
					return toolErr
				}
				return &model.ExternalToolError{
					Tool:   toolName(p.Executor),
					JobID:  job.ID,
					File:   filepath.Join(dir, job.SimFile),
					Output: string(out),
					Err:    err,
				}
			}
			logger.Info("job finished", "job_id", job.ID, "duration", time.Since(start).String())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var toolErr *model.ExternalToolError
		if errors.As(err, &toolErr) {
			return toolErr
		}
		return fmt.Errorf("run jobs: %w", err)
	}
	return nil
}

func toolName(e Executor) string {
	if ce, ok := e.(*CommandExecutor); ok {
		return ce.Engine
	}
	return "engine"
}
