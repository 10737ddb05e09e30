// Package orchestrator coordinates the specialized agents behind a single
// dispatch entry point.
//
// Invariants:
// - Every ProcessTask call terminates in a uniform {success, message,
//   result} envelope; nothing propagates as an unhandled fault.
// - The liveness check runs before dispatch; an unavailable agent is
//   never asked to process.
// - The registry is owned by the Orchestrator instance; there is no
//   package-level state.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/LeKyks/pyassist/internal/metrics"
	"github.com/LeKyks/pyassist/pkg/agent"
	"github.com/rs/zerolog"
)

// Descriptor is the id-augmented metadata of a registered agent
type Descriptor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// TaskResult is the uniform envelope returned for every task
type TaskResult struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Result  interface{} `json:"result"`
}

// Orchestrator owns the agent registry and dispatches tasks
type Orchestrator struct {
	agents  map[string]agent.Agent
	mu      sync.RWMutex
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// Options configures an orchestrator
type Options struct {
	Logger  zerolog.Logger
	Metrics *metrics.Metrics // optional
}

// New creates an orchestrator with an empty registry
func New(opts Options) *Orchestrator {
	return &Orchestrator{
		agents:  make(map[string]agent.Agent),
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
}

// Register inserts an agent under id, overwriting any previous entry.
// Registering the same agent twice is a no-op.
func (o *Orchestrator) Register(id string, a agent.Agent) {
	o.mu.Lock()
	o.agents[id] = a
	o.mu.Unlock()

	o.logger.Info().
		Str("agent_id", id).
		Str("name", a.Info().Name).
		Msg("Agent registered")
}

// Unregister removes the agent under id; absent ids are a no-op
func (o *Orchestrator) Unregister(id string) {
	o.mu.Lock()
	_, exists := o.agents[id]
	delete(o.agents, id)
	o.mu.Unlock()

	if exists {
		o.logger.Info().Str("agent_id", id).Msg("Agent unregistered")
	}
}

// List returns a snapshot of the registered agents, sorted by id
func (o *Orchestrator) List() []Descriptor {
	o.mu.RLock()
	descriptors := make([]Descriptor, 0, len(o.agents))
	for id, a := range o.agents {
		info := a.Info()
		descriptors = append(descriptors, Descriptor{
			ID:          id,
			Name:        info.Name,
			Description: info.Description,
		})
	}
	o.mu.RUnlock()

	sort.Slice(descriptors, func(i, j int) bool {
		return descriptors[i].ID < descriptors[j].ID
	})
	return descriptors
}

// Get returns the agent registered under id
func (o *Orchestrator) Get(id string) (agent.Agent, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	a, ok := o.agents[id]
	return a, ok
}

// ProcessTask delegates a task to the agent registered under id.
// The flow is lookup, liveness check, dispatch, envelope; it terminates
// on the first failing step and never returns an error.
func (o *Orchestrator) ProcessTask(ctx context.Context, id string, data agent.TaskRequest) TaskResult {
	a, ok := o.Get(id)
	if !ok {
		o.logger.Error().Str("agent_id", id).Msg("Agent not found")
		o.recordTask(id, "not_found", 0)
		return TaskResult{
			Success: false,
			Message: fmt.Sprintf("Agent non trouvé: %s", id),
		}
	}

	if !a.CheckStatus(ctx) {
		o.logger.Error().Str("agent_id", id).Msg("Agent is not available")
		o.recordTask(id, "unavailable", 0)
		return TaskResult{
			Success: false,
			Message: fmt.Sprintf("Agent %s non disponible", id),
		}
	}

	o.logger.Info().Str("agent_id", id).Msg("Delegating task to agent")
	start := time.Now()

	result, err := o.dispatch(ctx, a, data)
	elapsed := time.Since(start)

	if err != nil {
		o.logger.Error().Err(err).Str("agent_id", id).Msg("Error processing task")
		o.recordTask(id, "error", elapsed)
		return TaskResult{
			Success: false,
			Message: fmt.Sprintf("Erreur lors du traitement: %v", err),
		}
	}

	o.recordTask(id, "success", elapsed)
	return TaskResult{
		Success: true,
		Message: fmt.Sprintf("Tâche traitée par %s", id),
		Result:  result,
	}
}

// dispatch invokes the agent and converts panics into errors. Agents are
// expected to self-contain failures; this is the defensive second layer.
func (o *Orchestrator) dispatch(ctx context.Context, a agent.Agent, data agent.TaskRequest) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("agent panicked: %v", r)
		}
	}()

	return a.Process(ctx, data)
}

func (o *Orchestrator) recordTask(id, status string, elapsed time.Duration) {
	if o.metrics == nil {
		return
	}
	o.metrics.TasksTotal.WithLabelValues(id, status).Inc()
	if elapsed > 0 {
		o.metrics.TaskDuration.WithLabelValues(id).Observe(elapsed.Seconds())
	}
}
