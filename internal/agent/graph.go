// internal/agent/graph.go
package agent

import (
	"context"
	"fmt"
)

// chatState is the unit of work flowing through the chat graph.
type chatState struct {
	applicationID string
	userMessage   string
	reply         string
}

// graphNode advances the state; returning an error aborts the run.
type graphNode struct {
	name string
	run  func(ctx context.Context, state *chatState) error
}

// chatGraph is a fixed linear pipeline: classify the request, then act on
// it. classify is a pass-through today and is the seam where per-intent
// routing would plug in.
type chatGraph struct {
	nodes []graphNode
}

func newChatGraph(react *ReactAgent) *chatGraph {
	return &chatGraph{
		nodes: []graphNode{
			{name: "classify", run: classifyNode},
			{name: "act", run: actNode(react)},
		},
	}
}

func (g *chatGraph) run(ctx context.Context, state *chatState) (string, error) {
	for _, n := range g.nodes {
		if err := n.run(ctx, state); err != nil {
			return "", fmt.Errorf("graph node %s: %w", n.name, err)
		}
	}
	return state.reply, nil
}

func classifyNode(_ context.Context, _ *chatState) error {
	return nil
}

func actNode(react *ReactAgent) func(ctx context.Context, state *chatState) error {
	return func(ctx context.Context, state *chatState) error {
		if state.applicationID == "" || state.userMessage == "" {
			state.reply = "Internal error: missing application_id or user_message."
			return nil
		}

		reply, err := react.Answer(ctx, state.applicationID, state.userMessage)
		if err != nil {
			return err
		}
		state.reply = reply
		return nil
	}
}
