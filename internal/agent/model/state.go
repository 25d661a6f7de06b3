package model

// RouteLabel is the closed set of intents a turn can be dispatched to.
type RouteLabel string

const (
	// RouteChat handles open conversation directly in the finalizer.
	RouteChat RouteLabel = "chat"
	// RouteMetadata dispatches to the catalog lookup branch.
	RouteMetadata RouteLabel = "metadata"
	// RouteRetrieval dispatches to the review retrieval branch.
	RouteRetrieval RouteLabel = "retrieval"
)

// QueryInput represents the input for processing user queries.
type QueryInput struct {
	ConversationID string `json:"conversation_id"`
	Query          string `json:"query"`
}

// RouteDecision is the router node output, threaded through the branch nodes
// so every path delivers the same value type to the finalizer.
type RouteDecision struct {
	Route     RouteLabel
	UserInput string
}

// AppState stores per-invocation state for the Eino graph.
// Concurrency model:
//   - This struct is registered as Graph Local State via compose.WithGenLocalState.
//   - All reads/writes happen only inside Eino state handlers:
//     WithStatePreHandler, WithStatePostHandler, or compose.ProcessState.
//   - Eino serializes access to state within these handlers, so no additional
//     mutex/atomic is required as long as you never touch it outside handlers.
//   - Each graph invocation gets a fresh AppState, so concurrent turns of
//     different sessions never share mutable state through the graph.
type AppState struct {
	ConversationID string
	UserInput      string

	Route          RouteLabel          // set exactly once per turn
	EntityKey      string              // set by the metadata branch on a confident match
	Retrieved      []RetrievedDocument // set by the retrieval branch; empty is valid
	Draft          string              // branch output, consumed by the finalizer
	Response       string              // final answer, set exactly once by the finalizer
	BranchDegraded bool                // the executed branch fell back to degraded draft text

	// Accumulated total LLM cost (USD) across model invocations for this turn.
	TotalCostUSD float64
}
