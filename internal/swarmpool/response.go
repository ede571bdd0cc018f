package swarmpool

// Response is the result of a single agent call.
type Response struct {
	Success bool
	Text    string
	Error   string
	// AgentIndex is the caller's local index in the pool that issued the
	// request, or -1 if unassigned.
	AgentIndex int
}

func successResponse(text string, agentIndex int) Response {
	return Response{Success: true, Text: text, AgentIndex: agentIndex}
}

func failureResponse(err error, agentIndex int) Response {
	return Response{Success: false, Error: err.Error(), AgentIndex: agentIndex}
}
