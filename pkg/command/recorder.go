package command

import (
	"context"
	"strings"
	"sync"
)

// Call records a single command invocation seen by a Recorder.
type Call struct {
	Dir  string
	Name string
	Args []string
}

// Line returns the invocation as a single space-joined string, which
// keeps test assertions readable.
func (c Call) Line() string {
	return Line(c.Name, c.Args...)
}

// Response is a scripted result for a Recorder.
type Response struct {
	Output []byte
	Err    error
}

// Recorder is a Runner for tests. It records every call and answers
// with scripted responses matched by substring against the command line.
type Recorder struct {
	mu    sync.Mutex
	calls []Call

	// responses maps a substring of the command line to its result.
	// First match wins; unmatched commands succeed with empty output.
	responses []scriptedResponse
}

type scriptedResponse struct {
	match string
	resp  Response
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Respond scripts a response for any command line containing match.
func (r *Recorder) Respond(match string, output []byte, err error) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, scriptedResponse{match: match, resp: Response{Output: output, Err: err}})
	return r
}

// Run implements Runner.
func (r *Recorder) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	call := Call{Dir: dir, Name: name, Args: append([]string(nil), args...)}
	r.calls = append(r.calls, call)

	line := call.Line()
	for _, s := range r.responses {
		if strings.Contains(line, s.match) {
			return s.resp.Output, s.resp.Err
		}
	}
	return nil, nil
}

// Calls returns a copy of all recorded invocations.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Lines returns every recorded invocation as a command line string.
func (r *Recorder) Lines() []string {
	calls := r.Calls()
	lines := make([]string, 0, len(calls))
	for _, c := range calls {
		lines = append(lines, c.Line())
	}
	return lines
}

// CallCount returns the number of recorded invocations.
func (r *Recorder) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}
