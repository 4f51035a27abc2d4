package negotiate

import (
	"docintake/internal/oracle"
	"docintake/internal/summary"
)

// Snapshot is the serializable image of a controller, persisted by the
// session store after every transition.
type Snapshot struct {
	State    State                 `json:"state"`
	Depth    int                   `json:"depth"`
	MaxDepth int                   `json:"max_depth"`
	Model    string                `json:"model"`
	Messages []Message             `json:"messages"`
	Files    []summary.FileSummary `json:"files,omitempty"`
	Pending  []QuestionCategory    `json:"pending,omitempty"`
	Usage    Usage                 `json:"usage"`
	Result   *FinalResult          `json:"result,omitempty"`
}

func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		State:    c.state,
		Depth:    c.depth,
		MaxDepth: c.maxDepth,
		Model:    c.model,
		Messages: c.mem.All(),
		Files:    c.Files(),
		Pending:  c.Pending(),
		Usage:    c.usage,
		Result:   c.result,
	}
}

// Restore rebuilds a controller from a persisted snapshot, bound to cli.
func Restore(cli oracle.Client, snap Snapshot, maxOutputTokens int) *Controller {
	c := New(cli, Options{
		Model:           snap.Model,
		MaxDepth:        snap.MaxDepth,
		MaxOutputTokens: maxOutputTokens,
	})
	c.state = snap.State
	if c.state == "" {
		c.state = StateIdle
	}
	c.depth = snap.Depth
	c.mem.Replace(snap.Messages)
	c.files = append([]summary.FileSummary(nil), snap.Files...)
	c.pending = append([]QuestionCategory(nil), snap.Pending...)
	c.usage = snap.Usage
	c.result = snap.Result
	return c
}
