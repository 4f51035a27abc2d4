package negotiate

import (
	"context"
	"errors"
	"strings"

	"docintake/internal/oracle"
	"docintake/internal/summary"
)

// State of one negotiation.
type State string

const (
	StateIdle             State = "idle"
	StateAwaitingOracle   State = "awaiting_oracle"
	StateQuestionsPending State = "questions_pending"
	StateFinalized        State = "finalized"
)

var (
	ErrNotIdle    = errors.New("negotiate: negotiation already in progress")
	ErrNoPending  = errors.New("negotiate: no questions pending")
	ErrNoFiles    = errors.New("negotiate: at least one file summary is required")
	ErrNilOracle  = errors.New("negotiate: oracle client is required")
	ErrNoAnalysis = errors.New("negotiate: no active analysis")
)

// Options configure one controller.
type Options struct {
	Model           string
	MaxDepth        int
	MaxOutputTokens int
}

// Controller drives the bounded question-and-answer exchange: compose prompt,
// call the oracle, interpret the response, decide continue-or-terminate.
// It owns the conversation memory and round state exclusively; all mutation
// happens at transition points between rounds, never concurrently.
type Controller struct {
	oracle    oracle.Client
	model     string
	maxTokens int
	maxDepth  int

	state     State
	depth     int
	lastModel string
	mem       *Memory
	files     []summary.FileSummary
	pending   []QuestionCategory
	usage     Usage
	result    *FinalResult
}

func New(cli oracle.Client, opts Options) *Controller {
	if opts.MaxDepth < 0 {
		opts.MaxDepth = 0
	}
	if opts.MaxOutputTokens <= 0 {
		opts.MaxOutputTokens = 2048
	}
	return &Controller{
		oracle:    cli,
		model:     opts.Model,
		maxTokens: opts.MaxOutputTokens,
		maxDepth:  opts.MaxDepth,
		state:     StateIdle,
		mem:       NewMemory(),
	}
}

// Outcome is what one completed round produced: either a pending question
// set or the final result.
type Outcome struct {
	State     State              `json:"state"`
	Depth     int                `json:"depth"`
	Summary   string             `json:"summary,omitempty"`
	Questions []QuestionCategory `json:"questions,omitempty"`
	Result    *FinalResult       `json:"result,omitempty"`
}

func (c *Controller) State() State                 { return c.state }
func (c *Controller) Depth() int                   { return c.depth }
func (c *Controller) MaxDepth() int                { return c.maxDepth }
func (c *Controller) Result() *FinalResult         { return c.result }
func (c *Controller) Messages() []Message          { return c.mem.All() }
func (c *Controller) Pending() []QuestionCategory  { return append([]QuestionCategory(nil), c.pending...) }
func (c *Controller) Files() []summary.FileSummary { return append([]summary.FileSummary(nil), c.files...) }

// Start begins a negotiation from Idle: composes the initial prompt, seeds
// the memory and performs the first oracle round. An oracle failure leaves
// the controller untouched so the identical call can be retried.
func (c *Controller) Start(ctx context.Context, files []summary.FileSummary) (*Outcome, error) {
	if c.oracle == nil {
		return nil, ErrNilOracle
	}
	if c.state != StateIdle {
		return nil, ErrNotIdle
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	system := SystemFollowUp
	if c.maxDepth == 0 {
		system = SystemFinal
	}
	user := InitialPrompt(files, c.maxDepth)

	gen, err := c.oracle.Generate(ctx, oracle.GenerateRequest{
		Model:           c.model,
		System:          system,
		User:            user,
		MaxOutputTokens: c.maxTokens,
	})
	if err != nil {
		return nil, err
	}

	c.files = append([]summary.FileSummary(nil), files...)
	c.mem.Append(Message{Role: RoleSystem, Content: system})
	c.mem.Append(Message{Role: RoleUser, Content: user})
	c.mem.Append(Message{Role: RoleAssistant, Content: gen.Text})
	c.accumulate(gen)
	return c.evaluate(gen.Text), nil
}

// Submit hands the user's combined answers to the pending questions back to
// the oracle, incrementing the depth. The final-analysis system prompt is
// selected exactly when the incremented depth reaches maxDepth. An oracle
// failure leaves depth, memory and the pending set unchanged.
func (c *Controller) Submit(ctx context.Context, answers []Answer) (*Outcome, error) {
	if c.state != StateQuestionsPending {
		return nil, ErrNoPending
	}
	combined := c.combineAnswers(answers)
	newDepth := c.depth + 1
	final := newDepth >= c.maxDepth

	system := SystemFollowUp
	if final {
		system = SystemFinal
	}
	user := FollowUpPrompt(c.files, c.mem, combined, final)

	gen, err := c.oracle.Generate(ctx, oracle.GenerateRequest{
		Model:           c.model,
		System:          system,
		User:            user,
		MaxOutputTokens: c.maxTokens,
	})
	if err != nil {
		return nil, err
	}

	c.depth = newDepth
	c.pending = nil
	c.mem.Append(Message{Role: RoleUser, Content: combined})
	c.mem.Append(Message{Role: RoleAssistant, Content: gen.Text})
	c.accumulate(gen)
	return c.evaluate(gen.Text), nil
}

// Reset returns the controller to Idle for a new file set, clearing the
// memory, round state and any pending questions.
func (c *Controller) Reset() {
	c.state = StateIdle
	c.depth = 0
	c.lastModel = ""
	c.mem.reset()
	c.files = nil
	c.pending = nil
	c.usage = Usage{}
	c.result = nil
}

// combineAnswers joins each displayed category's label with the user's
// reply, categories in display order. Answers match by label first, then by
// position.
func (c *Controller) combineAnswers(answers []Answer) string {
	byCategory := make(map[string]string, len(answers))
	for _, a := range answers {
		if k := strings.TrimSpace(a.Category); k != "" {
			byCategory[k] = a.Text
		}
	}
	var parts []string
	for i, cat := range c.pending {
		text, ok := byCategory[cat.Category]
		if !ok && i < len(answers) {
			text = answers[i].Text
		}
		text = strings.TrimSpace(text)
		if text == "" {
			text = "(no answer)"
		}
		parts = append(parts, cat.Category+": "+text)
	}
	return strings.Join(parts, "\n\n")
}

// evaluate applies the round-control policy to a raw oracle response.
// Termination wins when maxDepth is 0, the continuation signal explicitly
// reports no more info is needed, or the depth bound is reached.
func (c *Controller) evaluate(raw string) *Outcome {
	visible, needsMore, found := SplitContinuation(raw)
	terminate := c.maxDepth == 0 || c.depth >= c.maxDepth || (found && !needsMore)
	if terminate {
		res := ExtractFinal(visible)
		res.Usage = c.usage
		res.Model = c.lastModel
		if res.Model == "" {
			res.Model = c.model
		}
		c.result = &res
		c.state = StateFinalized
		return &Outcome{State: c.state, Depth: c.depth, Result: c.result}
	}

	summaryText, cats := ExtractQuestions(visible)
	c.pending = cats
	c.state = StateQuestionsPending
	return &Outcome{
		State:     c.state,
		Depth:     c.depth,
		Summary:   summaryText,
		Questions: c.Pending(),
	}
}

func (c *Controller) accumulate(gen *oracle.Generation) {
	c.usage.Add(Usage{
		PromptTokens:     gen.Usage.PromptTokens,
		CompletionTokens: gen.Usage.CompletionTokens,
		TotalTokens:      gen.Usage.TotalTokens,
	})
	if gen.Model != "" {
		c.lastModel = gen.Model
	}
}
