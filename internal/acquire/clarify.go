package acquire

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mj1618/desktop-extract/internal/model"
)

// Question asks for help with a target no strategy could acquire.
type Question struct {
	Target    model.NavigationTarget
	Attempted []model.Strategy
	Errors    []string
}

// Answer either replaces the target or skips it.
type Answer struct {
	Replacement *model.NavigationTarget
	Skip        bool
}

// Clarifier is asked once per target after every strategy failed. It blocks
// until an answer arrives or ctx ends.
type Clarifier interface {
	Clarify(ctx context.Context, q Question) (Answer, error)
}

// ClarifierFunc adapts a function to Clarifier.
type ClarifierFunc func(ctx context.Context, q Question) (Answer, error)

func (f ClarifierFunc) Clarify(ctx context.Context, q Question) (Answer, error) {
	return f(ctx, q)
}

// ChannelClarifier forwards questions over a channel and waits for the
// answer on another. Whoever owns the channels plays the responder.
type ChannelClarifier struct {
	Questions chan Question
	Answers   chan Answer
}

// NewChannelClarifier returns a clarifier with unbuffered channels.
func NewChannelClarifier() *ChannelClarifier {
	return &ChannelClarifier{Questions: make(chan Question), Answers: make(chan Answer)}
}

func (c *ChannelClarifier) Clarify(ctx context.Context, q Question) (Answer, error) {
	select {
	case c.Questions <- q:
	case <-ctx.Done():
		return Answer{}, ctx.Err()
	}
	select {
	case a := <-c.Answers:
		return a, nil
	case <-ctx.Done():
		return Answer{}, ctx.Err()
	}
}

// Respond serves questions with fn until ctx ends. It is the usual
// responder for a ChannelClarifier.
func (c *ChannelClarifier) Respond(ctx context.Context, fn func(Question) Answer) {
	for {
		select {
		case q := <-c.Questions:
			select {
			case c.Answers <- fn(q):
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// PromptClarifier asks on a terminal. An empty line skips the target, "#n"
// picks candidate n and anything else is a replacement name.
type PromptClarifier struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPromptClarifier reads answers from in and writes questions to out.
func NewPromptClarifier(in io.Reader, out io.Writer) *PromptClarifier {
	return &PromptClarifier{in: bufio.NewReader(in), out: out}
}

func (p *PromptClarifier) Clarify(ctx context.Context, q Question) (Answer, error) {
	if err := ctx.Err(); err != nil {
		return Answer{}, err
	}
	fmt.Fprintf(p.out, "Could not acquire %s (tried %s).\n", q.Target, joinStrategies(q.Attempted))
	for _, e := range q.Errors {
		fmt.Fprintf(p.out, "  - %s\n", e)
	}
	fmt.Fprint(p.out, "Replacement name, #index, or empty to skip: ")
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		if err == io.EOF {
			return Answer{Skip: true}, nil
		}
		return Answer{}, err
	}
	return ParseAnswer(line), nil
}

// ParseAnswer reads a typed reply.
func ParseAnswer(line string) Answer {
	line = strings.TrimSpace(line)
	if line == "" {
		return Answer{Skip: true}
	}
	if rest, ok := strings.CutPrefix(line, "#"); ok {
		if i, err := strconv.Atoi(rest); err == nil {
			t := model.IndexTarget(i)
			return Answer{Replacement: &t}
		}
	}
	t := model.NamedTarget(line)
	return Answer{Replacement: &t}
}

func joinStrategies(ss []model.Strategy) string {
	if len(ss) == 0 {
		return "nothing"
	}
	names := make([]string, len(ss))
	for i, s := range ss {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
