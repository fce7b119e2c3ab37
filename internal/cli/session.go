package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"github.com/jo-hoe/gosolve/internal/backend/database"
	"github.com/jo-hoe/gosolve/internal/client"
	"github.com/jo-hoe/gosolve/internal/mathtext"
)

// ErrQuit is returned by Handle when the user asks to leave
var ErrQuit = errors.New("quit")

const helpText = `commands:
  question <text>                     set the question
  image <path>                        select an image and start cropping
  crop <x> <y> <w> <h> [<dw> <dh>]    crop the selected image and submit;
                                      dw/dh is the size the region was measured at
  cancel                              skip cropping and keep the full image
  submit                              send the question (and image)
  show                                print the form and last solution
  get <id>                            fetch a stored problem
  base <url>                          change the server url
  help                                this text
  quit                                leave`

// Session interprets REPL lines against a client workflow
type Session struct {
	client   *client.Client
	workflow *client.Workflow
	out      io.Writer
}

func NewSession(c *client.Client, out io.Writer) *Session {
	return &Session{
		client:   c,
		workflow: client.NewWorkflow(c),
		out:      out,
	}
}

func (s *Session) Workflow() *client.Workflow {
	return s.workflow
}

// Handle runs one input line. It returns ErrQuit for quit/exit.
func (s *Session) Handle(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	tokens, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse command failed: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}

	args := tokens[1:]
	switch strings.ToLower(tokens[0]) {
	case "quit", "exit":
		s.printLine("bye")
		return ErrQuit
	case "help":
		s.printLine(helpText)
		return nil
	case "question", "q":
		if len(args) == 0 {
			return errors.New("usage: question <text>")
		}
		s.workflow.SetQuestion(strings.Join(args, " "))
		s.printLine("question set")
		return nil
	case "image":
		return s.handleImage(args)
	case "crop":
		return s.handleCrop(ctx, args)
	case "cancel":
		if err := s.workflow.CancelCrop(); err != nil {
			return err
		}
		s.printLine("crop skipped; the full image will be sent")
		return nil
	case "submit":
		problem, err := s.workflow.Submit(ctx)
		return s.report(problem, err)
	case "show":
		s.show()
		return nil
	case "get":
		return s.handleGet(ctx, args)
	case "base":
		if len(args) != 1 {
			return errors.New("usage: base <url>")
		}
		s.client.SetBaseURL(args[0])
		s.printLine("base set to %s", s.client.BaseURL())
		return nil
	default:
		return fmt.Errorf("unknown command: %s (try help)", tokens[0])
	}
}

func (s *Session) handleImage(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: image <path>")
	}
	if err := s.workflow.SelectImageFile(args[0]); err != nil {
		return err
	}
	s.printLine("image selected; question: %q", s.workflow.Question())
	s.printLine("use 'crop x y w h' to select the problem region or 'cancel' to keep the full image")
	return nil
}

func (s *Session) handleCrop(ctx context.Context, args []string) error {
	if len(args) != 4 && len(args) != 6 {
		return errors.New("usage: crop <x> <y> <w> <h> [<displayWidth> <displayHeight>]")
	}
	values := make([]int, len(args))
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return fmt.Errorf("invalid number %q", a)
		}
		values[i] = v
	}

	region := client.Region{X: values[0], Y: values[1], Width: values[2], Height: values[3]}
	var display client.Size
	if len(values) == 6 {
		display = client.Size{Width: values[4], Height: values[5]}
	}
	problem, err := s.workflow.ConfirmCrop(ctx, region, display)
	return s.report(problem, err)
}

func (s *Session) handleGet(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: get <id>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", args[0])
	}
	problem, err := s.client.GetProblem(ctx, id)
	if err != nil {
		return err
	}
	s.printProblem(problem)
	return nil
}

func (s *Session) report(problem *database.Problem, err error) error {
	if err != nil {
		if msg := s.workflow.Notification(); msg != "" {
			s.printLine("! %s", msg)
			s.workflow.DismissNotification()
			return nil
		}
		return err
	}
	if msg := s.workflow.Notification(); msg != "" {
		s.printLine("! %s", msg)
		s.workflow.DismissNotification()
	}
	s.printProblem(problem)
	return nil
}

func (s *Session) show() {
	w := s.workflow
	s.printLine("state: %s", w.State())
	s.printLine("question: %q", w.Question())
	switch {
	case w.IsCropped():
		s.printLine("image: cropped")
	case w.HasImage():
		s.printLine("image: selected")
	default:
		s.printLine("image: none")
	}
	if last := w.LastProblem(); last != nil {
		s.printLine("")
		s.printProblem(last)
	}
}

func (s *Session) printProblem(p *database.Problem) {
	s.printLine("#%d %s", p.ID, p.Question)
	if p.Solution == nil {
		s.printLine("(pending)")
		return
	}
	s.printLine("%s", strings.TrimRight(mathtext.RenderText(mathtext.Tokenize(p.Solution.Text)), "\n"))
}

func (s *Session) printLine(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format+"\n", args...)
}
