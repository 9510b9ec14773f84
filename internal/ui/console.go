package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"fleetsim/internal/deliverymap"
	"fleetsim/internal/geom"
	"fleetsim/internal/model"
)

var (
	ErrNoMap    = errors.New("no map information")
	ErrNoSink   = errors.New("no request queue bound")
	ErrRejected = errors.New("request inside an obstacle or out of bounds")
)

// Console is a line-oriented UI over a reader and a writer.
type Console struct {
	in  *bufio.Scanner
	out io.Writer

	mu   sync.Mutex // guards out and the bound collaborators
	m    *deliverymap.Map
	sink RequestSink
}

// NewConsole reads from in and writes to out; nil means stdin and stdout.
func NewConsole(in io.Reader, out io.Writer) *Console {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Console{in: bufio.NewScanner(in), out: out}
}

// Bind sets the queue AddRequest feeds.
func (c *Console) Bind(sink RequestSink) {
	c.mu.Lock()
	c.sink = sink
	c.mu.Unlock()
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

// readLine prompts and returns the next trimmed line.
func (c *Console) readLine(prompt string) (string, error) {
	c.printf("%s", prompt)
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(c.in.Text()), nil
}

func (c *Console) askInt(prompt string, least int) (int, error) {
	for {
		line, err := c.readLine(prompt)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(line)
		if err != nil || n < least {
			c.DisplayErrorMessage(fmt.Sprintf("expected an integer >= %d, got %q", least, line))
			continue
		}
		return n, nil
	}
}

func (c *Console) AskForNumberOfObstacles() (int, error) {
	return c.askInt("number of obstacles: ", 0)
}

func (c *Console) AskForNRobots() (int, error) {
	return c.askInt("number of robots: ", 1)
}

// AskForSpeed returns a positive tick rate in ticks per second.
func (c *Console) AskForSpeed() (float64, error) {
	for {
		line, err := c.readLine("speed (ticks/s): ")
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil || v <= 0 {
			c.DisplayErrorMessage(fmt.Sprintf("expected a positive number, got %q", line))
			continue
		}
		return v, nil
	}
}

// AskForRequest reads "sx sy ex ey" until it gets a request the map accepts.
func (c *Console) AskForRequest() (model.Request, error) {
	for {
		line, err := c.readLine("request (sx sy ex ey): ")
		if err != nil {
			return model.Request{}, err
		}
		req, err := parseRequest(line)
		if err != nil {
			c.DisplayErrorMessage(err.Error())
			continue
		}
		if err := c.validate(req); err != nil {
			c.DisplayErrorMessage(err.Error())
			continue
		}
		return req, nil
	}
}

func parseRequest(line string) (model.Request, error) {
	f := strings.Fields(strings.NewReplacer(",", " ", "(", " ", ")", " ").Replace(line))
	if len(f) != 4 {
		return model.Request{}, fmt.Errorf("expected 4 coordinates, got %d", len(f))
	}
	var v [4]int
	for i, s := range f {
		n, err := strconv.Atoi(s)
		if err != nil {
			return model.Request{}, fmt.Errorf("bad coordinate %q", s)
		}
		v[i] = n
	}
	return model.NewRequest(geom.Point{X: v[0], Y: v[1]}, geom.Point{X: v[2], Y: v[3]})
}

func (c *Console) IsAskingForNewPoint() (bool, error) {
	for {
		line, err := c.readLine("new request? [y/n]: ")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(line) {
		case "y", "yes":
			return true, nil
		case "n", "no", "":
			return false, nil
		}
		c.DisplayErrorMessage(fmt.Sprintf("answer y or n, got %q", line))
	}
}

func (c *Console) validate(req model.Request) error {
	c.mu.Lock()
	m := c.m
	c.mu.Unlock()
	if m == nil {
		return ErrNoMap
	}
	if !m.IsDeliveryRequestValid(req) {
		return fmt.Errorf("%v: %w", req, ErrRejected)
	}
	return nil
}

// AddRequest validates req against the map and queues it.
func (c *Console) AddRequest(req model.Request) error {
	if err := c.validate(req); err != nil {
		c.DisplayErrorMessage(err.Error())
		return err
	}
	c.mu.Lock()
	sink := c.sink
	c.mu.Unlock()
	if sink == nil {
		return ErrNoSink
	}
	return sink.Append(req)
}

// SendMapInformation records the map used to validate requests and prints
// its obstacles.
func (c *Console) SendMapInformation(m *deliverymap.Map) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m = m
	if m == nil {
		return
	}
	low, high := m.Margins()
	view := m.View()
	fmt.Fprintf(c.out, "map: %d obstacles, requests within [%d,%d]\n", len(view), low, high)
	for i, o := range view {
		if o.Kind == geom.KindCircle.String() {
			fmt.Fprintf(c.out, "  %2d %-9s center %v r=%.0f\n", i, o.Kind, o.Points[0], o.Radius)
			continue
		}
		fmt.Fprintf(c.out, "  %2d %-9s %v\n", i, o.Kind, o.Points)
	}
}

func (c *Console) DisplayRobotStatus(step int, robots []model.RobotStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "step %d\n", step)
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, r := range robots {
		fmt.Fprintf(tw, "  %s\t%v\t%s\t%6.2f\t%d\n", model.ShortID(r.ID), r.Position, r.State, r.Energy, r.Remaining)
	}
	_ = tw.Flush()
}

func (c *Console) DisplayErrorMessage(msg string) {
	c.printf("error: %s\n", msg)
}

// Observe prints every published status.
func (c *Console) Observe(evt model.StatusEvent) {
	c.DisplayRobotStatus(evt.Step, evt.Robots)
}

// Listen keeps taking requests until input ends or ctx is cancelled. It
// returns nil on end of input.
func (c *Console) Listen(ctx context.Context) error {
	for ctx.Err() == nil {
		more, err := c.IsAskingForNewPoint()
		if err != nil {
			return endOfInput(err)
		}
		if !more {
			continue
		}
		req, err := c.AskForRequest()
		if err != nil {
			return endOfInput(err)
		}
		if err := c.AddRequest(req); err != nil {
			continue
		}
		c.printf("queued %v\n", req)
	}
	return nil
}

func endOfInput(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

var _ UI = (*Console)(nil)
