package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/paulmach/orb"

	"github.com/couchcryptid/crime-score-map/internal/domain"
)

// Prompter asks the user for input on a terminal. Lines are read on a
// background goroutine so a canceled context unblocks a pending prompt.
type Prompter struct {
	in       io.Reader
	out      io.Writer
	fallback orb.Point

	once  sync.Once
	lines chan string
}

// NewPrompter creates a Prompter. fallback is used for blank coordinate input.
func NewPrompter(in io.Reader, out io.Writer, fallback orb.Point) *Prompter {
	return &Prompter{
		in:       in,
		out:      out,
		fallback: fallback,
		lines:    make(chan string, 1),
	}
}

// Confirm asks a yes/no question. Blank input counts as yes.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	for {
		fmt.Fprintf(p.out, "%s [Y/n]: ", question)
		line, err := p.readLine(ctx)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(line) {
		case "", "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.out, "Please answer y or n.")
	}
}

// Coordinates reads a latitude then a longitude. Non-numeric or out-of-range
// input starts over; only end of input or cancellation stops the loop.
func (p *Prompter) Coordinates(ctx context.Context) (orb.Point, error) {
	for {
		lat, err := p.readNumber(ctx, "latitude", p.fallback.Lat())
		if errors.Is(err, errNotNumber) {
			fmt.Fprintln(p.out, "Invalid input. Please enter valid numbers for coordinates.")
			continue
		}
		if err != nil {
			return orb.Point{}, err
		}

		lon, err := p.readNumber(ctx, "longitude", p.fallback.Lon())
		if errors.Is(err, errNotNumber) {
			fmt.Fprintln(p.out, "Invalid input. Please enter valid numbers for coordinates.")
			continue
		}
		if err != nil {
			return orb.Point{}, err
		}

		if domain.ValidCoordinate(lat, lon) {
			return domain.NewPoint(lat, lon), nil
		}
		fmt.Fprintln(p.out, "Invalid range. Latitude must be between -90 and 90, and longitude between -180 and 180.")
	}
}

var errNotNumber = errors.New("not a number")

func (p *Prompter) readNumber(ctx context.Context, name string, def float64) (float64, error) {
	fmt.Fprintf(p.out, "Enter your %s (e.g., %s): ", name, formatCoord(def))
	line, err := p.readLine(ctx)
	if err != nil {
		return 0, err
	}
	if line == "" {
		fmt.Fprintf(p.out, "Using default %s: %s\n", name, formatCoord(def))
		return def, nil
	}
	v, err := strconv.ParseFloat(line, 64)
	if err != nil {
		return 0, errNotNumber
	}
	return v, nil
}

func (p *Prompter) readLine(ctx context.Context) (string, error) {
	p.once.Do(func() { go p.scan() })
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", domain.ErrInputClosed, ctx.Err())
	case line, ok := <-p.lines:
		if !ok {
			return "", domain.ErrInputClosed
		}
		return strings.TrimSpace(line), nil
	}
}

// scan feeds p.lines until the reader is exhausted. A read error ends input
// the same way EOF does. It runs for the life of the process and may hold one
// line read ahead of the last prompt.
func (p *Prompter) scan() {
	defer close(p.lines)
	sc := bufio.NewScanner(p.in)
	for sc.Scan() {
		p.lines <- sc.Text()
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
