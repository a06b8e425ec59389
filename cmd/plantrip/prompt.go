package main

import (
	"bufio"
	"context"
	"ev-route-planner/internal/domain"
	"ev-route-planner/internal/ports"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// promptSelector asks on the terminal which candidate was meant. Choices are
// shown 1-based; anything unparsable becomes an invalid index so the
// resolution asks again.
type promptSelector struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPromptSelector(in io.Reader, out io.Writer) *promptSelector {
	return &promptSelector{in: bufio.NewScanner(in), out: out}
}

func (p *promptSelector) Choose(
	ctx context.Context,
	role ports.PlaceRole,
	query string,
	candidates []domain.PlaceCandidate,
) (int, error) {
	fmt.Fprintf(p.out, "Several places match %s %q:\n", role, query)
	for i, c := range candidates {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, c.Label)
	}
	fmt.Fprintf(p.out, "Choose 1-%d: ", len(candidates))

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return 0, fmt.Errorf("read choice: %w", err)
		}
		return 0, fmt.Errorf("read choice: %w", io.ErrUnexpectedEOF)
	}

	n, err := strconv.Atoi(strings.TrimSpace(p.in.Text()))
	if err != nil {
		return -1, nil
	}
	return n - 1, nil
}
