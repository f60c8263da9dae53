package acquire

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/agleyzer/streamdl/internal/config"
	"github.com/agleyzer/streamdl/internal/variant"
)

// Chooser picks one of the variants of a master playlist.
type Chooser interface {
	Choose(ctx context.Context, variants []variant.Variant) (int, error)
}

// PromptChooser lists the variants on Out and reads the chosen index from In.
// Invalid answers are rejected and the prompt is repeated.
type PromptChooser struct {
	In  io.Reader
	Out io.Writer

	// scanner outlives a single call so answers read ahead from In are kept
	// for the next prompt
	scanner *bufio.Scanner
}

// Choose implements Chooser. Reading the answer cannot be interrupted; the
// context is checked between prompts.
func (c *PromptChooser) Choose(ctx context.Context, variants []variant.Variant) (int, error) {
	for i, v := range variants {
		fmt.Fprintf(c.Out, "[%d] %s\n", i, v.Descriptor())
	}

	if c.scanner == nil {
		c.scanner = bufio.NewScanner(c.In)
	}
	scanner := c.scanner

	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		fmt.Fprintf(c.Out, "Choose a stream [0-%d]: ", len(variants)-1)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return 0, fmt.Errorf("failed to read choice: %w", err)
			}
			return 0, fmt.Errorf("failed to read choice: %w", io.ErrUnexpectedEOF)
		}

		answer := strings.TrimSpace(scanner.Text())
		index, err := strconv.Atoi(answer)
		if err != nil || index < 0 || index >= len(variants) {
			fmt.Fprintf(c.Out, "Invalid choice %q\n", answer)
			continue
		}

		return index, nil
	}
}

// FixedChooser always picks the same index.
type FixedChooser int

// Choose implements Chooser.
func (c FixedChooser) Choose(ctx context.Context, variants []variant.Variant) (int, error) {
	index := int(c)
	if index < 0 || index >= len(variants) {
		return 0, fmt.Errorf("%w: variant %d out of range, playlist has %d",
			config.ErrMalformedConfig, index, len(variants))
	}
	return index, nil
}
