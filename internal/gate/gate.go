package gate

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
)

// LineGate unblocks when a line (the operator pressing ENTER) arrives on its reader.
type LineGate struct {
	r io.Reader
}

func NewLineGate(r io.Reader) *LineGate {
	return &LineGate{r: r}
}

// Wait blocks until input arrives or ctx is done. There is no timeout of its
// own: the operator may take as long as the login needs. A reader that hits
// EOF without any input (stdin closed or /dev/null) never confirms.
func (g *LineGate) Wait(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		line, err := bufio.NewReader(g.r).ReadString('\n')
		if errors.Is(err, io.EOF) {
			if line == "" {
				return
			}
			err = nil
		}
		errc <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		return nil
	}
}
