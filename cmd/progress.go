package cmd

import (
	"fmt"
	"io"

	"github.com/azhovan/rangeprobe/pkg/client"
	"github.com/cheggaaa/pb"
)

// progressObserver draws one byte counter per response body. Requests are
// sequential, so at most one bar is live at a time.
type progressObserver struct {
	out     io.Writer
	current *pb.ProgressBar
}

var _ client.BodyObserver = (*progressObserver)(nil)

func newProgressObserver(out io.Writer) *progressObserver {
	return &progressObserver{out: out}
}

func (p *progressObserver) Observe(spec client.RequestSpec, contentLength int64, body io.Reader) io.Reader {
	// unknown length (live, chunked) renders as a plain counter
	total := contentLength
	if total < 0 {
		total = 0
	}

	bar := pb.New64(total).SetUnits(pb.U_BYTES).Prefix(fmt.Sprintf("%-6s %-16s ", spec.Mode, spec.Range))
	bar.Output = p.out
	bar.ShowSpeed = true
	bar.Start()

	p.current = bar
	return bar.NewProxyReader(body)
}

func (p *progressObserver) Done(spec client.RequestSpec, n int64) {
	if p.current == nil {
		return
	}
	p.current.Set64(n)
	p.current.Finish()
	p.current = nil
}
