package stream

import (
	"io"

	"github.com/rhogenson/ccljson"
)

// readChunkSize is the read buffer size used by ReaderParser, matching
// the chunk granularity original_source's buffered reader pulls from its
// io.Read in one fill_buffers call.
const readChunkSize = 4096

// ReaderParser drives a Parser from an io.Reader, pulling and feeding
// another chunk whenever NextEvent would otherwise return ErrNeedMore.
// Grounded on creachadair-jtree's NewStream(io.Reader), adapted from a
// push-callback Handler onto this package's pull-based Parser.
type ReaderParser struct {
	r      io.Reader
	p      *Parser
	buf    []byte
	closed bool
}

// NewReaderParser returns a ReaderParser reading from r under opts.
func NewReaderParser(r io.Reader, opts ccljson.Options) *ReaderParser {
	return &ReaderParser{r: r, p: NewParser(opts), buf: make([]byte, readChunkSize)}
}

// NextEvent returns the next Event, reading and feeding more of r as
// needed. It returns r's read error unchanged if r fails with anything
// other than io.EOF; a clean end of stream is reported as EventEndOfInput,
// not io.EOF.
func (rp *ReaderParser) NextEvent() (Event, error) {
	for {
		ev, err := rp.p.NextEvent()
		if err != ErrNeedMore {
			return ev, err
		}
		if rp.closed {
			return Event{}, err
		}
		n, rerr := rp.r.Read(rp.buf)
		if n > 0 {
			if ferr := rp.p.Feed(rp.buf[:n]); ferr != nil {
				return Event{}, ferr
			}
		}
		if rerr != nil {
			if rerr != io.EOF {
				return Event{}, rerr
			}
			rp.closed = true
			if ferr := rp.p.Flush(); ferr != nil {
				return Event{}, ferr
			}
		}
	}
}

// CollectIntoValue reads r to completion and reassembles the full value
// tree.
func (rp *ReaderParser) CollectIntoValue() (ccljson.Value, error) {
	return collectEvents(rp.NextEvent)
}
