package ipkit

import (
	"bufio"
	"io"
	"syscall"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/zan8in/ipkit/pkg/iprange"
)

// errOutputClosed means the reader of the output went away (for instance
// `ipkit iprange 10.0.0.0/8 | head`). Runs stop quietly when they see it.
var errOutputClosed = errors.New("output closed")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type addrResult struct {
	IP string `json:"ip"`
}

type domainResult struct {
	Domain string `json:"domain"`
	IP     string `json:"ip"`
}

type countResult struct {
	Count uint64 `json:"count"`
}

type targetResult struct {
	Host    string `json:"host"`
	Port    int    `json:"port"`
	Service string `json:"service"`
	Open    bool   `json:"open"`
}

// output writes one result per line, plain or as JSON.
type output struct {
	w    *bufio.Writer
	json bool
	buf  []byte
}

func newOutput(w io.Writer, asJSON bool) *output {
	return &output{
		w:    bufio.NewWriterSize(w, 64*1024),
		json: asJSON,
		buf:  make([]byte, 0, 64),
	}
}

// Addr writes a single address. It is the hot path of iprange.
func (o *output) Addr(a iprange.Addr) error {
	if o.json {
		return o.JSON(addrResult{IP: a.String()})
	}
	o.buf = a.AppendTo(o.buf[:0])
	o.buf = append(o.buf, '\n')
	return o.write(o.buf)
}

func (o *output) Line(s string) error {
	o.buf = append(append(o.buf[:0], s...), '\n')
	return o.write(o.buf)
}

func (o *output) JSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return o.write(append(data, '\n'))
}

func (o *output) Flush() error {
	return o.check(o.w.Flush())
}

func (o *output) write(p []byte) error {
	_, err := o.w.Write(p)
	return o.check(err)
}

func (o *output) check(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, syscall.EPIPE) {
		return errOutputClosed
	}
	return errors.Wrap(err, "write output")
}
