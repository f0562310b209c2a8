package ipkit

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zan8in/goflags"
	"github.com/zan8in/ipkit/pkg/iprange"
	"github.com/zan8in/ipkit/pkg/resolve"
	"go.uber.org/multierr"
)

func newTestRunner(t *testing.T, o Options) (*Runner, *bytes.Buffer) {
	t.Helper()
	options := NewOptions(o)
	require.NoError(t, options.Validate())
	runner, err := NewRunner(options)
	require.NoError(t, err)
	t.Cleanup(func() { _ = runner.Close() })

	buf := &bytes.Buffer{}
	runner.SetOutput(buf)
	return runner, buf
}

func runIPRange(t *testing.T, o Options) (string, *Runner, error) {
	t.Helper()
	runner, buf := newTestRunner(t, o)
	err := runner.Run(context.Background())
	return buf.String(), runner, err
}

func lines(s ...string) string {
	if len(s) == 0 {
		return ""
	}
	return strings.Join(s, "\n") + "\n"
}

func TestRunIPRange(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want string
	}{
		{"cidr", []string{"192.168.1.0/30"}, lines("192.168.1.1", "192.168.1.2")},
		{"pair", []string{"10.0.0.1-10.0.0.3"}, lines("10.0.0.1", "10.0.0.2", "10.0.0.3")},
		{"pair with spaces", []string{"10.0.0.1 - 10.0.0.2"}, lines("10.0.0.1", "10.0.0.2")},
		{"single host pair", []string{"10.0.0.7-10.0.0.7"}, lines("10.0.0.7")},
		{"slash 31", []string{"10.0.0.0/31"}, lines("10.0.0.0", "10.0.0.1")},
		{"slash 32", []string{"10.0.0.9/32"}, lines("10.0.0.9")},
		{"host bits masked", []string{"192.168.1.77/30"}, lines("192.168.1.77", "192.168.1.78")},
		{"several specs keep order", []string{"10.0.0.5-10.0.0.6", "10.0.0.0/30"}, lines("10.0.0.5", "10.0.0.6", "10.0.0.1", "10.0.0.2")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, runner, err := runIPRange(t, Options{IPRange: goflags.StringSlice(tt.in)})
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
			assert.Equal(t, uint64(strings.Count(tt.want, "\n")), runner.Stats.Emitted)
		})
	}
}

func TestRunIPRange_ErrorsBeforeOutput(t *testing.T) {
	out, _, err := runIPRange(t, Options{IPRange: goflags.StringSlice{
		"10.0.0.0/30",
		"10.0.0.5-10.0.0.1",
		"not-a-range",
		"10.0.0.1",
	}})
	require.Error(t, err)
	assert.Empty(t, out, "nothing is printed when any spec is invalid")

	errs := multierr.Errors(err)
	require.Len(t, errs, 3)
	assert.True(t, errors.Is(errs[0], iprange.ErrStartExceedsEnd))
	assert.True(t, errors.Is(errs[1], iprange.ErrInvalidAddress))
	assert.True(t, errors.Is(errs[2], iprange.ErrUnrecognizedFormat))

	var perr *iprange.ParseError
	require.True(t, errors.As(errs[0], &perr))
	assert.Equal(t, "10.0.0.5-10.0.0.1", perr.Input)
}

func TestRunIPRange_BadExclude(t *testing.T) {
	out, _, err := runIPRange(t, Options{
		IPRange: goflags.StringSlice{"10.0.0.0/29"},
		Exclude: goflags.StringSlice{"10.0.0.300"},
	})
	require.Error(t, err)
	assert.Empty(t, out)
	assert.True(t, errors.Is(err, iprange.ErrInvalidAddress))
}

func TestRunIPRange_Exclude(t *testing.T) {
	out, runner, err := runIPRange(t, Options{
		IPRange: goflags.StringSlice{"10.0.0.0/29"},
		Exclude: goflags.StringSlice{"10.0.0.2", "10.0.0.4-10.0.0.5"},
	})
	require.NoError(t, err)
	assert.Equal(t, lines("10.0.0.1", "10.0.0.3", "10.0.0.6"), out)
	assert.Equal(t, uint64(3), runner.Stats.Emitted)
	assert.Equal(t, uint64(3), runner.Stats.Excluded)
}

func TestRunIPRange_ExcludeFile(t *testing.T) {
	dir := t.TempDir()
	ranges := filepath.Join(dir, "ranges.txt")
	excludes := filepath.Join(dir, "exclude.txt")
	require.NoError(t, os.WriteFile(ranges, []byte("# lab\n10.0.1.0/30\n\n10.0.2.1-10.0.2.2\n"), 0o644))
	require.NoError(t, os.WriteFile(excludes, []byte("// reserved\n10.0.2.0/24\n"), 0o644))

	out, _, err := runIPRange(t, Options{IPRangeFile: ranges, ExcludeFile: excludes})
	require.NoError(t, err)
	assert.Equal(t, lines("10.0.1.1", "10.0.1.2"), out)
}

func TestRunIPRange_Unique(t *testing.T) {
	in := goflags.StringSlice{"10.0.0.1-10.0.0.3", "10.0.0.0/30", "10.0.0.4-10.0.0.4"}

	out, _, err := runIPRange(t, Options{IPRange: in})
	require.NoError(t, err)
	assert.Equal(t, lines("10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.1", "10.0.0.2", "10.0.0.4"), out)

	out, _, err = runIPRange(t, Options{IPRange: in, Unique: true})
	require.NoError(t, err)
	assert.Equal(t, lines("10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4"), out)
}

func TestRunIPRange_Count(t *testing.T) {
	out, _, err := runIPRange(t, Options{IPRange: goflags.StringSlice{"10.0.0.0/24"}, Count: true})
	require.NoError(t, err)
	assert.Equal(t, "254\n", out)

	out, _, err = runIPRange(t, Options{IPRange: goflags.StringSlice{"0.0.0.0/0"}, Count: true})
	require.NoError(t, err)
	assert.Equal(t, "4294967294\n", out)

	out, runner, err := runIPRange(t, Options{
		IPRange: goflags.StringSlice{"10.0.0.0/24"},
		Exclude: goflags.StringSlice{"10.0.0.0/28"},
		Count:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "239\n", out)
	assert.Equal(t, uint64(15), runner.Stats.Excluded)

	out, _, err = runIPRange(t, Options{IPRange: goflags.StringSlice{"10.0.0.0/24"}, Count: true, JSON: true})
	require.NoError(t, err)
	assert.Equal(t, "{\"count\":254}\n", out)
}

func TestRunIPRange_JSON(t *testing.T) {
	out, _, err := runIPRange(t, Options{IPRange: goflags.StringSlice{"10.0.0.0/31"}, JSON: true})
	require.NoError(t, err)
	assert.Equal(t, lines(`{"ip":"10.0.0.0"}`, `{"ip":"10.0.0.1"}`), out)
}

func TestRunIPRange_ConfigExclude(t *testing.T) {
	options := NewOptions(Options{IPRange: goflags.StringSlice{"10.0.0.0/30"}})
	options.applyConfig(&Config{Exclude: []string{"10.0.0.1"}})
	require.NoError(t, options.Validate())

	runner, err := NewRunner(options)
	require.NoError(t, err)
	buf := &bytes.Buffer{}
	runner.SetOutput(buf)

	require.NoError(t, runner.Run(context.Background()))
	assert.Equal(t, lines("10.0.0.2"), buf.String())
}

type closedPipe struct{}

func (closedPipe) Write(p []byte) (int, error) {
	return 0, &os.PathError{Op: "write", Path: "/dev/stdout", Err: syscall.EPIPE}
}

func TestRun_ClosedOutput(t *testing.T) {
	runner, _ := newTestRunner(t, Options{IPRange: goflags.StringSlice{"10.0.0.0/16"}})
	runner.SetOutput(closedPipe{})
	assert.NoError(t, runner.Run(context.Background()))
}

func TestRun_ClosedPipe(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	require.NoError(t, r.Close())
	defer w.Close()

	runner, _ := newTestRunner(t, Options{IPRange: goflags.StringSlice{"10.0.0.0/16"}})
	runner.SetOutput(w)
	assert.NoError(t, runner.Run(context.Background()))
	assert.Less(t, runner.Stats.Emitted, uint64(65534), "enumeration stops at the closed pipe")
}

func TestRunRand(t *testing.T) {
	runner, buf := newTestRunner(t, Options{Rand: true, RandCount: 5, Seed: 42})
	require.NoError(t, runner.Run(context.Background()))

	got := strings.Fields(buf.String())
	require.Len(t, got, 5)
	for _, s := range got {
		_, err := iprange.ParseAddr(s)
		assert.NoError(t, err, s)
	}

	again, buf2 := newTestRunner(t, Options{Rand: true, RandCount: 5, Seed: 42})
	require.NoError(t, again.Run(context.Background()))
	assert.Equal(t, buf.String(), buf2.String(), "same seed, same output")
}

func TestRunRand_Bounds(t *testing.T) {
	runner, buf := newTestRunner(t, Options{Rand: true, RandCount: 200, RandMin: "10.0.0.1", RandMax: "10.0.0.5"})
	require.NoError(t, runner.Run(context.Background()))

	r := iprange.Range{Start: iprange.MustAddr("10.0.0.1"), End: iprange.MustAddr("10.0.0.5")}
	for _, s := range strings.Fields(buf.String()) {
		assert.True(t, r.Contains(iprange.MustAddr(s)), s)
	}
}

func TestRunRand_Within(t *testing.T) {
	runner, buf := newTestRunner(t, Options{Rand: true, RandCount: 100, Within: "192.168.0.0/30"})
	require.NoError(t, runner.Run(context.Background()))

	for _, s := range strings.Fields(buf.String()) {
		assert.Contains(t, []string{"192.168.0.1", "192.168.0.2"}, s)
	}
}

func TestRunDomain(t *testing.T) {
	runner, buf := newTestRunner(t, Options{Domain: goflags.StringSlice{"10.1.2.3"}})
	require.NoError(t, runner.Run(context.Background()))
	assert.Equal(t, "10.1.2.3\n", buf.String())

	runner, buf = newTestRunner(t, Options{Domain: goflags.StringSlice{"10.1.2.3"}, JSON: true})
	require.NoError(t, runner.Run(context.Background()))
	assert.Equal(t, `{"domain":"10.1.2.3","ip":"10.1.2.3"}`+"\n", buf.String())
}

func TestRunDomain_Invalid(t *testing.T) {
	runner, buf := newTestRunner(t, Options{Domain: goflags.StringSlice{"bad name", "10.1.2.3"}})
	err := runner.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, resolve.ErrInvalidName))
	assert.Equal(t, "10.1.2.3\n", buf.String(), "valid names are still printed")
}

func TestRunTarget(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()
	open := l.Addr().(*net.TCPAddr).Port

	c, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	closed := c.Addr().(*net.TCPAddr).Port
	require.NoError(t, c.Close())

	runner, buf := newTestRunner(t, Options{
		Target:  "127.0.0.1",
		Ports:   fmt.Sprintf("%d,%d", open, closed),
		Timeout: 500,
	})
	require.NoError(t, runner.Run(context.Background()))

	want := map[int]string{open: "yarp", closed: "narp"}
	got := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, got, 2)
	for _, line := range got {
		var p int
		var status string
		_, err := fmt.Sscanf(line, "%d: %s", &p, &status)
		require.NoError(t, err, line)
		assert.Equal(t, want[p], status, line)
	}
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "yarp", status(true))
	assert.Equal(t, "narp", status(false))
}
