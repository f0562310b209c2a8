package ipkit

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/zan8in/stringsutil"
)

// readList returns the non-empty, non-comment lines of the file at path.
// "-" reads standard input.
func readList(path string) ([]string, error) {
	if path == "-" {
		return scanList(os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lines, err := scanList(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return lines, nil
}

func scanList(r io.Reader) ([]string, error) {
	var lines []string
	s := bufio.NewScanner(r)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || stringsutil.HasPrefixAny(line, "#", "//") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, s.Err()
}

// rangeInputs gathers the range specs from the flags and the range file.
func (r *Runner) rangeInputs() ([]string, error) {
	inputs := append([]string{}, r.options.IPRange...)
	if r.options.IPRangeFile != "" {
		lines, err := readList(r.options.IPRangeFile)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, lines...)
	}
	return inputs, nil
}

// excludeInputs gathers exclusions from the flags, the config file and the
// exclude file.
func (r *Runner) excludeInputs() ([]string, error) {
	inputs := append([]string{}, r.options.Exclude...)
	inputs = append(inputs, r.options.excludes...)
	if r.options.ExcludeFile != "" {
		lines, err := readList(r.options.ExcludeFile)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, lines...)
	}
	return inputs, nil
}
