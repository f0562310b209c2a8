package port

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

const (
	MinPort = 1
	MaxPort = 65535

	DefaultPorts = "80,443"
)

var (
	errEmptyPorts  = errors.New("ports list is empty")
	errInvalidPort = errors.New("invalid port")
)

type Port struct {
	Port int
	TLS  bool
}

var wellKnown = map[int]string{
	80:  "HTTP",
	443: "HTTPS",
}

func New(p int) *Port {
	return &Port{Port: p, TLS: p == 443}
}

// Name is the service label used in reports, or the number itself.
func (p *Port) Name() string {
	if name, ok := wellKnown[p.Port]; ok {
		return name
	}
	return strconv.Itoa(p.Port)
}

func (p *Port) String() string {
	return p.Name()
}

// Parse parses a comma-separated list of ports and port ranges, such as
// "80,443,8000-8010". The result is sorted and free of duplicates.
func Parse(s string) ([]*Port, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errEmptyPorts
	}

	var numbers []int
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		lo, hi, err := parseItem(item)
		if err != nil {
			return nil, err
		}
		for n := lo; n <= hi; n++ {
			numbers = append(numbers, n)
		}
	}
	if len(numbers) == 0 {
		return nil, errEmptyPorts
	}

	slices.Sort(numbers)
	numbers = slices.Compact(numbers)

	ports := make([]*Port, 0, len(numbers))
	for _, n := range numbers {
		ports = append(ports, New(n))
	}
	return ports, nil
}

func parseItem(item string) (int, int, error) {
	left, right, isRange := strings.Cut(item, "-")
	lo, err := parseNumber(left)
	if err != nil {
		return 0, 0, errors.Wrapf(errInvalidPort, "%q", item)
	}
	if !isRange {
		return lo, lo, nil
	}
	hi, err := parseNumber(right)
	if err != nil || hi < lo {
		return 0, 0, errors.Wrapf(errInvalidPort, "%q", item)
	}
	return lo, hi, nil
}

func parseNumber(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n < MinPort || n > MaxPort {
		return 0, errInvalidPort
	}
	return n, nil
}
