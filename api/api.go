// Package api exposes the ipkit actions to Go programs.
package api

import (
	"context"
	"strings"

	"github.com/remeh/sizedwaitgroup"
	"github.com/zan8in/gologger"
	"github.com/zan8in/gologger/levels"
	"github.com/zan8in/ipkit/pkg/iprange"
	"github.com/zan8in/ipkit/pkg/ipranger"
	"github.com/zan8in/ipkit/pkg/port"
	"github.com/zan8in/ipkit/pkg/randip"
	"github.com/zan8in/ipkit/pkg/resolve"
	"github.com/zan8in/ipkit/pkg/scan"
	"go.uber.org/multierr"
)

type Result struct {
	Host    string
	Port    int
	Service string
	Open    bool
}

type OnResultCallback func(r Result)

// OnResult, when set, receives every Target result once all ports have been
// checked. Calls run concurrently.
var OnResult OnResultCallback

var random = randip.New(0)

// IPRange returns the usable addresses of specs, minus excludes. All inputs
// are parsed first; any error aborts the call.
func IPRange(specs []string, excludes []string) ([]string, error) {
	var ips []string
	err := EachIP(specs, excludes, func(ip string) bool {
		ips = append(ips, ip)
		return true
	})
	if err != nil {
		return nil, err
	}
	return ips, nil
}

// EachIP calls fn for every usable address of specs not in excludes, until fn
// returns false.
func EachIP(specs []string, excludes []string, fn func(ip string) bool) error {
	var errs error
	seqs := make([]iprange.Sequence, 0, len(specs))
	for _, s := range specs {
		spec, err := iprange.Parse(s)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		seqs = append(seqs, spec.Usable())
	}

	ranger := ipranger.New()
	for _, ex := range excludes {
		errs = multierr.Append(errs, ranger.Add(ex))
	}
	if errs != nil {
		return errs
	}

	seq := ipranger.Filter(iprange.Concat(seqs...), ranger, nil)
	for seq.Next() {
		if !fn(seq.Addr().String()) {
			break
		}
	}
	return nil
}

// Count returns the number of usable addresses of spec.
func Count(spec string) (uint64, error) {
	s, err := iprange.Parse(spec)
	if err != nil {
		return 0, err
	}
	return s.UsableRange().Len(), nil
}

// Domain resolves name to its first IPv4 address using the system resolver.
func Domain(name string) (string, error) {
	r, err := resolve.New(resolve.Options{})
	if err != nil {
		return "", err
	}
	ip, err := r.LookupIPv4(context.Background(), name)
	if err != nil {
		return "", err
	}
	return ip.String(), nil
}

func RandomIP() string {
	return random.Addr().String()
}

// RandomIPWithin returns a random usable address of spec.
func RandomIPWithin(spec string) (string, error) {
	s, err := iprange.Parse(spec)
	if err != nil {
		return "", err
	}
	return random.Within(s.UsableRange()).String(), nil
}

// Target checks which of ports answer on host. ports defaults to "80,443".
func Target(host string, ports string) ([]Result, error) {
	gologger.DefaultLogger.SetMaxLevel(levels.LevelFatal)

	if strings.TrimSpace(ports) == "" {
		ports = port.DefaultPorts
	}
	list, err := port.Parse(ports)
	if err != nil {
		return nil, err
	}

	checker := scan.NewChecker(scan.Options{})
	checks := checker.Check(context.Background(), host, list)

	result := make([]Result, 0, len(checks))
	swg := sizedwaitgroup.New(10)
	for _, c := range checks {
		rst := Result{Host: c.Host, Port: c.Port.Port, Service: c.Port.Name(), Open: c.Open}
		result = append(result, rst)
		if OnResult != nil {
			swg.Add()
			go func(rst Result) {
				defer swg.Done()
				OnResult(rst)
			}(rst)
		}
	}
	swg.Wait()

	return result, nil
}
