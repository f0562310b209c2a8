package ipkit

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/zan8in/gologger"
	"github.com/zan8in/ipkit/pkg/iprange"
	"github.com/zan8in/ipkit/pkg/ipranger"
	"github.com/zan8in/ipkit/pkg/randip"
	"github.com/zan8in/ipkit/pkg/resolve"
	"github.com/zan8in/ipkit/pkg/scan"
	"go.uber.org/multierr"
)

type Runner struct {
	options *Options

	resolver *resolve.Resolver
	checker  *scan.Checker
	random   *randip.Generator

	out    *output
	closer io.Closer

	// Stats of the last iprange run.
	Stats ipranger.Stats
}

// NewRunner expects validated options.
func NewRunner(options *Options) (*Runner, error) {
	runner := &Runner{options: options}

	timeout := time.Duration(options.Timeout) * time.Millisecond

	switch options.action {
	case ActionDomain:
		resolver, err := resolve.New(resolve.Options{
			Server:  options.Resolver,
			Timeout: timeout,
		})
		if err != nil {
			return runner, err
		}
		runner.resolver = resolver
	case ActionTarget:
		runner.checker = scan.NewChecker(scan.Options{
			Timeout: timeout,
			Retries: options.Retries,
			Threads: options.Threads,
		})
	case ActionRand:
		runner.random = randip.New(int64(options.Seed))
	case ActionIPRange:
	default:
		return runner, errNoAction
	}

	var w io.Writer = os.Stdout
	if options.Output != "" {
		f, err := os.Create(options.Output)
		if err != nil {
			return runner, errors.Wrap(err, "output")
		}
		w, runner.closer = f, f
	}
	runner.out = newOutput(w, options.JSON)

	return runner, nil
}

// SetOutput redirects results to w.
func (r *Runner) SetOutput(w io.Writer) {
	r.out = newOutput(w, r.options.JSON)
}

func (r *Runner) Run(ctx context.Context) error {
	var err error
	switch r.options.action {
	case ActionDomain:
		err = r.runDomain(ctx)
	case ActionRand:
		err = r.runRand()
	case ActionIPRange:
		err = r.runIPRange()
	case ActionTarget:
		err = r.runTarget(ctx)
	default:
		return errNoAction
	}

	if flushErr := r.out.Flush(); err == nil {
		err = flushErr
	}
	if err == errOutputClosed {
		return nil
	}
	return err
}

func (r *Runner) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

func (r *Runner) runDomain(ctx context.Context) error {
	var errs error
	for _, name := range r.options.Domain {
		ip, err := r.resolver.LookupIPv4(ctx, name)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if r.options.JSON {
			err = r.out.JSON(domainResult{Domain: name, IP: ip.String()})
		} else {
			err = r.out.Line(ip.String())
		}
		if err != nil {
			return err
		}
	}
	return errs
}

func (r *Runner) runRand() error {
	for i := 0; i < r.options.RandCount; i++ {
		var a iprange.Addr
		switch {
		case r.options.bounded:
			var err error
			if a, err = r.random.Between(r.options.randMin, r.options.randMax); err != nil {
				return err
			}
		case r.options.within != nil:
			a = r.random.Within(r.options.within.UsableRange())
		default:
			a = r.random.Addr()
		}
		if err := r.out.Addr(a); err != nil {
			return err
		}
	}
	return nil
}

// parseRanges parses every spec and exclusion before anything is printed, so
// a bad input never leaves partial output behind.
func (r *Runner) parseRanges() ([]iprange.Spec, *ipranger.Ranger, error) {
	var errs error

	inputs, err := r.rangeInputs()
	if err != nil {
		return nil, nil, err
	}
	specs := make([]iprange.Spec, 0, len(inputs))
	for _, in := range inputs {
		spec, err := iprange.Parse(in)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		specs = append(specs, spec)
	}
	if len(inputs) == 0 {
		errs = multierr.Append(errs, errors.Wrap(errMissingValue, "iprange"))
	}

	excludes, err := r.excludeInputs()
	if err != nil {
		return nil, nil, multierr.Append(errs, err)
	}
	ranger := ipranger.New()
	for _, ex := range excludes {
		errs = multierr.Append(errs, ranger.Add(ex))
	}

	if errs != nil {
		return nil, nil, errs
	}
	return specs, ranger, nil
}

// usableRanges returns the interval of hosts of every spec, merged when
// -unique is set.
func (r *Runner) usableRanges(specs []iprange.Spec) []iprange.Range {
	ranges := make([]iprange.Range, 0, len(specs))
	for _, spec := range specs {
		ranges = append(ranges, spec.UsableRange())
	}
	if r.options.Unique {
		ranges = iprange.Coalesce(ranges)
	}
	return ranges
}

func (r *Runner) runIPRange() error {
	specs, ranger, err := r.parseRanges()
	if err != nil {
		return err
	}
	started := time.Now()

	ranges := r.usableRanges(specs)
	seqs := make([]iprange.Sequence, 0, len(ranges))
	for _, rg := range ranges {
		gologger.Debug().Msgf("enumerating %s (%d addresses)\n", rg, rg.Len())
		seqs = append(seqs, rg.Iter())
	}

	r.Stats = ipranger.Stats{}
	var seq iprange.Sequence = iprange.Concat(seqs...)
	if ranger.Len() > 0 {
		seq = ipranger.Filter(seq, ranger, &r.Stats)
	}

	if r.options.Count {
		return r.writeCount(seq, ranges, ranger)
	}

	filtered := ranger.Len() > 0
	for seq.Next() {
		if !filtered {
			r.Stats.Emitted++
		}
		if err := r.out.Addr(seq.Addr()); err != nil {
			return err
		}
	}

	gologger.Verbose().Msgf("%d addresses printed, %d excluded, in %s\n",
		r.Stats.Emitted, r.Stats.Excluded, time.Since(started))
	return nil
}

func (r *Runner) writeCount(seq iprange.Sequence, ranges []iprange.Range, ranger *ipranger.Ranger) error {
	var n uint64
	if ranger.Len() == 0 {
		for _, rg := range ranges {
			n += rg.Len()
		}
		r.Stats.Emitted = n
	} else {
		for seq.Next() {
		}
		n = r.Stats.Emitted
	}

	if r.options.JSON {
		return r.out.JSON(countResult{Count: n})
	}
	return r.out.Line(fmt.Sprint(n))
}

func (r *Runner) runTarget(ctx context.Context) error {
	host := strings.TrimSpace(r.options.Target)
	for _, res := range r.checker.Check(ctx, host, r.options.ports) {
		var err error
		if r.options.JSON {
			err = r.out.JSON(targetResult{
				Host:    res.Host,
				Port:    res.Port.Port,
				Service: res.Port.Name(),
				Open:    res.Open,
			})
		} else {
			err = r.out.Line(fmt.Sprintf("%s: %s", res.Port.Name(), status(res.Open)))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func status(open bool) string {
	if open {
		return "yarp"
	}
	return "narp"
}
