package ipkit

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/zan8in/goflags"
	"github.com/zan8in/gologger"
	"github.com/zan8in/gologger/levels"
	"github.com/zan8in/ipkit/pkg/iprange"
	"github.com/zan8in/ipkit/pkg/port"
	"github.com/zan8in/ipkit/pkg/randip"
)

type Options struct {
	Domain      goflags.StringSlice // Domain names to resolve to IPv4
	Rand        bool                // Rand prints random IPv4 addresses
	IPRange     goflags.StringSlice // IPRange specs (CIDR or start-end) to enumerate
	IPRangeFile string              // IPRangeFile holds one range spec per line
	Target      string              // Target host to check for HTTP/HTTPS services

	Exclude     goflags.StringSlice // Exclude addresses, ranges or CIDRs from iprange output
	ExcludeFile string              // ExcludeFile holds one exclusion per line
	Unique      bool                // Unique merges overlapping ranges before printing
	Count       bool                // Count prints the number of usable addresses only

	RandCount int    // RandCount is the number of random addresses to print
	RandMin   string // RandMin is the lower bound for random addresses
	RandMax   string // RandMax is the upper bound for random addresses
	Within    string // Within draws random addresses from the usable hosts of a range
	Seed      int    // Seed for reproducible random output

	Resolver string // Resolver is a DNS server used instead of the system resolver
	Timeout  int    // Timeout in milliseconds for lookups and connects
	Retries  int    // Retries for connects
	Ports    string // Ports checked by target
	Threads  int    // Threads used by target

	Config string // Config is the YAML file with defaults

	Output  string // Output file, stdout when empty
	JSON    bool   // JSON writes one JSON object per line
	Silent  bool   // Silent shows results only
	Verbose bool   // Verbose shows statistics
	Debug   bool   // Debug shows debugging information
	Version bool   // Version shows the version and exits

	action   Action
	ports    []*port.Port
	randMin  iprange.Addr
	randMax  iprange.Addr
	bounded  bool
	within   *iprange.Spec
	excludes []string
}

func ParseOptions() *Options {
	options := &Options{}

	flagSet := goflags.NewFlagSet()
	flagSet.SetDescription(`ipkit resolves domains, generates random IPv4 addresses and enumerates IPv4 ranges.

Usage:
  ipkit [flags] domain <name>...
  ipkit [flags] rand
  ipkit [flags] iprange <spec>...
  ipkit [flags] target <host>

Flags go before the action.`)

	flagSet.CreateGroup("input", "Input",
		flagSet.StringSliceVarP(&options.Domain, "domain", "d", nil, "domain names to resolve (comma-separated)", goflags.NormalizedStringSliceOptions),
		flagSet.BoolVarP(&options.Rand, "rand", "r", false, "print a random IPv4 address"),
		flagSet.StringSliceVarP(&options.IPRange, "iprange", "ir", nil, "ranges to enumerate, CIDR or start-end (comma-separated)", goflags.NormalizedStringSliceOptions),
		flagSet.StringVarP(&options.IPRangeFile, "iprange-file", "irf", "", "list of ranges to enumerate (file, - for stdin)"),
		flagSet.StringVarP(&options.Target, "target", "t", "", "host to check for HTTP/HTTPS services"),
	)

	flagSet.CreateGroup("range", "Range",
		flagSet.StringSliceVarP(&options.Exclude, "exclude", "e", nil, "addresses, ranges or CIDRs to exclude (comma-separated)", goflags.NormalizedStringSliceOptions),
		flagSet.StringVarP(&options.ExcludeFile, "exclude-file", "ef", "", "list of exclusions (file)"),
		flagSet.BoolVarP(&options.Unique, "unique", "u", false, "merge overlapping ranges and print addresses once"),
		flagSet.BoolVar(&options.Count, "count", false, "print the number of usable addresses only"),
	)

	flagSet.CreateGroup("random", "Random",
		flagSet.IntVarP(&options.RandCount, "rand-count", "n", DefaultRandCount, "number of random addresses"),
		flagSet.StringVar(&options.RandMin, "min", "", "lowest random address"),
		flagSet.StringVar(&options.RandMax, "max", "", "highest random address"),
		flagSet.StringVar(&options.Within, "within", "", "draw random addresses from the hosts of a range"),
		flagSet.IntVar(&options.Seed, "seed", 0, "random seed (0 = time based)"),
	)

	flagSet.CreateGroup("network", "Network",
		flagSet.StringVar(&options.Resolver, "resolver", "", "DNS server to query instead of the system resolver"),
		flagSet.IntVar(&options.Timeout, "timeout", 0, "millisecond to wait before timing out (default 2000)"),
		flagSet.IntVar(&options.Retries, "retries", 0, "number of connect retries (default 1)"),
		flagSet.StringVarP(&options.Ports, "ports", "p", "", "ports checked by target (default 80,443)"),
		flagSet.IntVar(&options.Threads, "c", 0, "concurrent connects for target (default 25)"),
	)

	flagSet.CreateGroup("config", "Configuration",
		flagSet.StringVar(&options.Config, "config", "", "config file (default ~/.config/ipkit/config.yaml)"),
	)

	flagSet.CreateGroup("output", "Output",
		flagSet.StringVarP(&options.Output, "output", "o", "", "file to write output to"),
		flagSet.BoolVar(&options.JSON, "json", false, "write output in JSON lines format"),
		flagSet.BoolVar(&options.Silent, "silent", false, "display results only"),
		flagSet.BoolVarP(&options.Verbose, "verbose", "v", false, "display statistics"),
		flagSet.BoolVar(&options.Debug, "debug", false, "display debugging information"),
		flagSet.BoolVar(&options.Version, "version", false, "display version"),
	)

	_ = flagSet.Parse()

	if options.Version {
		ShowBanner()
		os.Exit(0)
	}

	if err := options.parseArgs(flagSet.CommandLine.Args()); err != nil {
		if err == errHelp {
			flagSet.CommandLine.Usage()
			os.Exit(0)
		}
		gologger.Fatal().Msgf("Program exiting: %s\n", err)
	}

	cfg, err := loadConfig(options.Config)
	if err != nil {
		gologger.Fatal().Msgf("Program exiting: %s\n", err)
	}
	options.applyConfig(cfg)

	if err := options.validateOptions(); err != nil {
		gologger.Fatal().Msgf("Program exiting: %s\n", err)
	}

	if options.Verbose {
		ShowBanner()
	}

	return options
}

var (
	errHelp           = errors.New("help requested")
	errNoAction       = errors.New("no action provided, use domain, rand, iprange or target")
	errTooManyActions = errors.New("only one action can be used at a time")
	errUnknownAction  = errors.New("unknown action")
	errMissingValue   = errors.New("missing value")
	errUnexpectedArgs = errors.New("unexpected arguments")
	errFlagAfterArgs  = errors.New("flags must come before the action")
	errZeroValue      = errors.New("cannot be zero")
	errNegativeValue  = errors.New("cannot be negative")
	errConflict       = errors.New("cannot be used together")
	errNotIPRange     = errors.New("only valid with iprange")
	errNotRand        = errors.New("only valid with rand")
)

// parseArgs reads the positional form "<action> <value>...".
func (options *Options) parseArgs(args []string) error {
	if len(args) == 0 {
		return nil
	}

	name, values := Action(strings.ToLower(args[0])), args[1:]
	for _, v := range values {
		if strings.HasPrefix(v, "-") {
			return errors.Wrapf(errFlagAfterArgs, "%q", v)
		}
	}
	switch name {
	case ActionDomain:
		if len(values) == 0 {
			return errors.Wrap(errMissingValue, "domain")
		}
		options.Domain = append(options.Domain, values...)
	case ActionRand:
		if len(values) > 0 {
			return errors.Wrapf(errUnexpectedArgs, "rand: %s", strings.Join(values, " "))
		}
		options.Rand = true
	case ActionIPRange:
		if len(values) == 0 {
			return errors.Wrap(errMissingValue, "iprange")
		}
		options.IPRange = append(options.IPRange, values...)
	case ActionTarget:
		if len(values) != 1 {
			return errors.Wrap(errMissingValue, "target takes exactly one host")
		}
		options.Target = values[0]
	case actionHelp:
		return errHelp
	default:
		return errors.Wrapf(errUnknownAction, "%q", args[0])
	}
	return nil
}

// applyConfig fills the options left unset on the command line.
func (options *Options) applyConfig(cfg *Config) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if options.Resolver == "" {
		options.Resolver = cfg.Resolver
	}
	if options.Timeout == 0 {
		options.Timeout = cfg.Timeout
	}
	if options.Retries == 0 {
		options.Retries = cfg.Retries
	}
	if options.Threads == 0 {
		options.Threads = cfg.Threads
	}
	if options.Ports == "" {
		options.Ports = cfg.Ports
	}
	options.excludes = append(options.excludes, cfg.Exclude...)
}

func (options *Options) validateOptions() error {
	var actions []Action
	if len(options.Domain) > 0 {
		actions = append(actions, ActionDomain)
	}
	if options.Rand {
		actions = append(actions, ActionRand)
	}
	if len(options.IPRange) > 0 || options.IPRangeFile != "" {
		actions = append(actions, ActionIPRange)
	}
	if options.Target != "" {
		actions = append(actions, ActionTarget)
	}
	switch len(actions) {
	case 0:
		return errNoAction
	case 1:
		options.action = actions[0]
	default:
		return errors.Wrapf(errTooManyActions, "%v", actions)
	}

	if options.Timeout < 0 {
		return errors.Wrap(errNegativeValue, "timeout")
	}
	if options.Retries < 0 {
		return errors.Wrap(errNegativeValue, "retries")
	}
	if options.Threads < 0 {
		return errors.Wrap(errNegativeValue, "c")
	}

	if options.action != ActionIPRange {
		if len(options.Exclude) > 0 || options.ExcludeFile != "" {
			return errors.Wrap(errNotIPRange, "exclude")
		}
		if options.Unique || options.Count {
			return errors.Wrap(errNotIPRange, "unique/count")
		}
	}

	if err := options.validateRand(); err != nil {
		return err
	}

	if options.action == ActionTarget {
		ports, err := port.Parse(options.Ports)
		if err != nil {
			return errors.Wrap(err, "ports")
		}
		options.ports = ports
	}

	if options.Debug {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelDebug)
	}
	if options.Verbose {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelVerbose)
	}
	if options.Silent {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelSilent)
	}

	return nil
}

func (options *Options) validateRand() error {
	hasBounds := options.RandMin != "" || options.RandMax != ""
	if options.action != ActionRand {
		if hasBounds || options.Within != "" {
			return errors.Wrap(errNotRand, "min/max/within")
		}
		return nil
	}

	if options.RandCount <= 0 {
		return errors.Wrap(errZeroValue, "rand-count")
	}
	if hasBounds && options.Within != "" {
		return errors.Wrap(errConflict, "min/max and within")
	}

	if hasBounds {
		options.randMin, options.randMax = iprange.MinAddr, iprange.MaxAddr
		if options.RandMin != "" {
			a, err := iprange.ParseAddr(options.RandMin)
			if err != nil {
				return errors.Wrap(err, "min")
			}
			options.randMin = a
		}
		if options.RandMax != "" {
			a, err := iprange.ParseAddr(options.RandMax)
			if err != nil {
				return errors.Wrap(err, "max")
			}
			options.randMax = a
		}
		if options.randMin >= options.randMax {
			return errors.Wrapf(randip.ErrInvalidBounds, "min %s, max %s", options.randMin, options.randMax)
		}
		options.bounded = true
	}

	if options.Within != "" {
		spec, err := iprange.Parse(options.Within)
		if err != nil {
			return errors.Wrap(err, "within")
		}
		options.within = &spec
	}
	return nil
}

// NewOptions copies options for library use; call Validate before NewRunner.
func NewOptions(options Options) *Options {
	return &options
}

// Validate applies the built-in defaults and checks the options.
func (options *Options) Validate() error {
	if options.RandCount == 0 {
		options.RandCount = DefaultRandCount
	}
	options.applyConfig(DefaultConfig())
	return options.validateOptions()
}
