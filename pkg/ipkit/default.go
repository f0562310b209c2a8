package ipkit

import "github.com/zan8in/ipkit/pkg/port"

const (
	DefaultTimeout   = 2000
	DefaultRetries   = 1
	DefaultThreads   = 25
	DefaultRandCount = 1
	DefaultPorts     = port.DefaultPorts

	configDirName  = "ipkit"
	configFileName = "config.yaml"
)

// Action is the operation a run performs.
type Action string

const (
	ActionDomain  Action = "domain"
	ActionRand    Action = "rand"
	ActionIPRange Action = "iprange"
	ActionTarget  Action = "target"
	actionHelp    Action = "help"
)
