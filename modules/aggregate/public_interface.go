package aggregate

import "github.com/chebyrash/promise"

// Plugin is the unit of composition for the process: every subsystem
// (config files, database handles, the staking manager, the HTTP front
// end, the scheduler) implements it and is wired together in main.
type Plugin interface {
	// Runs initialization in order of how plugins are passed in to `Aggregate`
	Init() error
	// Runs startup and should be non blocking
	Start() *promise.Promise[any]
	// Runs cleanup once the `Aggregate` is finished
	Stop() error
}
