// Package exitcodes defines the standard exit codes used by modrun.
package exitcodes

// Exit code conventions:
//
// * Success (0): every module in the catalogue passed
// * 1..MaxModuleFailures: the number of failed modules, so CI can gate on
//   the process status without parsing output
// * InfraErr (125): an orchestrator-level infrastructure failure (bad
//   catalogue, unwritable log directory); reserved above the failure-count
//   range so the two can never collide
const (
	Success           = 0
	MaxModuleFailures = 124
	InfraErr          = 125
)

// FromFailureCount maps a failed-module count to a process exit code,
// clamping at MaxModuleFailures to stay clear of InfraErr.
func FromFailureCount(failed int) int {
	if failed <= 0 {
		return Success
	}
	if failed > MaxModuleFailures {
		return MaxModuleFailures
	}
	return failed
}
