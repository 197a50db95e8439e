package runner

// Engine invocation constants
const (
	// ParallelismFlag is the flag used to pass the internal-parallelism hint
	// to the test-execution engine. The hint bounds the engine's own worker
	// count; it never parallelizes modules, which always run one at a time.
	ParallelismFlag = "-j"

	// DefaultParallelism is the engine-internal worker hint used when none
	// is configured. 1 preserves the bounded-peak-memory contract.
	DefaultParallelism = 1
)
