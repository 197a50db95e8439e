package types

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunSummary_RecordResult(t *testing.T) {
	s := &RunSummary{RunID: "run-1"}

	s.RecordResult(&ModuleResult{Module: Module{ID: "a"}, Status: ModuleStatusPass})
	s.RecordResult(&ModuleResult{Module: Module{ID: "b"}, Status: ModuleStatusFail, Error: errors.New("exit 1")})
	s.RecordResult(&ModuleResult{Module: Module{ID: "c"}, Status: ModuleStatusPass})
	s.Finalize()

	assert.Equal(t, 3, s.Stats.Total)
	assert.Equal(t, 2, s.Stats.Passed)
	assert.Equal(t, 1, s.Stats.Failed)
	assert.Equal(t, s.Stats.Total, s.Stats.Passed+s.Stats.Failed)
	assert.Equal(t, ModuleStatusFail, s.Status)
	assert.Equal(t, []string{"b"}, s.FailedIDs())
}

func TestRunSummary_FailedOrderPreservesCatalogueOrder(t *testing.T) {
	s := &RunSummary{}
	for _, id := range []string{"z", "m", "a", "q"} {
		s.RecordResult(&ModuleResult{Module: Module{ID: id}, Status: ModuleStatusFail})
	}
	s.Finalize()

	assert.Equal(t, []string{"z", "m", "a", "q"}, s.FailedIDs())
}

func TestRunSummary_EmptyRunIsAPass(t *testing.T) {
	s := &RunSummary{RunID: "empty"}
	s.Finalize()

	assert.Equal(t, 0, s.Stats.Total)
	assert.Equal(t, 0, s.Stats.Passed)
	assert.Equal(t, 0, s.Stats.Failed)
	assert.Equal(t, ModuleStatusPass, s.Status)
	assert.Empty(t, s.FailedIDs())
}

func TestRunSummary_String(t *testing.T) {
	s := &RunSummary{RunID: "run-9", Duration: 1500 * time.Millisecond}
	s.RecordResult(&ModuleResult{Module: Module{ID: "a"}, Status: ModuleStatusPass})
	s.Finalize()

	assert.Contains(t, s.String(), "run-9")
	assert.Contains(t, s.String(), "1 total, 1 passed, 0 failed")
}
