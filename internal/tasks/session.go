package tasks

import (
	"github.com/desertthunder/spotfill/internal/models"
	"github.com/desertthunder/spotfill/internal/tables"
)

// Session is the state the pipeline starts from: both tables opened and the pending rows loaded.
type Session struct {
	Input            *tables.InputTable
	Output           *tables.OutputTable
	Pending          []models.InputRow
	AlreadyRetrieved int
}

// LoadPending opens the input and output tables and collects the rows still waiting for a lookup.
//
// The input table gains a PROCESSED column on disk if it had none. The output table is created with its header if
// it does not exist.
func LoadPending(inputPath, outputPath string) (*Session, error) {
	input, err := tables.OpenInputTable(inputPath)
	if err != nil {
		return nil, err
	}

	output, err := tables.OpenOutputTable(outputPath)
	if err != nil {
		return nil, err
	}

	return &Session{
		Input:            input,
		Output:           output,
		Pending:          input.Pending(),
		AlreadyRetrieved: output.Count(),
	}, nil
}

// Budget computes this session's run budget and truncates Pending to it.
func (s *Session) Budget(goal, operatorCap int) []models.InputRow {
	return Truncate(s.Pending, ComputeBudget(goal, s.AlreadyRetrieved, operatorCap))
}

// Remaining is how many tracks the output table still lacks to reach goal.
func (s *Session) Remaining(goal int) int {
	return ComputeBudget(goal, s.AlreadyRetrieved, 0)
}
