package pipeline

import (
	"sort"

	"github.com/sells-group/recruiting-cli/internal/model"
)

// runAccumulator gathers counters and per-stage failure aggregates while a
// run executes. Not safe for concurrent use; candidates are processed
// sequentially.
type runAccumulator struct {
	counts model.RunCounts
	stages map[string]*stageAgg
	order  []string
}

type stageAgg struct {
	count    int
	messages map[string]*model.StageMessage
}

func newRunAccumulator() *runAccumulator {
	return &runAccumulator{stages: make(map[string]*stageAgg)}
}

func (a *runAccumulator) recordFailure(stage, errorType, message string) {
	agg, ok := a.stages[stage]
	if !ok {
		agg = &stageAgg{messages: make(map[string]*model.StageMessage)}
		a.stages[stage] = agg
		a.order = append(a.order, stage)
	}
	agg.count++
	msg, ok := agg.messages[message]
	if !ok {
		msg = &model.StageMessage{Message: message, ErrorType: errorType}
		agg.messages[message] = msg
	}
	msg.Count++
}

// stageErrors returns the aggregates in first-seen stage order, each carrying
// its three most frequent messages.
func (a *runAccumulator) stageErrors() []model.StageError {
	var out []model.StageError
	for _, stage := range a.order {
		agg := a.stages[stage]
		msgs := make([]model.StageMessage, 0, len(agg.messages))
		for _, m := range agg.messages {
			msgs = append(msgs, *m)
		}
		sort.Slice(msgs, func(i, j int) bool {
			if msgs[i].Count != msgs[j].Count {
				return msgs[i].Count > msgs[j].Count
			}
			return msgs[i].Message < msgs[j].Message
		})
		if len(msgs) > 3 {
			msgs = msgs[:3]
		}
		out = append(out, model.StageError{Stage: stage, Count: agg.count, TopMessages: msgs})
	}
	return out
}

func (a *runAccumulator) diagnostics(account *model.AccountHealth, effectiveQuery string, modes model.RunModes) *model.Diagnostics {
	return &model.Diagnostics{
		Counts:         a.counts,
		StageErrors:    a.stageErrors(),
		Account:        account,
		EffectiveQuery: effectiveQuery,
		Modes:          modes,
	}
}
