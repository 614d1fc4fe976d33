package usecase

import "time"

// RunReport is the audit trail of one pipeline run: every stage's in/out
// counts plus model scores. Persisted next to the output tables so silent
// data loss is always observable after the fact.
type RunReport struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Clean      CleanStats    `json:"clean"`
	Transfers  TransferStats `json:"transfers"`
	Join       JoinStats     `json:"join"`
	Features   FeatureStats  `json:"features"`
	Models     []ModelReport `json:"models"`
}
