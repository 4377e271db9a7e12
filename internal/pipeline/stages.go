// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

// Stage is a step of the batch state machine. Stages only move forward.
type Stage int

const (
	StageCollecting Stage = iota
	StageExtracting
	StageSummarizing
	StageClassifying
	StageRendering
	StageSynthesizing
	StageSynthesizingAudio
	StageDone
)

var stageNames = [...]string{
	StageCollecting:        "collecting",
	StageExtracting:        "extracting",
	StageSummarizing:       "summarizing",
	StageClassifying:       "classifying",
	StageRendering:         "rendering",
	StageSynthesizing:      "synthesizing",
	StageSynthesizingAudio: "synthesizing_audio",
	StageDone:              "done",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// StageHook observes stage transitions of a batch.
type StageHook func(batchID string, stage Stage)
