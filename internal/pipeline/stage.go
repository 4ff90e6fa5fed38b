package pipeline

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Stage identifies one step of the generation pipeline. Stage values double
// as the suffix of the progress task id for that step.
type Stage string

const (
	StageTranscription   Stage = "transcription"
	StageTimingMap       Stage = "timing_map"
	StageResearch        Stage = "research"
	StageAudioAnalysis   Stage = "audio_analysis"
	StageAssetExtraction Stage = "asset_extraction"
	StageContextAssembly Stage = "context_assembly"
	StageScriptSynthesis Stage = "script_synthesis"
)

// Stages lists the pipeline stages in execution order.
func Stages() []Stage {
	return []Stage{
		StageTranscription,
		StageTimingMap,
		StageResearch,
		StageAudioAnalysis,
		StageAssetExtraction,
		StageContextAssembly,
		StageScriptSynthesis,
	}
}

var stageCaser = cases.Title(language.English)

// Label renders a human-readable stage name for progress display.
func (s Stage) Label() string {
	return stageCaser.String(strings.ReplaceAll(string(s), "_", " "))
}

// TaskID returns the progress task id for this stage within a story run.
func (s Stage) TaskID(storyID string) string {
	return storyID + "_" + string(s)
}

// RootTaskID returns the progress task id of the run's root task.
func RootTaskID(storyID string) string {
	return storyID + "_pipeline"
}
