package pipeline

// State is a step of a batch run.
type State int

const (
	StateConfiguring State = iota
	StateBuildingGenerationTasks
	StateProcessingFaceSwap
	StateSummarizing
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConfiguring:
		return "Configuring"
	case StateBuildingGenerationTasks:
		return "BuildingGenerationTasks"
	case StateProcessingFaceSwap:
		return "ProcessingFaceSwap"
	case StateSummarizing:
		return "Summarizing"
	case StateDone:
		return "Done"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
