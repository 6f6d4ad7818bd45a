package stats

// TreeStageFor maps a daily progress percent to a tree stage.
func TreeStageFor(percent float64) TreeStage {
	switch {
	case percent >= 100:
		return StageFull
	case percent >= 70:
		return StageYoung
	case percent >= 40:
		return StageSapling
	case percent >= 20:
		return StageSprout
	default:
		return StageSeed
	}
}
