package segmentation

// Result is the outcome of a segmentation pass along with the intermediate
// values callers report on
type Result struct {
	Events        []NoteEvent `json:"events"`
	EffectiveGate float64     `json:"effective_gate"`
	Frames        int         `json:"frames"`
	VoicedFrames  int         `json:"voiced_frames"`
}

// Run applies every stage in order: align, gate, quantize, smooth, bridge
// gaps, correct outliers, segment and merge
func Run(track FrameTrack, params Params) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	aligned := AlignTrack(track)
	gate := EffectiveGate(aligned.Energy, params.BaseEnergyGate)
	voiced := VoicedMask(aligned, gate, params.ConfidenceFloor)

	notes := Quantize(aligned.Frequencies, voiced)
	notes = Smooth(notes)
	notes = BridgeGaps(notes, MaxGapFrames(params.GapBridgeSeconds, params.SampleRate, params.HopLength), params.PitchTolerance)
	notes = CorrectOutliers(notes, params.PitchTolerance)

	events := Segment(notes, params)
	events = Merge(events, params.GapBridgeSeconds, params.PitchTolerance)

	result := &Result{
		Events:        events,
		EffectiveGate: gate,
		Frames:        len(notes),
	}
	for _, v := range voiced {
		if v {
			result.VoicedFrames++
		}
	}

	return result, nil
}
