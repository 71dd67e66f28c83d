// SPDX-License-Identifier: ice License 1.0

package quiz

// progressOf maps the quiz counters to the display model of the configured style.
func progressOf(style ProgressStyle, st *State) Progress {
	prg := Progress{Style: style, Finished: st.Completed}
	switch style {
	case GrowingPathProgress:
		// The head is there from the start and the finish line is the last cell.
		prg.Filled, prg.Total = st.ProgressMarker+1, st.Total+1
	case TokenPathProgress:
		prg.Filled, prg.Total = st.ProgressMarker, st.Total+1
	case ScoreProgress:
		prg.Filled, prg.Total = st.Score, st.Total
	}

	return prg
}
