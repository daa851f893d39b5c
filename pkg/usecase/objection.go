package usecase

// NextObjectionIndex derives the objection cursor from how far the
// conversation has progressed. Each completed exchange is two history
// messages, so the cursor advances once per exchange and pins to the last
// objection once the list runs out.
func NextObjectionIndex(historyLen, objectionCount int) int {
	if objectionCount <= 0 {
		return 0
	}
	index := historyLen / 2
	if index >= objectionCount {
		return objectionCount - 1
	}
	return index
}
