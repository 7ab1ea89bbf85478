package gate

// QuestionsCompleted unlocks once every listed question has been completed.
// With no ids it is always unlocked.
func QuestionsCompleted(progress ProgressReader, ids ...string) Predicate {
	return func() bool {
		for _, id := range ids {
			if !progress.QuestionCompleted(id) {
				return false
			}
		}

		return true
	}
}

// All unlocks when every predicate does.
func All(preds ...Predicate) Predicate {
	return func() bool {
		for _, p := range preds {
			if !p() {
				return false
			}
		}

		return true
	}
}

// Any unlocks when at least one predicate does.
func Any(preds ...Predicate) Predicate {
	return func() bool {
		for _, p := range preds {
			if p() {
				return true
			}
		}

		return false
	}
}

// Not inverts p.
func Not(p Predicate) Predicate {
	return func() bool {
		return !p()
	}
}
