package scoring

const (
	MessageExcellent = "Outstanding consistency this period. Keep it going!"
	MessageGood      = "Great work, you're logging most days."
	MessageFair      = "Solid start. A few more entries will lift your completion."
	MessageStreak    = "Your streak is alive. Keep the chain unbroken."
	MessageDefault   = "Every entry counts. Log one today to get back on track."
)

// EncouragementMessage picks the first tier that matches, checked from the highest completion down.
func EncouragementMessage(completionRate, streak int) string {
	switch {
	case completionRate >= 90:
		return MessageExcellent
	case completionRate >= 70:
		return MessageGood
	case completionRate >= 40:
		return MessageFair
	case streak >= 3:
		return MessageStreak
	default:
		return MessageDefault
	}
}
