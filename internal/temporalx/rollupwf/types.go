package rollupwf

const (
	WorkflowSchedule = "rollup_schedule"
	WorkflowWeekly   = "weekly_rollup"

	ActivityPlan = "rollup_plan"
	ActivityRun  = "rollup_run"

	// ScheduleWorkflowID is the single cron execution that fans out the weekly runs.
	ScheduleWorkflowID = "rollup-schedule"

	errTypeInvalidRange    = "InvalidRange"
	errTypeUnknownCategory = "UnknownCategory"
)

// WeeklyWorkflowID is derived from the run id so one period of one category has at most one
// execution in flight.
func WeeklyWorkflowID(runID string) string { return "rollup-" + runID }

type Plan struct {
	PeriodStart string   `json:"period_start"`
	PeriodEnd   string   `json:"period_end"`
	Categories  []string `json:"categories"`
}

type RunInput struct {
	Category    string `json:"category"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
}

type RunOutput struct {
	RunID       string `json:"run_id"`
	Score       int    `json:"score"`
	Dropped     int    `json:"dropped"`
	BadgeEvents int    `json:"badge_events"`
}
