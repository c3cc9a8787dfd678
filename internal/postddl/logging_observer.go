package postddl

import "log/slog"

// LoggingObserver logs every plan event using structured logging
type LoggingObserver struct {
	logger *slog.Logger
}

// NewLoggingObserver creates a logging observer writing to logger
// (slog.Default when nil)
func NewLoggingObserver(logger *slog.Logger) *LoggingObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{logger: logger}
}

// OnEvent implements the Observer interface
func (lo *LoggingObserver) OnEvent(event Event) {
	lo.logger.Info("postddl_lifecycle",
		"event", event.Type,
		"plan_id", event.PlanID,
		"table", event.Table,
		"timestamp", event.Timestamp,
		"data", event.Data,
	)
}
