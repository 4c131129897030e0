package ui

import (
	"fmt"

	"go.uber.org/zap"
)

const (
	targetStartedMessageTemplateConstant   = "Scanning %s (%s mode)"
	targetCompletedMessageTemplateConstant = "Scanned %s: %d entries"
	targetSkippedMessageTemplateConstant   = "Skipped %s: %s"
)

// ConsoleScanEventLogger reports per-target scan progress in human-readable form.
type ConsoleScanEventLogger struct {
	logger *zap.Logger
}

// NewConsoleScanEventLogger constructs a progress logger backed by the provided zap logger.
func NewConsoleScanEventLogger(logger *zap.Logger) *ConsoleScanEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleScanEventLogger{logger: logger}
}

// TargetStarted implements shared.ScanEventObserver.
func (eventLogger *ConsoleScanEventLogger) TargetStarted(targetRoot string, mode string) {
	eventLogger.logger.Info(fmt.Sprintf(targetStartedMessageTemplateConstant, targetRoot, mode))
}

// TargetCompleted implements shared.ScanEventObserver.
func (eventLogger *ConsoleScanEventLogger) TargetCompleted(targetRoot string, mode string, entryCount int) {
	eventLogger.logger.Debug(fmt.Sprintf(targetCompletedMessageTemplateConstant, targetRoot, entryCount))
}

// TargetSkipped implements shared.ScanEventObserver.
func (eventLogger *ConsoleScanEventLogger) TargetSkipped(targetRoot string, reason string) {
	eventLogger.logger.Warn(fmt.Sprintf(targetSkippedMessageTemplateConstant, targetRoot, reason))
}
