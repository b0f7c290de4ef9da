package application

import (
	"context"

	"cellbet/domain/interfaces"
)

// MockNotifier implements Notifier for testing
type MockNotifier struct {
	Outcomes       []interfaces.OutcomeNotice
	OperatorAlerts []string
	Error          error
}

func (m *MockNotifier) NotifyOutcome(ctx context.Context, notice interfaces.OutcomeNotice) error {
	if m.Error != nil {
		return m.Error
	}
	m.Outcomes = append(m.Outcomes, notice)
	return nil
}

func (m *MockNotifier) NotifyOperator(ctx context.Context, message string) error {
	if m.Error != nil {
		return m.Error
	}
	m.OperatorAlerts = append(m.OperatorAlerts, message)
	return nil
}

// OutcomesFor returns the notices delivered to one user
func (m *MockNotifier) OutcomesFor(userID int64) []interfaces.OutcomeNotice {
	var notices []interfaces.OutcomeNotice
	for _, n := range m.Outcomes {
		if n.UserID == userID {
			notices = append(notices, n)
		}
	}
	return notices
}
