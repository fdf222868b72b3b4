package models

// All returns every persisted model, in migration order
func All() []interface{} {
	return []interface{}{
		&User{},
		&Client{},
		&Aircraft{},
		&CaseCounter{},
		&Case{},
		&Phase{},
		&Document{},
		&Event{},
		&DecisionRule{},
		&MonitoringAlert{},
		&Research{},
		&Newsletter{},
		&Subscriber{},
		&OSINTReport{},
		&Notification{},
		&AuditLog{},
		&PasswordResetToken{},
	}
}
