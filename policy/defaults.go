package policy

// DefaultRules returns the starter rule bundle rustchain ships via
// create_default_policies, generalized to this repo's action-key
// convention ("tool:<step_type>"). An Engine built with NewEngine starts
// empty and gets them via LoadDefaults or AddRule; engine.New loads them
// into every RuntimeContext's policy engine.
func DefaultRules() []Rule {
	return []Rule{
		NewRule("allow_document_loaders", "Allow document loaders", Allow).
			WithDescription("Allow document loader tools for file processing").
			WithPriority(400).
			WithActions("tool:csv_loader", "tool:json_yaml_loader", "tool:html_loader", "tool:pdf_loader"),

		NewRule("allow_all_file_ops", "Allow all file operations", Allow).
			WithDescription("Allow all file operations for testing").
			WithPriority(250).
			WithActions("tool:create_file", "tool:edit_file"),

		NewRule("deny_dangerous_commands", "Block dangerous system commands", Deny).
			WithDescription("dangerous_commands: command contains a blocked pattern").
			WithPriority(200).
			WithActions("tool:command").
			WithCondition(Condition{Field: "command", Operator: ContainsAny, Value: []interface{}{
				"rm -rf", "sudo", "format", "mkfs",
			}}),

		NewRule("allow_safe_commands", "Allow safe system commands", Allow).
			WithDescription("Allow safe system commands").
			WithPriority(150).
			WithActions("tool:command").
			WithCondition(Condition{Field: "command", Operator: In, Value: []interface{}{
				"echo", "ls", "dir", "pwd", "whoami", "date",
			}}),

		NewRule("safe_file_ops", "Allow file operations in safe directories", Allow).
			WithDescription("Allow file operations in safe directories").
			WithPriority(100).
			WithActions("tool:create_file", "tool:edit_file").
			WithCondition(Condition{Field: "path", Operator: NotIn, Value: []interface{}{
				"/etc", "/bin", "/sbin", `C:\Windows`,
			}}),

		NewRule("safe_http", "Allow HTTP requests to safe domains", Allow).
			WithDescription("Allow HTTP requests to safe domains").
			WithPriority(100).
			WithActions("tool:http").
			WithCondition(Condition{Field: "domain", Operator: In, Value: []interface{}{
				"localhost", "127.0.0.1", "api.openai.com",
			}}),

		NewRule("business_hours_only", "Allow operations only during business hours", Allow).
			WithDescription("Allow operations only during business hours").
			WithPriority(50).
			WithActions("*").
			WithCondition(Condition{Field: "time_of_day", Operator: GreaterThan, Value: float64(8)}).
			WithCondition(Condition{Field: "time_of_day", Operator: LessThan, Value: float64(18)}),
	}
}

// LoadDefaults registers every DefaultRules entry into e.
func LoadDefaults(e *Engine) {
	for _, r := range DefaultRules() {
		e.AddRule(r)
	}
}
