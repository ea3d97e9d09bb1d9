package contract

// Built-in contract set. These mirror the production resource schemas and are
// the baseline for every role; YAML files can override or extend them.

func casesContract() *ResourceContract {
	return &ResourceContract{
		Version:  "1.0.0",
		Resource: "cases",
		OpsAllowed: []Operation{OpRead, OpInsert, OpUpdate},
		Fields: []Field{
			{Name: "case_id", Type: TypeUUID, Nullable: false, Readable: true, Writable: false},
			{Name: "client_name", Type: TypeString, Nullable: false, PII: true, Readable: true, Writable: true},
			{Name: "client_email", Type: TypeString, Nullable: false, PII: true, Readable: true, Writable: true},
			{Name: "client_phone", Type: TypeString, Nullable: true, PII: true, Readable: true, Writable: true},
			{Name: "status", Type: TypeString, Nullable: false, Readable: true, Writable: true,
				EnumValues: []string{"OPEN", "CLOSED"}},
			{Name: "created_at", Type: TypeTimestamp, Nullable: false, Readable: true, Writable: false},
		},
		FiltersAllowed: map[string][]FilterOperator{
			"case_id":      {OpEq},
			"client_name":  {OpEq, OpLike, OpILike},
			"client_email": {OpEq, OpLike, OpILike},
			"client_phone": {OpEq, OpLike},
			"status":       {OpEq, OpIn},
			"created_at":   {OpEq, OpGt, OpGte, OpLt, OpLte, OpBetween},
		},
		OrderAllowed: []string{"created_at", "client_name", "status"},
		Limits:       Limits{MaxRows: 100, MaxPredicates: 10, MaxUpdateFields: 5, MaxJoins: 1},
		JoinsAllowed: []JoinDefinition{
			{
				TargetResource: "client_communications",
				On:             []JoinOn{{LeftField: "case_id", RightField: "case_id"}},
				Type:           "inner",
			},
		},
	}
}

func documentsContract() *ResourceContract {
	return &ResourceContract{
		Version:  "1.0.0",
		Resource: "documents",
		OpsAllowed: []Operation{OpRead, OpInsert, OpUpdate},
		Fields: []Field{
			{Name: "document_id", Type: TypeUUID, Nullable: false, Readable: true, Writable: false},
			{Name: "case_id", Type: TypeUUID, Nullable: false, Readable: true, Writable: true},
			{Name: "original_file_name", Type: TypeString, Nullable: false, Readable: true, Writable: true},
			{Name: "original_file_size", Type: TypeInteger, Nullable: false, Readable: true, Writable: true},
			{Name: "original_file_type", Type: TypeString, Nullable: false, Readable: true, Writable: true},
			{Name: "original_s3_location", Type: TypeString, Nullable: false, Readable: true, Writable: true},
			{Name: "original_s3_key", Type: TypeString, Nullable: false, Readable: true, Writable: true},
			{Name: "status", Type: TypeString, Nullable: false, Readable: true, Writable: true,
				EnumValues: []string{"PENDING", "PROCESSING", "COMPLETED", "FAILED"}},
			{Name: "created_at", Type: TypeTimestamp, Nullable: false, Readable: true, Writable: false},
			{Name: "processed_file_name", Type: TypeString, Nullable: true, Readable: true, Writable: true},
			{Name: "processed_file_size", Type: TypeInteger, Nullable: true, Readable: true, Writable: true},
			{Name: "processed_s3_location", Type: TypeString, Nullable: true, Readable: true, Writable: true},
			{Name: "processed_s3_key", Type: TypeString, Nullable: true, Readable: true, Writable: true},
			{Name: "batch_id", Type: TypeString, Nullable: true, Readable: true, Writable: true},
		},
		FiltersAllowed: map[string][]FilterOperator{
			"document_id":        {OpEq},
			"case_id":            {OpEq, OpIn},
			"original_file_name": {OpEq, OpLike, OpILike},
			"original_file_type": {OpEq, OpIn},
			"status":             {OpEq, OpIn},
			"created_at":         {OpEq, OpGt, OpGte, OpLt, OpLte, OpBetween},
			"original_file_size": {OpGt, OpLte},
			"batch_id":           {OpEq},
		},
		OrderAllowed: []string{"created_at", "original_file_name", "status", "original_file_size"},
		Limits:       Limits{MaxRows: 100, MaxPredicates: 10, MaxUpdateFields: 8, MaxJoins: 1},
	}
}

func documentAnalysisContract() *ResourceContract {
	return &ResourceContract{
		Version:  "1.0.0",
		Resource: "document_analysis",
		OpsAllowed: []Operation{OpRead, OpInsert, OpUpdate},
		Fields: []Field{
			{Name: "analysis_id", Type: TypeUUID, Nullable: false, Readable: true, Writable: false},
			{Name: "document_id", Type: TypeUUID, Nullable: false, Readable: true, Writable: true},
			{Name: "case_id", Type: TypeUUID, Nullable: false, Readable: true, Writable: true},
			{Name: "analysis_content", Type: TypeText, Nullable: false, PII: true, Readable: true, Writable: true},
			{Name: "analysis_status", Type: TypeString, Nullable: false, Readable: true, Writable: true},
			{Name: "model_used", Type: TypeString, Nullable: false, Readable: true, Writable: true},
			{Name: "tokens_used", Type: TypeInteger, Nullable: true, Readable: true, Writable: true},
			{Name: "analyzed_at", Type: TypeTimestamp, Nullable: false, Readable: true, Writable: true},
			{Name: "created_at", Type: TypeTimestamp, Nullable: false, Readable: true, Writable: false},
			{Name: "analysis_reasoning", Type: TypeText, Nullable: true, PII: true, Readable: true, Writable: true},
			{Name: "context_summary_created", Type: TypeBoolean, Nullable: false, Readable: true, Writable: true},
		},
		FiltersAllowed: map[string][]FilterOperator{
			"analysis_id":             {OpEq},
			"document_id":             {OpEq, OpIn},
			"case_id":                 {OpEq, OpIn},
			"analysis_status":         {OpEq, OpIn},
			"model_used":              {OpEq},
			"analyzed_at":             {OpEq, OpGt, OpGte, OpLt, OpLte, OpBetween},
			"created_at":              {OpEq, OpGt, OpGte, OpLt, OpLte, OpBetween},
			"context_summary_created": {OpEq},
		},
		OrderAllowed: []string{"analyzed_at", "created_at", "analysis_status"},
		// Analysis rows carry large text payloads, hence the tighter caps.
		Limits: Limits{MaxRows: 50, MaxPredicates: 8, MaxUpdateFields: 6, MaxJoins: 1},
	}
}

func clientCommunicationsContract() *ResourceContract {
	return &ResourceContract{
		Version:  "1.0.0",
		Resource: "client_communications",
		OpsAllowed: []Operation{OpRead, OpInsert, OpUpdate},
		Fields: []Field{
			{Name: "communication_id", Type: TypeUUID, Nullable: false, Readable: true, Writable: false},
			{Name: "case_id", Type: TypeUUID, Nullable: false, Readable: true, Writable: true},
			{Name: "channel", Type: TypeString, Nullable: false, Readable: true, Writable: true},
			{Name: "direction", Type: TypeString, Nullable: false, Readable: true, Writable: true},
			{Name: "status", Type: TypeString, Nullable: false, Readable: true, Writable: true},
			{Name: "sender", Type: TypeString, Nullable: false, PII: true, Readable: true, Writable: true},
			{Name: "recipient", Type: TypeString, Nullable: false, PII: true, Readable: true, Writable: true},
			{Name: "subject", Type: TypeString, Nullable: true, Readable: true, Writable: true},
			{Name: "message_content", Type: TypeText, Nullable: true, PII: true, Readable: true, Writable: true},
			{Name: "created_at", Type: TypeTimestamp, Nullable: false, Readable: true, Writable: false},
			{Name: "sent_at", Type: TypeTimestamp, Nullable: true, Readable: true, Writable: true},
			{Name: "opened_at", Type: TypeTimestamp, Nullable: true, Readable: true, Writable: true},
			{Name: "resend_id", Type: TypeString, Nullable: true, Readable: true, Writable: true},
		},
		FiltersAllowed: map[string][]FilterOperator{
			"communication_id": {OpEq},
			"case_id":          {OpEq, OpIn},
			"channel":          {OpEq, OpIn},
			"direction":        {OpEq, OpIn},
			"status":           {OpEq, OpIn},
			"sender":           {OpEq, OpLike, OpILike},
			"recipient":        {OpEq, OpLike, OpILike},
			"subject":          {OpLike, OpILike},
			"created_at":       {OpEq, OpGt, OpGte, OpLt, OpLte, OpBetween},
			"sent_at":          {OpEq, OpGt, OpGte, OpLt, OpLte, OpBetween},
		},
		OrderAllowed: []string{"created_at", "sent_at", "channel", "direction", "status"},
		Limits:       Limits{MaxRows: 100, MaxPredicates: 10, MaxUpdateFields: 8, MaxJoins: 1},
		JoinsAllowed: []JoinDefinition{
			{
				TargetResource: "cases",
				On:             []JoinOn{{LeftField: "case_id", RightField: "case_id"}},
				Type:           "inner",
			},
		},
	}
}

func errorLogsContract() *ResourceContract {
	return &ResourceContract{
		Version:  "1.0.0",
		Resource: "error_logs",
		OpsAllowed: []Operation{OpRead, OpInsert, OpUpdate},
		Fields: []Field{
			{Name: "error_id", Type: TypeUUID, Nullable: false, Readable: true, Writable: false},
			{Name: "component", Type: TypeString, Nullable: false, Readable: true, Writable: true},
			{Name: "error_message", Type: TypeText, Nullable: false, Readable: true, Writable: true},
			{Name: "severity", Type: TypeString, Nullable: false, Readable: true, Writable: true,
				EnumValues: []string{"low", "medium", "high", "critical"}},
			{Name: "context", Type: TypeJSON, Nullable: true, Readable: true, Writable: true},
			{Name: "email_sent", Type: TypeBoolean, Nullable: false, Readable: true, Writable: true},
			{Name: "created_at", Type: TypeTimestamp, Nullable: false, Readable: true, Writable: false},
			{Name: "updated_at", Type: TypeTimestamp, Nullable: false, Readable: true, Writable: false},
		},
		FiltersAllowed: map[string][]FilterOperator{
			"error_id":      {OpEq},
			"component":     {OpEq, OpLike, OpILike},
			"error_message": {OpLike, OpILike},
			"severity":      {OpEq, OpIn},
			"email_sent":    {OpEq},
			"created_at":    {OpEq, OpGt, OpGte, OpLt, OpLte, OpBetween},
			"updated_at":    {OpEq, OpGt, OpGte, OpLt, OpLte, OpBetween},
		},
		OrderAllowed: []string{"created_at", "updated_at", "severity", "component"},
		Limits:       Limits{MaxRows: 100, MaxPredicates: 10, MaxUpdateFields: 5, MaxJoins: 1},
	}
}

// builtinContracts returns the default contract set shared by every role.
func builtinContracts() map[string]*ResourceContract {
	return map[string]*ResourceContract{
		"cases":                 casesContract(),
		"documents":             documentsContract(),
		"document_analysis":     documentAnalysisContract(),
		"client_communications": clientCommunicationsContract(),
		"error_logs":            errorLogsContract(),
	}
}
