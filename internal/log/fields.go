package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldTableID   = "table_id"
	FieldPeriod    = "period"
	FieldEntryID   = "entry_id"
	FieldEntryIDs  = "entry_ids"
	FieldCount     = "count"
	FieldColumn    = "column"
	FieldDirection = "direction"
	FieldKey       = "key"
	FieldMethod    = "method"
	FieldURL       = "url"
	FieldStatus    = "status_code"
	FieldDuration  = "duration_ms"
	FieldError     = "error"
	FieldErrorType = "error_type"
	FieldOperation = "operation"
	FieldSeverity  = "severity"
	FieldBackend   = "backend"
	FieldRequestID = "request_id"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentTable   = "table"
	ComponentSort    = "sort"
	ComponentPrefs   = "prefs"
	ComponentStorage = "storage"
	ComponentREST    = "rest"
	ComponentNotify  = "notify"
	ComponentAMQP    = "amqp"
	ComponentSheets  = "sheets"
	ComponentCache   = "cache"
	ComponentMetrics = "metrics"
	ComponentCLI     = "cli"
	ComponentBackend = "backend"
)

// Operations defines standard operation names
const (
	OpFetch      = "fetch"
	OpCreate     = "create"
	OpUpdate     = "update"
	OpDelete     = "delete"
	OpBulkDelete = "bulk_delete"
	OpBulkUpdate = "bulk_update"
	OpMerge      = "merge"
	OpSort       = "sort"
	OpValidate   = "validate"
	OpExport     = "export"
	OpPublish    = "publish"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation = "validation_error"
	ErrorTypeNetwork    = "network_error"
	ErrorTypeAPI        = "api_error"
	ErrorTypeNotFound   = "not_found_error"
	ErrorTypeCapability = "capability_missing"
	ErrorTypeStorage    = "storage_error"
	ErrorTypeInternal   = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithTable adds the table id field
func (f LogFields) WithTable(tableID string) LogFields {
	f[FieldTableID] = tableID
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithErrorType adds the error category field
func (f LogFields) WithErrorType(kind string) LogFields {
	f[FieldErrorType] = kind
	return f
}

// WithPeriod adds the period key field
func (f LogFields) WithPeriod(key string) LogFields {
	f[FieldPeriod] = key
	return f
}

// WithEntries adds the ids affected by a bulk operation
func (f LogFields) WithEntries(ids []int64) LogFields {
	f[FieldEntryIDs] = ids
	f[FieldCount] = len(ids)
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
