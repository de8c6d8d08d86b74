package errors

// Code classifies orchestrator failures for reporting and exit handling.
type Code string

const (
	CodeUnknown           Code = "UNKNOWN"
	CodeConfiguration     Code = "CONFIGURATION_ERROR"
	CodeAmbiguousResource Code = "AMBIGUOUS_RESOURCE"
	CodeTransientRemote   Code = "TRANSIENT_REMOTE_ERROR"
	CodeReconciliation    Code = "RECONCILIATION_ERROR"
	CodePackaging         Code = "PACKAGING_ERROR"
	CodePublish           Code = "PUBLISH_ERROR"
)

func (c Code) String() string {
	return string(c)
}
