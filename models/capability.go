package models

// Capability names an action that can be gated per role
type Capability string

const (
	CapCaseWrite       Capability = "case:write"
	CapCaseDelete      Capability = "case:delete"
	CapPhaseWrite      Capability = "phase:write"
	CapClientWrite     Capability = "client:write"
	CapClientDelete    Capability = "client:delete"
	CapAircraftWrite   Capability = "aircraft:write"
	CapAircraftDelete  Capability = "aircraft:delete"
	CapDocumentWrite   Capability = "document:write"
	CapEventWrite      Capability = "event:write"
	CapMonitoringWrite Capability = "monitoring:write"
	CapDecisionAdmin   Capability = "decision:admin"
	CapOSINTUse        Capability = "osint:use"
	CapNewsletterAdmin Capability = "newsletter:admin"
	CapUserAdmin       Capability = "user:admin"
	CapReportExport    Capability = "report:export"
)

// AllCapabilities lists every capability known to the system
var AllCapabilities = []Capability{
	CapCaseWrite, CapCaseDelete, CapPhaseWrite,
	CapClientWrite, CapClientDelete,
	CapAircraftWrite, CapAircraftDelete,
	CapDocumentWrite, CapEventWrite, CapMonitoringWrite,
	CapDecisionAdmin, CapOSINTUse, CapNewsletterAdmin,
	CapUserAdmin, CapReportExport,
}

// RoleCapabilities is the single source of truth for what each role may do.
// Reads only require an authenticated user and are not listed here.
var RoleCapabilities = map[string][]Capability{
	RoleAdmin: AllCapabilities,
	RoleColaboradorA: {
		CapCaseWrite, CapPhaseWrite,
		CapClientWrite, CapAircraftWrite,
		CapDocumentWrite, CapEventWrite, CapMonitoringWrite,
		CapOSINTUse, CapReportExport,
	},
	RoleColaboradorB: {
		CapDocumentWrite, CapEventWrite,
	},
}

// RoleHasCapability looks up the capability table
func RoleHasCapability(role string, capability Capability) bool {
	for _, c := range RoleCapabilities[role] {
		if c == capability {
			return true
		}
	}
	return false
}
