package domain

// Capability names one automated behavior guarded by a per-site gate.
type Capability string

const (
	CapabilityIngestion               Capability = "ingestion"
	CapabilityAutoPublish             Capability = "auto_publish"
	CapabilityUnaffiliatedAutoPublish Capability = "unaffiliated_auto_publish"
)

// AutomationGate is the per-site switch row. A missing row is equivalent to
// every capability disabled: the gate fails closed, never open.
type AutomationGate struct {
	SiteKey                        string
	IngestionEnabled               bool
	AutoPublishEnabled             bool
	UnaffiliatedAutoPublishEnabled bool
}

// Allows reports whether the gate enables the given capability.
func (g AutomationGate) Allows(c Capability) bool {
	switch c {
	case CapabilityIngestion:
		return g.IngestionEnabled
	case CapabilityAutoPublish:
		return g.AutoPublishEnabled
	case CapabilityUnaffiliatedAutoPublish:
		return g.UnaffiliatedAutoPublishEnabled
	default:
		return false
	}
}
