package logging

// Observer reports migration progress through the global logger
type Observer struct{}

// NewObserver creates a logging observer
func NewObserver() *Observer {
	return &Observer{}
}

// InterfaceSkipped logs an interface dropped by the exclusion rules
func (o *Observer) InterfaceSkipped(target, iface string) {
	WithDevice(target).WithField("interface", iface).Debug("Skipping excluded interface")
}

// InterfaceInspected logs the voice VLAN verdict for an interface
func (o *Observer) InterfaceInspected(target, iface string, matched bool) {
	entry := WithDevice(target).WithField("interface", iface)
	if matched {
		entry.Info("Interface carries the old voice VLAN")
		return
	}
	entry.Debug("Interface does not carry the old voice VLAN")
}
