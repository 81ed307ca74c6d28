package meta

import "sync/atomic"

// ServiceInfo identifies the running process in spans, alerts and Kafka client ids.
type ServiceInfo struct {
	Name    string
	Version string
}

//nolint:gochecknoglobals // process-wide identity, set once at startup
var service atomic.Pointer[ServiceInfo]

// SetServiceInfo records the service identity. Only the first call has effect.
func SetServiceInfo(name, version string) {
	service.CompareAndSwap(nil, &ServiceInfo{Name: name, Version: version})
}

// Service returns the identity recorded by SetServiceInfo, or the zero value.
func Service() ServiceInfo {
	if s := service.Load(); s != nil {
		return *s
	}
	return ServiceInfo{}
}
