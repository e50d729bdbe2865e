package container

import "time"

// Recorder receives resolution events. framework/metrics provides a
// Prometheus implementation.
type Recorder interface {
	CacheHit(namespace, service string)
	CacheMiss(namespace, service string)
	Constructed(namespace, service string, elapsed time.Duration)
	ConstructionFailed(namespace, service string)
}

type nopRecorder struct{}

func (nopRecorder) CacheHit(string, string) {}
func (nopRecorder) CacheMiss(string, string) {}
func (nopRecorder) Constructed(string, string, time.Duration) {}
func (nopRecorder) ConstructionFailed(string, string) {}
