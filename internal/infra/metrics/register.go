package metrics

import (
	"errors"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu         sync.Mutex
	collectors []prometheus.Collector
	defaultReg sync.Once
)

// register queues collectors from each file's init for later registration.
func register(cs ...prometheus.Collector) {
	mu.Lock()
	collectors = append(collectors, cs...)
	mu.Unlock()
}

// Register adds every queued collector to reg. Collectors already present in
// reg are skipped, so calling it twice on the same registry is harmless.
func Register(reg prometheus.Registerer) error {
	mu.Lock()
	defer mu.Unlock()

	var errs []error
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MustRegister registers the collectors on the default registry served by
// promhttp.Handler.
func MustRegister() {
	defaultReg.Do(func() {
		if err := Register(prometheus.DefaultRegisterer); err != nil {
			panic(err)
		}
	})
}

// norm turns free-form label input into a bounded lowercase token.
func norm(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "unknown"
	}
	return strings.ReplaceAll(s, " ", "_")
}
