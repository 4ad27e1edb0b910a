package config

// Module implementations register their type names on import; Validate
// resolves names against those registries.
import (
	_ "github.com/kilianp07/deliveryeta/infra/events/mqtt"
	_ "github.com/kilianp07/deliveryeta/infra/events/redis"
	_ "github.com/kilianp07/deliveryeta/infra/metrics"
	_ "github.com/kilianp07/deliveryeta/infra/predictionlog"
)
