package kafka_config

import "time"

const (
	// Empty broker list disables event publishing.
	DefaultKafkaBrokers = ""
	DefaultKafkaTopic   = "booking-events"

	DefaultProducerMaxAttempts  = 3
	DefaultProducerBatchTimeout = 10 * time.Millisecond
	DefaultProducerRequireAcks  = -1 // all replicas
	DefaultProducerCompression  = "snappy"
	DefaultProducerAsync        = false
)
