package kafka

import "errors"

var (
	ErrInvalidConfig  = errors.New("kafka: invalid config")
	ErrProducerClosed = errors.New("kafka: producer is closed")
)
