package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type countingRegistrar struct {
	calls int
}

func (r *countingRegistrar) RegisterHandlers() { r.calls++ }

func TestStartAuditWorkerRegistersHandlers(t *testing.T) {
	registrar := &countingRegistrar{}
	StartAuditWorker(registrar)
	assert.Equal(t, 1, registrar.calls)

	assert.NotPanics(t, func() { StartAuditWorker(nil) })
}
