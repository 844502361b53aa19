package worker

// HandlerRegistrar subscribes its handlers to the event dispatcher.
type HandlerRegistrar interface {
	RegisterHandlers()
}

// StartAuditWorker registers audit handlers.
func StartAuditWorker(registrar HandlerRegistrar) {
	if registrar == nil {
		return
	}
	registrar.RegisterHandlers()
}
