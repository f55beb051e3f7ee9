package handler

import "reload-gateway/internal/core/usecase"

func NewHandlerFactory(f *usecase.Factory) *ReloadHandler {
	return NewReloadHandler(f.Enqueue, f.ReceiveSMS, f.Status, f.Stats, f.Queue, f.Channels, f.SetAvailability)
}
