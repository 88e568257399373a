package api

import (
	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal"
	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal/storage"
	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal/verse"
)

type App interface {
	Logger() internal.Logger
	Repos() *storage.Repositories
	Verse() *verse.Service
}
