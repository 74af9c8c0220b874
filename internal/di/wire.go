//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/app"
)

func InitializeApp() (*app.App, error) {
	panic(wire.Build(
		ConfigSet,
		ObservabilitySet,
		StoreSet,
		RepositorySet,
		ServiceSet,
		HTTPSet,
		AppSet,
	))
}
