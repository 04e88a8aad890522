package adm

import (
	"github.com/Aleph-Alpha/admcodec/v1/logger"
	"github.com/Aleph-Alpha/admcodec/v1/schema"
	"go.uber.org/fx"
)

// FXModule provides the ADM *schema.Registry.
//
// Usage:
//
//	app := fx.New(
//	    adm.FXModule,
//	    codec.FXModule,
//	)
var FXModule = fx.Module("adm",
	fx.Provide(
		NewRegistryWithDI,
	),
)

// RegistryParams groups the optional dependencies of the registry provider.
type RegistryParams struct {
	fx.In

	Logger *logger.Logger `optional:"true"`
}

// NewRegistryWithDI builds the ADM registry and logs its fingerprint.
func NewRegistryWithDI(params RegistryParams) (*schema.Registry, error) {
	reg, err := NewRegistry()
	if err != nil {
		return nil, err
	}
	if params.Logger != nil {
		params.Logger.Info("schema registry built", nil, map[string]interface{}{
			"types":       reg.Len(),
			"fingerprint": reg.Fingerprint(),
		})
	}
	return reg, nil
}
