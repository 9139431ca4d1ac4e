package signup

import (
	"go.uber.org/fx"

	"github.com/omsms/tenantgate/internal/provisioner"
)

func asProvisioner(p *provisioner.Provisioner) Provisioner { return p }

var Module = fx.Module("signup",
	fx.Provide(asProvisioner),
	fx.Provide(NewService),
)
