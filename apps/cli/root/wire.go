package root

import (
	"github.com/zenGate-Global/palmyra-mb-upgrade/apps/cli/cmd/bootstrap"
	"github.com/zenGate-Global/palmyra-mb-upgrade/apps/cli/cmd/slug"
	"github.com/zenGate-Global/palmyra-mb-upgrade/apps/cli/cmd/upgrade"
	"github.com/zenGate-Global/palmyra-mb-upgrade/apps/cli/cmd/verify"
)

func init() {
	Root().AddCommand(bootstrap.Command())
	Root().AddCommand(upgrade.Command())
	Root().AddCommand(slug.Command())
	Root().AddCommand(verify.Command())
}
