// Package all registers every transaction module with the VM.
package all

import (
	_ "github.com/tolelom/arcadechain/vm/modules/admin"
	_ "github.com/tolelom/arcadechain/vm/modules/game"
	_ "github.com/tolelom/arcadechain/vm/modules/governance"
	_ "github.com/tolelom/arcadechain/vm/modules/ledger"
	_ "github.com/tolelom/arcadechain/vm/modules/nft"
	_ "github.com/tolelom/arcadechain/vm/modules/pool"
	_ "github.com/tolelom/arcadechain/vm/modules/referral"
	_ "github.com/tolelom/arcadechain/vm/modules/staking"
	_ "github.com/tolelom/arcadechain/vm/modules/timelock"
	_ "github.com/tolelom/arcadechain/vm/modules/treasury"
)
