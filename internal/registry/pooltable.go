package registry

import "github.com/rawblock/arbengine/pkg/models"

// poolSpec is one row of the static pool table loaded at startup.
type poolSpec struct {
	name    string
	from    string
	to      string
	feeRate uint64
}

// defaultPoolTable is the fixed pool set from the AMM deployment this
// engine targets: asset pairs and fee rates only, reserves left at zero
// until the bootstrap RPC call populates them.
var defaultPoolTable = []poolSpec{
	{"WETH/ETH", "0xa38a5a8beeb08d95744bc7f58528073f4052b254def59eba20c99c202b5acaa3", "0xf8f8b6283d7fa5b672b530cbb84fcccb4ff8dc40f8176ef4544ddb1f1952ad07", 50},
	{"USDC/USDT", "0x286c479da40dc953bddc3bb4c453b608bba2e0ac483b077bd475174115395e6b", "0xa0265fb5c32f6e8db3197af3c7eb05c48ae373605b8165b6f4a51c5b0ba4812e", 50},
	{"ezETH/ETH", "0x91b3559edb2619cde8ffb2aa7b3c3be97efd794ea46700db7092abeee62281b0", "0xf8f8b6283d7fa5b672b530cbb84fcccb4ff8dc40f8176ef4544ddb1f1952ad07", 50},
	{"pzETH/ETH", "0x1493d4ec82124de8f9b625682de69dcccda79e882b89a55a8c737b12de67bd68", "0xf8f8b6283d7fa5b672b530cbb84fcccb4ff8dc40f8176ef4544ddb1f1952ad07", 50},
	{"weETH/ETH", "0x239ed6e12b7ce4089ee245244e3bf906999a6429c2a9a445a1e1faf56914a4ab", "0xf8f8b6283d7fa5b672b530cbb84fcccb4ff8dc40f8176ef4544ddb1f1952ad07", 50},
	{"USDC/USDF", "0x286c479da40dc953bddc3bb4c453b608bba2e0ac483b077bd475174115395e6b", "0x33a6d90877f12c7954cca6d65587c25e9214c7bed2231c188981c7114c1bdb78", 50},
	{"USDC/ETH", "0x286c479da40dc953bddc3bb4c453b608bba2e0ac483b077bd475174115395e6b", "0xf8f8b6283d7fa5b672b530cbb84fcccb4ff8dc40f8176ef4544ddb1f1952ad07", 300},
	{"USDT/ETH", "0xa0265fb5c32f6e8db3197af3c7eb05c48ae373605b8165b6f4a51c5b0ba4812e", "0xf8f8b6283d7fa5b672b530cbb84fcccb4ff8dc40f8176ef4544ddb1f1952ad07", 300},
	{"USDC/ezETH", "0x286c479da40dc953bddc3bb4c453b608bba2e0ac483b077bd475174115395e6b", "0x91b3559edb2619cde8ffb2aa7b3c3be97efd794ea46700db7092abeee62281b0", 300},
}

// LoadDefaultPoolTable builds a Registry populated from the static pool
// table, with all reserves zeroed; the caller is expected to follow this
// with a bootstrap RPC call before starting the pipeline.
func LoadDefaultPoolTable() (*Registry, error) {
	reg := New()
	for _, spec := range defaultPoolTable {
		from, err := models.ParseAssetID(spec.from)
		if err != nil {
			return nil, err
		}
		to, err := models.ParseAssetID(spec.to)
		if err != nil {
			return nil, err
		}
		if _, err := reg.Register(models.NewPool(spec.name, from, to, spec.feeRate)); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
