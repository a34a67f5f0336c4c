package registry

// delegationRegistryABI is the deployed registry contract interface. The
// contract escrows the delegated native amount at creation time and enforces
// every restriction on-chain; this client never re-validates locally.
const delegationRegistryABI = `[
	{"type":"event","name":"DelegationCreated","inputs":[
		{"name":"delegationId","type":"bytes32","indexed":true},
		{"name":"from","type":"address","indexed":true},
		{"name":"to","type":"address","indexed":true},
		{"name":"amount","type":"uint256","indexed":false},
		{"name":"expiresAt","type":"uint256","indexed":false}]},
	{"type":"event","name":"DelegationUsed","inputs":[
		{"name":"delegationId","type":"bytes32","indexed":true},
		{"name":"user","type":"address","indexed":true},
		{"name":"amount","type":"uint256","indexed":false},
		{"name":"recipient","type":"address","indexed":false}]},
	{"type":"event","name":"DelegationRevoked","inputs":[
		{"name":"delegationId","type":"bytes32","indexed":true},
		{"name":"from","type":"address","indexed":true}]},
	{"type":"function","name":"createDelegation","stateMutability":"payable","inputs":[
		{"name":"to","type":"address"},
		{"name":"smartAccount","type":"address"},
		{"name":"amount","type":"uint256"},
		{"name":"durationSeconds","type":"uint256"},
		{"name":"maxUses","type":"uint256"},
		{"name":"allowedActions","type":"string[]"}],
		"outputs":[{"name":"","type":"bytes32"}]},
	{"type":"function","name":"useDelegation","stateMutability":"nonpayable","inputs":[
		{"name":"delegationId","type":"bytes32"},
		{"name":"amount","type":"uint256"},
		{"name":"recipient","type":"address"}],"outputs":[]},
	{"type":"function","name":"revokeDelegation","stateMutability":"nonpayable","inputs":[
		{"name":"delegationId","type":"bytes32"}],"outputs":[]},
	{"type":"function","name":"getDelegationForUser","stateMutability":"view","inputs":[
		{"name":"delegationId","type":"bytes32"},
		{"name":"userAddress","type":"address"}],
		"outputs":[
		{"name":"amount","type":"uint256"},
		{"name":"remainingAmount","type":"uint256"},
		{"name":"expiresAt","type":"uint256"},
		{"name":"maxUses","type":"uint256"},
		{"name":"usedCount","type":"uint256"},
		{"name":"isActive","type":"bool"},
		{"name":"smartAccount","type":"address"}]},
	{"type":"function","name":"getUserDelegations","stateMutability":"view","inputs":[
		{"name":"user","type":"address"}],
		"outputs":[{"name":"","type":"bytes32[]"}]},
	{"type":"function","name":"getDelegation","stateMutability":"view","inputs":[
		{"name":"delegationId","type":"bytes32"}],
		"outputs":[
		{"name":"from","type":"address"},
		{"name":"to","type":"address"},
		{"name":"smartAccount","type":"address"},
		{"name":"amount","type":"uint256"},
		{"name":"remainingAmount","type":"uint256"},
		{"name":"expiresAt","type":"uint256"},
		{"name":"maxUses","type":"uint256"},
		{"name":"usedCount","type":"uint256"},
		{"name":"isActive","type":"bool"}]},
	{"type":"function","name":"totalDelegations","stateMutability":"view","inputs":[],
		"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getContractBalance","stateMutability":"view","inputs":[],
		"outputs":[{"name":"","type":"uint256"}]}
]`
