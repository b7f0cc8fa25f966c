package api

import "strings"

// Param describes one positional parameter of an RPC method.
type Param struct {
	Type     string
	Desc     string
	Optional bool
	Default  interface{}
}

// Returns describes the result of an RPC method.
type Returns struct {
	Type string
	Desc string
}

// Method is the declarative descriptor of one RPC method. Documentation
// tooling reads these; TestSchemaMatchesMethods keeps them in step with the
// Go method tables.
type Method struct {
	Desc    string
	Params  []Param
	Returns Returns
}

// Wire type names used in descriptors.
const (
	TypeAddress     = "Address"
	TypeArray       = "Array"
	TypeBlockNumber = "BlockNumber"
	TypeBoolean     = "Boolean"
	TypeData        = "Data"
	TypeHash        = "Hash"
	TypeObject      = "Object"
	TypeQuantity    = "Quantity"
	TypeString      = "String"
)

func p(typ, desc string) Param {
	return Param{Type: typ, Desc: desc}
}

func opt(typ, desc string, def interface{}) Param {
	return Param{Type: typ, Desc: desc, Optional: true, Default: def}
}

func ret(typ, desc string) Returns {
	return Returns{Type: typ, Desc: desc}
}

var (
	pBlock    = opt(TypeBlockNumber, "Block number or tag.", "latest")
	pAddress  = p(TypeAddress, "Account address.")
	pPassword = p(TypeString, "Account password.")
	pOptions  = p(TypeObject, "Transaction options (from, to, gas, gasPrice, value, data, nonce, condition).")
	pFilterID = p(TypeQuantity, "Filter id.")
	pTxHash   = p(TypeHash, "Transaction hash.")
	pVault    = p(TypeString, "Vault name.")
	pTraces   = opt(TypeArray, "Trace kinds: trace, vmTrace, stateDiff.", []string{"trace"})
	pRequest  = p(TypeQuantity, "Signer request id.")
)

// Schema is the method catalogue, group -> method -> descriptor.
var Schema = map[string]map[string]Method{
	"eth": {
		"accounts":    {Desc: "Addresses owned by the client.", Returns: ret(TypeArray, "Addresses.")},
		"blockNumber": {Desc: "Number of the most recent block.", Returns: ret(TypeQuantity, "Block number.")},
		"call": {
			Desc:    "Executes a message call without creating a transaction.",
			Params:  []Param{pOptions, pBlock},
			Returns: ret(TypeData, "Return data."),
		},
		"chainId":  {Desc: "EIP-155 chain id.", Returns: ret(TypeQuantity, "Chain id.")},
		"coinbase": {Desc: "Mining reward address.", Returns: ret(TypeAddress, "Coinbase address.")},
		"estimateGas": {
			Desc:    "Estimates the gas a transaction would use.",
			Params:  []Param{pOptions},
			Returns: ret(TypeQuantity, "Gas estimate."),
		},
		"gasPrice": {Desc: "Current gas price in wei.", Returns: ret(TypeQuantity, "Gas price.")},
		"getBalance": {
			Desc:    "Balance of an account.",
			Params:  []Param{pAddress, pBlock},
			Returns: ret(TypeQuantity, "Balance in wei."),
		},
		"getBlockByHash": {
			Desc:    "Block by hash.",
			Params:  []Param{p(TypeHash, "Block hash."), opt(TypeBoolean, "Return full transactions.", false)},
			Returns: ret(TypeObject, "Block, or null."),
		},
		"getBlockByNumber": {
			Desc:    "Block by number.",
			Params:  []Param{pBlock, opt(TypeBoolean, "Return full transactions.", false)},
			Returns: ret(TypeObject, "Block, or null."),
		},
		"getBlockTransactionCountByHash": {
			Desc:    "Number of transactions in a block, by hash.",
			Params:  []Param{p(TypeHash, "Block hash.")},
			Returns: ret(TypeQuantity, "Transaction count."),
		},
		"getBlockTransactionCountByNumber": {
			Desc:    "Number of transactions in a block, by number.",
			Params:  []Param{pBlock},
			Returns: ret(TypeQuantity, "Transaction count."),
		},
		"getCode": {
			Desc:    "Code at an address.",
			Params:  []Param{pAddress, pBlock},
			Returns: ret(TypeData, "Bytecode, 0x when empty."),
		},
		"getFilterChanges": {
			Desc:    "Entries added to a filter since the last poll.",
			Params:  []Param{pFilterID},
			Returns: ret(TypeArray, "Logs or hashes."),
		},
		"getFilterLogs": {
			Desc:    "All logs matching a filter.",
			Params:  []Param{pFilterID},
			Returns: ret(TypeArray, "Logs."),
		},
		"getLogs": {
			Desc:    "Logs matching a filter object.",
			Params:  []Param{p(TypeObject, "Filter (fromBlock, toBlock, address, topics, limit).")},
			Returns: ret(TypeArray, "Logs."),
		},
		"getStorageAt": {
			Desc:    "Value of a storage slot.",
			Params:  []Param{pAddress, p(TypeQuantity, "Slot index."), pBlock},
			Returns: ret(TypeData, "Slot value."),
		},
		"getTransactionByBlockHashAndIndex": {
			Desc:    "Transaction by block hash and index.",
			Params:  []Param{p(TypeHash, "Block hash."), p(TypeQuantity, "Transaction index.")},
			Returns: ret(TypeObject, "Transaction, or null."),
		},
		"getTransactionByBlockNumberAndIndex": {
			Desc:    "Transaction by block number and index.",
			Params:  []Param{pBlock, p(TypeQuantity, "Transaction index.")},
			Returns: ret(TypeObject, "Transaction, or null."),
		},
		"getTransactionByHash": {
			Desc:    "Transaction by hash.",
			Params:  []Param{pTxHash},
			Returns: ret(TypeObject, "Transaction, or null."),
		},
		"getTransactionCount": {
			Desc:    "Number of transactions sent from an address.",
			Params:  []Param{pAddress, pBlock},
			Returns: ret(TypeQuantity, "Nonce."),
		},
		"getTransactionReceipt": {
			Desc:    "Receipt of a mined transaction.",
			Params:  []Param{pTxHash},
			Returns: ret(TypeObject, "Receipt, or null while pending."),
		},
		"getUncleByBlockHashAndIndex": {
			Desc:    "Uncle by block hash and index.",
			Params:  []Param{p(TypeHash, "Block hash."), p(TypeQuantity, "Uncle index.")},
			Returns: ret(TypeObject, "Uncle block, or null."),
		},
		"getUncleByBlockNumberAndIndex": {
			Desc:    "Uncle by block number and index.",
			Params:  []Param{pBlock, p(TypeQuantity, "Uncle index.")},
			Returns: ret(TypeObject, "Uncle block, or null."),
		},
		"getUncleCountByBlockHash": {
			Desc:    "Number of uncles in a block, by hash.",
			Params:  []Param{p(TypeHash, "Block hash.")},
			Returns: ret(TypeQuantity, "Uncle count."),
		},
		"getUncleCountByBlockNumber": {
			Desc:    "Number of uncles in a block, by number.",
			Params:  []Param{pBlock},
			Returns: ret(TypeQuantity, "Uncle count."),
		},
		"hashrate": {Desc: "Hashes per second the node is mining with.", Returns: ret(TypeQuantity, "Hashrate.")},
		"mining":   {Desc: "Whether the node is mining.", Returns: ret(TypeBoolean, "true when mining.")},
		"newBlockFilter": {
			Desc:    "Creates a filter notified of new blocks.",
			Returns: ret(TypeQuantity, "Filter id."),
		},
		"newFilter": {
			Desc:    "Creates a log filter.",
			Params:  []Param{p(TypeObject, "Filter (fromBlock, toBlock, address, topics, limit).")},
			Returns: ret(TypeQuantity, "Filter id."),
		},
		"newPendingTransactionFilter": {
			Desc:    "Creates a filter notified of pending transactions.",
			Returns: ret(TypeQuantity, "Filter id."),
		},
		"protocolVersion": {Desc: "Ethereum protocol version.", Returns: ret(TypeString, "Version.")},
		"sendRawTransaction": {
			Desc:    "Submits a signed transaction.",
			Params:  []Param{p(TypeData, "Signed RLP transaction.")},
			Returns: ret(TypeHash, "Transaction hash."),
		},
		"sendTransaction": {
			Desc:    "Signs with the node keystore and submits.",
			Params:  []Param{pOptions},
			Returns: ret(TypeHash, "Transaction hash."),
		},
		"sign": {
			Desc:    "Signs data with an unlocked account.",
			Params:  []Param{pAddress, p(TypeData, "Data to sign.")},
			Returns: ret(TypeData, "Signature."),
		},
		"syncing": {Desc: "Sync progress.", Returns: ret(TypeObject, "Sync status, or false.")},
		"uninstallFilter": {
			Desc:    "Removes a filter.",
			Params:  []Param{pFilterID},
			Returns: ret(TypeBoolean, "true when removed."),
		},
	},
	"net": {
		"listening": {Desc: "Whether the node accepts peers.", Returns: ret(TypeBoolean, "Listening.")},
		"peerCount": {Desc: "Number of connected peers.", Returns: ret(TypeQuantity, "Peer count.")},
		"version":   {Desc: "Network id.", Returns: ret(TypeString, "Network id.")},
	},
	"web3": {
		"clientVersion": {Desc: "Node software version.", Returns: ret(TypeString, "Version string.")},
		"sha3": {
			Desc:    "Keccak-256 of the given data.",
			Params:  []Param{p(TypeData, "Data to hash.")},
			Returns: ret(TypeHash, "Hash."),
		},
	},
	"personal": {
		"listAccounts": {Desc: "Accounts in the node keystore.", Returns: ret(TypeArray, "Addresses.")},
		"newAccount": {
			Desc:    "Creates an account in the node keystore.",
			Params:  []Param{pPassword},
			Returns: ret(TypeAddress, "New address."),
		},
		"sendTransaction": {
			Desc:    "Unlocks, signs and submits in one call.",
			Params:  []Param{pOptions, pPassword},
			Returns: ret(TypeHash, "Transaction hash."),
		},
		"signAndSendTransaction": {
			Desc:    "Signs with the given password and submits.",
			Params:  []Param{pOptions, pPassword},
			Returns: ret(TypeHash, "Transaction hash."),
		},
		"unlockAccount": {
			Desc:    "Unlocks an account for a period.",
			Params:  []Param{pAddress, pPassword, opt(TypeQuantity, "Seconds to stay unlocked.", 1)},
			Returns: ret(TypeBoolean, "true when unlocked."),
		},
	},
	"parity": {
		"accountsInfo":    {Desc: "Names and meta of local accounts.", Returns: ret(TypeObject, "Address -> info.")},
		"allAccountsInfo": {Desc: "Names and meta of all known accounts.", Returns: ret(TypeObject, "Address -> info.")},
		"changePassword": {
			Desc:    "Changes an account password.",
			Params:  []Param{pAddress, pPassword, p(TypeString, "New password.")},
			Returns: ret(TypeBoolean, "true on success."),
		},
		"changeVault": {
			Desc:    "Moves an account into a vault.",
			Params:  []Param{pAddress, pVault},
			Returns: ret(TypeBoolean, "true on success."),
		},
		"chainStatus": {Desc: "Ancient block import status.", Returns: ret(TypeObject, "Chain status.")},
		"checkRequest": {
			Desc:    "Result of a posted transaction request.",
			Params:  []Param{pRequest},
			Returns: ret(TypeHash, "Transaction hash, or null while pending."),
		},
		"closeVault": {
			Desc:    "Closes a vault.",
			Params:  []Param{pVault},
			Returns: ret(TypeBoolean, "true on success."),
		},
		"defaultAccount":       {Desc: "Default account for transactions.", Returns: ret(TypeAddress, "Address.")},
		"enode":                {Desc: "Node enode URL.", Returns: ret(TypeString, "enode://...")},
		"extraData":            {Desc: "Extra data included in mined blocks.", Returns: ret(TypeData, "Extra data.")},
		"gasFloorTarget":       {Desc: "Target gas floor for mining.", Returns: ret(TypeQuantity, "Gas floor.")},
		"generateSecretPhrase": {Desc: "Generates a recovery phrase.", Returns: ret(TypeString, "Phrase.")},
		"getVaultMeta": {
			Desc:    "Vault metadata.",
			Params:  []Param{pVault},
			Returns: ret(TypeObject, "Metadata."),
		},
		"hardwareAccountsInfo": {Desc: "Attached hardware wallets.", Returns: ret(TypeObject, "Address -> info.")},
		"killAccount": {
			Desc:    "Deletes an account.",
			Params:  []Param{pAddress, pPassword},
			Returns: ret(TypeBoolean, "true when deleted."),
		},
		"listOpenedVaults":  {Desc: "Names of open vaults.", Returns: ret(TypeArray, "Vault names.")},
		"listVaults":        {Desc: "Names of all vaults.", Returns: ret(TypeArray, "Vault names.")},
		"localTransactions": {Desc: "Locally submitted transactions.", Returns: ret(TypeObject, "Hash -> status.")},
		"minGasPrice":       {Desc: "Minimal accepted gas price.", Returns: ret(TypeQuantity, "Gas price.")},
		"mode":              {Desc: "Node operating mode.", Returns: ret(TypeString, "active, passive, dark or offline.")},
		"netChain":          {Desc: "Chain name.", Returns: ret(TypeString, "Chain name.")},
		"netPeers":          {Desc: "Peer details.", Returns: ret(TypeObject, "Peers.")},
		"newAccountFromPhrase": {
			Desc:    "Creates an account from a recovery phrase.",
			Params:  []Param{p(TypeString, "Recovery phrase."), pPassword},
			Returns: ret(TypeAddress, "New address."),
		},
		"newAccountFromSecret": {
			Desc:    "Imports a raw private key.",
			Params:  []Param{p(TypeData, "32 byte secret."), pPassword},
			Returns: ret(TypeAddress, "New address."),
		},
		"newAccountFromWallet": {
			Desc:    "Imports a JSON wallet.",
			Params:  []Param{p(TypeString, "Wallet JSON."), pPassword},
			Returns: ret(TypeAddress, "New address."),
		},
		"newVault": {
			Desc:    "Creates a vault.",
			Params:  []Param{pVault, pPassword},
			Returns: ret(TypeBoolean, "true on success."),
		},
		"nextNonce": {
			Desc:    "Next nonce including queued transactions.",
			Params:  []Param{pAddress},
			Returns: ret(TypeQuantity, "Nonce."),
		},
		"nodeName": {Desc: "Node name.", Returns: ret(TypeString, "Name.")},
		"openVault": {
			Desc:    "Opens a vault.",
			Params:  []Param{pVault, pPassword},
			Returns: ret(TypeBoolean, "true on success."),
		},
		"pendingTransactions": {Desc: "Transactions in the queue.", Returns: ret(TypeArray, "Transactions.")},
		"phraseToAddress": {
			Desc:    "Address a recovery phrase derives to.",
			Params:  []Param{p(TypeString, "Recovery phrase.")},
			Returns: ret(TypeAddress, "Address."),
		},
		"postTransaction": {
			Desc:    "Queues a transaction for signer confirmation.",
			Params:  []Param{pOptions},
			Returns: ret(TypeQuantity, "Request id."),
		},
		"setAccountMeta": {
			Desc:    "Sets account metadata.",
			Params:  []Param{pAddress, p(TypeObject, "Metadata.")},
			Returns: ret(TypeBoolean, "true on success."),
		},
		"setAccountName": {
			Desc:    "Sets account name.",
			Params:  []Param{pAddress, p(TypeString, "Name.")},
			Returns: ret(TypeBoolean, "true on success."),
		},
		"setMode": {
			Desc:    "Sets the node operating mode.",
			Params:  []Param{p(TypeString, "active, passive, dark or offline.")},
			Returns: ret(TypeBoolean, "true on success."),
		},
		"setVaultMeta": {
			Desc:    "Sets vault metadata.",
			Params:  []Param{pVault, p(TypeObject, "Metadata.")},
			Returns: ret(TypeBoolean, "true on success."),
		},
		"testPassword": {
			Desc:    "Checks an account password.",
			Params:  []Param{pAddress, pPassword},
			Returns: ret(TypeBoolean, "true when the password matches."),
		},
	},
	"signer": {
		"confirmRequest": {
			Desc:    "Confirms a queued request.",
			Params:  []Param{pRequest, opt(TypeObject, "Overrides for gas and gasPrice.", map[string]interface{}{}), pPassword},
			Returns: ret(TypeHash, "Transaction hash."),
		},
		"confirmRequestRaw": {
			Desc:    "Confirms a request with a pre-signed payload.",
			Params:  []Param{pRequest, p(TypeData, "Signed payload.")},
			Returns: ret(TypeHash, "Transaction hash."),
		},
		"generateAuthorizationToken": {Desc: "New signer UI token.", Returns: ret(TypeString, "Token.")},
		"rejectRequest": {
			Desc:    "Rejects a queued request.",
			Params:  []Param{pRequest},
			Returns: ret(TypeBoolean, "true when rejected."),
		},
		"requestsToConfirm": {Desc: "Requests waiting for confirmation.", Returns: ret(TypeArray, "Requests.")},
		"signerEnabled":     {Desc: "Whether the signer is enabled.", Returns: ret(TypeBoolean, "Enabled.")},
	},
	"trace": {
		"block": {
			Desc:    "Traces of every transaction in a block.",
			Params:  []Param{pBlock},
			Returns: ret(TypeArray, "Traces."),
		},
		"call": {
			Desc:    "Traces a message call.",
			Params:  []Param{pOptions, pTraces, pBlock},
			Returns: ret(TypeObject, "Replay result."),
		},
		"filter": {
			Desc:    "Traces matching a filter.",
			Params:  []Param{p(TypeObject, "Trace filter (fromBlock, toBlock, fromAddress, toAddress, after, count).")},
			Returns: ret(TypeArray, "Traces."),
		},
		"get": {
			Desc:    "Trace at a position inside a transaction.",
			Params:  []Param{pTxHash, p(TypeArray, "Trace address indices.")},
			Returns: ret(TypeObject, "Trace."),
		},
		"rawTransaction": {
			Desc:    "Traces a signed transaction without submitting it.",
			Params:  []Param{p(TypeData, "Signed RLP transaction."), pTraces},
			Returns: ret(TypeObject, "Replay result."),
		},
		"replayTransaction": {
			Desc:    "Replays a mined transaction.",
			Params:  []Param{pTxHash, pTraces},
			Returns: ret(TypeObject, "Replay result."),
		},
		"transaction": {
			Desc:    "Traces of a transaction.",
			Params:  []Param{pTxHash},
			Returns: ret(TypeArray, "Traces."),
		},
	},
	"db": {
		"getHex": {
			Desc:    "Reads binary data from the node store.",
			Params:  []Param{p(TypeString, "Database name."), p(TypeString, "Key.")},
			Returns: ret(TypeData, "Value."),
		},
		"getString": {
			Desc:    "Reads a string from the node store.",
			Params:  []Param{p(TypeString, "Database name."), p(TypeString, "Key.")},
			Returns: ret(TypeString, "Value."),
		},
		"putHex": {
			Desc:    "Stores binary data.",
			Params:  []Param{p(TypeString, "Database name."), p(TypeString, "Key."), p(TypeData, "Value.")},
			Returns: ret(TypeBoolean, "true when stored."),
		},
		"putString": {
			Desc:    "Stores a string.",
			Params:  []Param{p(TypeString, "Database name."), p(TypeString, "Key."), p(TypeString, "Value.")},
			Returns: ret(TypeBoolean, "true when stored."),
		},
	},
	"shh": {
		"version":    {Desc: "Whisper protocol version.", Returns: ret(TypeString, "Version.")},
		"newKeyPair": {Desc: "Generates an identity.", Returns: ret(TypeString, "Key pair id.")},
		"hasKeyPair": {
			Desc:    "Whether the node holds an identity.",
			Params:  []Param{p(TypeString, "Key pair id.")},
			Returns: ret(TypeBoolean, "true when present."),
		},
		"deleteKey": {
			Desc:    "Deletes an identity.",
			Params:  []Param{p(TypeString, "Key id.")},
			Returns: ret(TypeBoolean, "true when deleted."),
		},
		"post": {
			Desc:    "Posts a message.",
			Params:  []Param{p(TypeObject, "Message.")},
			Returns: ret(TypeBoolean, "true when posted."),
		},
		"newMessageFilter": {
			Desc:    "Creates a message filter.",
			Params:  []Param{p(TypeObject, "Filter.")},
			Returns: ret(TypeString, "Filter id."),
		},
		"getFilterMessages": {
			Desc:    "Messages received by a filter since the last poll.",
			Params:  []Param{p(TypeString, "Filter id.")},
			Returns: ret(TypeArray, "Messages."),
		},
		"deleteMessageFilter": {
			Desc:    "Removes a message filter.",
			Params:  []Param{p(TypeString, "Filter id.")},
			Returns: ret(TypeBoolean, "true when removed."),
		},
	},
	"ethcore": {
		"netChain":          {Desc: "Chain name.", Returns: ret(TypeString, "Chain name.")},
		"netPeers":          {Desc: "Peer details.", Returns: ret(TypeObject, "Peers.")},
		"nodeName":          {Desc: "Node name.", Returns: ret(TypeString, "Name.")},
		"extraData":         {Desc: "Extra data included in mined blocks.", Returns: ret(TypeData, "Extra data.")},
		"gasFloorTarget":    {Desc: "Target gas floor for mining.", Returns: ret(TypeQuantity, "Gas floor.")},
		"minGasPrice":       {Desc: "Minimal accepted gas price.", Returns: ret(TypeQuantity, "Gas price.")},
		"transactionsLimit": {Desc: "Transaction queue limit.", Returns: ret(TypeQuantity, "Limit.")},
	},
}

// GoMethodName maps an RPC method name to its Go method: the first letter is
// upper-cased and a trailing "Id" becomes "ID".
func GoMethodName(method string) string {
	if method == "" {
		return ""
	}
	name := strings.ToUpper(method[:1]) + method[1:]
	if strings.HasSuffix(name, "Id") {
		name = strings.TrimSuffix(name, "Id") + "ID"
	}
	return name
}
