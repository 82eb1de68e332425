package rpc

import "encoding/json"

type Request struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error,omitempty"`
}

type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return e.Message
}

// CallMsg is the read-only eth_call payload.
type CallMsg struct {
	From string `json:"from,omitempty"`
	To   string `json:"to"`
	Data string `json:"data"`
}

// TxParams is the eth_sendTransaction payload handed to the wallet endpoint.
// Value is a hex-encoded base-unit amount; the wallet fills in gas and nonce.
type TxParams struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Value string `json:"value,omitempty"`
	Data  string `json:"data,omitempty"`
}

type TransactionReceipt struct {
	TransactionHash   string  `json:"transactionHash"`
	BlockNumber       string  `json:"blockNumber"`
	TransactionIndex  string  `json:"transactionIndex"`
	Status            string  `json:"status"`
	From              string  `json:"from"`
	To                string  `json:"to"`
	GasUsed           string  `json:"gasUsed"`
	EffectiveGasPrice string  `json:"effectiveGasPrice"`
	Logs              []*Log  `json:"logs"`
}

// Succeeded reports whether the transaction executed without reverting.
func (r *TransactionReceipt) Succeeded() bool {
	return r.Status == "0x1"
}

type Log struct {
	Address  string   `json:"address"`
	Topics   []string `json:"topics"`
	Data     string   `json:"data"`
	LogIndex string   `json:"logIndex"`
	Removed  bool     `json:"removed"`
}

// ChainDescriptor is the wallet_addEthereumChain payload, built from the
// configured chain descriptor.
type ChainDescriptor struct {
	ChainID   string   `json:"chainId"`
	ChainName string   `json:"chainName"`
	Native    Currency `json:"nativeCurrency"`
	RPCURLs   []string `json:"rpcUrls"`
	Explorers []string `json:"blockExplorerUrls,omitempty"`
}

type Currency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}
