package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// RPCGateway talks JSON-RPC to a companion headless wallet daemon, which owns
// keys, composes and broadcasts units, and validates signatures.
type RPCGateway struct {
	url    string
	client *http.Client
}

func NewRPCGateway(url string) *RPCGateway {
	return &RPCGateway{
		url:    url,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

type rpcRequest struct {
	Method string      `json:"method"`
	Params interface{} `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

func (g *RPCGateway) call(method string, params interface{}, result interface{}) error {
	body, err := json.Marshal(rpcRequest{Method: method, Params: params})
	if err != nil {
		return err
	}

	resp, err := g.client.Post(g.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("wallet rpc %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wallet rpc %s: status %d", method, resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("wallet rpc %s: %w", method, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("wallet rpc %s: %s", method, *rpcResp.Error)
	}
	if result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("wallet rpc %s: %w", method, err)
		}
	}
	return nil
}

func (g *RPCGateway) IssuePaymentAddress() (string, error) {
	var address string
	err := g.call("issue_next_main_address", nil, &address)
	return address, err
}

func (g *RPCGateway) ComposeAndBroadcastAttestation(attestorAddress string, payloadHash string, payload []byte) (string, error) {
	var unit string
	err := g.call("post_attestation", map[string]interface{}{
		"attestor_address": attestorAddress,
		"payload_hash":     payloadHash,
		"payload":          json.RawMessage(payload),
	}, &unit)
	return unit, err
}

func (g *RPCGateway) OutputsToAddresses(units []string, addresses []string) ([]Payment, error) {
	var payments []Payment
	err := g.call("outputs_to_addresses", map[string]interface{}{
		"units":     units,
		"addresses": addresses,
	}, &payments)
	return payments, err
}

func (g *RPCGateway) PaymentAuthors(unit string) ([]string, error) {
	var authors []string
	err := g.call("unit_authors", map[string]interface{}{"unit": unit}, &authors)
	return authors, err
}

func (g *RPCGateway) AncestorFundingSources(units []string) ([]FundingSource, error) {
	var sources []FundingSource
	err := g.call("funding_sources", map[string]interface{}{"units": units}, &sources)
	return sources, err
}

func (g *RPCGateway) ReadBalance(address string) (int64, error) {
	var balance int64
	err := g.call("read_balance", map[string]interface{}{"address": address}, &balance)
	return balance, err
}

func (g *RPCGateway) SendPayment(outputs []Output, payingAddresses []string) (string, error) {
	var unit string
	err := g.call("send_payment", map[string]interface{}{
		"outputs":          outputs,
		"paying_addresses": payingAddresses,
	}, &unit)
	return unit, err
}

func (g *RPCGateway) SendAll(toAddress string, payingAddresses []string) (string, error) {
	var unit string
	err := g.call("send_all", map[string]interface{}{
		"to_address":       toAddress,
		"paying_addresses": payingAddresses,
	}, &unit)
	return unit, err
}

func (g *RPCGateway) SpendableAddresses(addresses []string, limit int) ([]string, error) {
	var spendable []string
	err := g.call("spendable_addresses", map[string]interface{}{
		"addresses": addresses,
		"limit":     limit,
	}, &spendable)
	return spendable, err
}

// Issue deploys a vesting smart contract for the beneficiary and shares its
// definition with the beneficiary's device.
func (g *RPCGateway) Issue(userAddress, deviceAddress string, vestingDate time.Time) (string, error) {
	var contractAddress string
	err := g.call("create_vesting_contract", map[string]interface{}{
		"user_address":   userAddress,
		"device_address": deviceAddress,
		"vesting_date":   vestingDate.UTC().Format(time.RFC3339),
	}, &contractAddress)
	return contractAddress, err
}

func (g *RPCGateway) ValidateSignedMessage(raw []byte) (*SignedMessageProof, error) {
	var proof SignedMessageProof
	err := g.call("validate_signed_message", map[string]interface{}{
		"signed_message": json.RawMessage(raw),
	}, &proof)
	if err != nil {
		return nil, err
	}
	return &proof, nil
}
