package ledger

// Payment is one output of a detected unit paying to one of our receiving
// addresses. Asset "" is the native asset.
type Payment struct {
	ReceivingAddress string `json:"receiving_address"`
	Amount           int64  `json:"amount"`
	Asset            string `json:"asset"`
	Unit             string `json:"unit"`
}

// FundingSource is one funding input of a unit: the address that signed the
// source transfer, the unit it came from, and the ledger's total-order proxy
// at which the source was observed.
type FundingSource struct {
	Address        string `json:"address"`
	SrcUnit        string `json:"src_unit"`
	MainChainIndex int64  `json:"main_chain_index"`
}

type Output struct {
	Address string `json:"address"`
	Amount  int64  `json:"amount"`
}

// SignedMessageProof is a validated signed-message blob: the signed text and
// the addresses that signed it.
type SignedMessageProof struct {
	SignedMessage string   `json:"signed_message"`
	Authors       []string `json:"authors"`
}

// Gateway is the narrow interface to the wallet/ledger collaborator. Address
// issuance, signing, composition and broadcast all live on the other side.
type Gateway interface {
	IssuePaymentAddress() (string, error)

	// ComposeAndBroadcastAttestation posts the attestation payload from the
	// attestor address and returns the published unit reference.
	ComposeAndBroadcastAttestation(attestorAddress string, payloadHash string, payload []byte) (string, error)

	// OutputsToAddresses returns outputs in the given units that pay to any of
	// the given addresses, excluding units authored by our own wallet.
	OutputsToAddresses(units []string, addresses []string) ([]Payment, error)

	// PaymentAuthors returns the signing authors of a unit.
	PaymentAuthors(unit string) ([]string, error)

	// AncestorFundingSources returns the native-asset transfer inputs funding
	// the given units.
	AncestorFundingSources(units []string) ([]FundingSource, error)

	ReadBalance(address string) (int64, error)

	// SendPayment pays the outputs from the given addresses and returns the
	// unit reference.
	SendPayment(outputs []Output, payingAddresses []string) (string, error)

	// SendAll moves the entire spendable balance of the paying addresses to
	// one destination.
	SendAll(toAddress string, payingAddresses []string) (string, error)

	// SpendableAddresses filters the given addresses down to those with
	// stable unspent native outputs and no pending address-definition change,
	// capped at limit.
	SpendableAddresses(addresses []string, limit int) ([]string, error)

	// ValidateSignedMessage checks signatures of a signed-message blob.
	ValidateSignedMessage(raw []byte) (*SignedMessageProof, error)
}
