package claim

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"regexp"

	"attestbot/internal/faults"
)

// A claim payload links a ledger address to a steem profile. Public claims
// carry the plaintext profile plus a salted user id; private claims carry only
// per-field commitments, with values and blinding factors kept client-side.

const (
	fieldUsername   = "steem_username"
	fieldReputation = "reputation"
)

type Payload struct {
	Address string                 `json:"address"`
	Profile map[string]interface{} `json:"profile"`
}

// SrcProfile maps field name to [value, blinding] pairs, handed to the user's
// wallet so they can reopen the commitments later.
type SrcProfile map[string][]interface{}

var addressRe = regexp.MustCompile(`^[A-Z2-7]{32}$`)

func IsValidAddress(address string) bool {
	return addressRe.MatchString(address)
}

// HashBase64 is the ledger's canonical object hash: sha256 over a
// deterministic JSON encoding, base64-encoded.
func HashBase64(value interface{}) string {
	raw, err := json.Marshal(value)
	if err != nil {
		panic(err)
	}
	sum := sha256.Sum256(raw)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func generateBlinding() string {
	var b [12]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(b[:])
}

func userID(profile map[string]interface{}, salt string) string {
	return HashBase64([]interface{}{profile, salt})
}

// Build constructs the payload to be posted. For private visibility it returns
// the source profile alongside; for public visibility the source profile is nil.
// The construction is a pure function of its arguments (modulo blinding).
func Build(address string, username string, reputation int, postPublicly bool, salt string) (*Payload, SrcProfile) {
	profile := map[string]interface{}{
		fieldUsername:   username,
		fieldReputation: reputation,
	}

	if postPublicly {
		profile["user_id"] = userID(profile, salt)
		return &Payload{Address: address, Profile: profile}, nil
	}

	hidden := make(map[string]interface{}, len(profile))
	src := make(SrcProfile, len(profile))
	for field, value := range profile {
		blinding := generateBlinding()
		hidden[field] = HashBase64([]interface{}{value, blinding})
		src[field] = []interface{}{value, blinding}
	}

	public := map[string]interface{}{
		"profile_hash": HashBase64(hidden),
		"user_id":      userID(profile, salt),
	}
	return &Payload{Address: address, Profile: public}, src
}

func (p *Payload) Marshal() []byte {
	raw, err := json.Marshal(p)
	if err != nil {
		panic(err)
	}
	return raw
}

func (p *Payload) Hash() string {
	return HashBase64(p)
}

func (p *Payload) UserID() string {
	id, _ := p.Profile["user_id"].(string)
	return id
}

// PrivateProfileBlob packages the posted unit, payload hash and source profile
// for the user's wallet, base64-encoded.
func PrivateProfileBlob(unit string, payload *Payload, src SrcProfile) string {
	blob := map[string]interface{}{
		"unit":         unit,
		"payload_hash": payload.Hash(),
		"src_profile":  src,
	}
	raw, err := json.Marshal(blob)
	if err != nil {
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(raw)
}

// Parse validates a stored payload at the trust boundary. A malformed payload
// or a missing opaque user id means corrupted attribution data.
func Parse(raw string) (*Payload, error) {
	var payload Payload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, faults.Invariant("malformed claim payload: %v", err)
	}
	if payload.Address == "" {
		return nil, faults.Invariant("claim payload has no address")
	}
	if payload.Profile == nil {
		return nil, faults.Invariant("claim payload has no profile")
	}
	if payload.UserID() == "" {
		return nil, faults.Invariant("claim payload has no user_id")
	}
	return &payload, nil
}
