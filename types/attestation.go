package types

// AttestationPending is the attestation placeholder returned until the burn is signed.
const AttestationPending = "PENDING"

// AttestationResponse is the response received from Circle's iris api
// Example: https://iris-api-sandbox.circle.com/v1/messages/6/0x912f22a13e9ccb979b621500f6952b2afd6e75be7eadaed93fc2625fe11c52a2
type AttestationResponse struct {
	Messages []AttestedMessage `json:"messages"`
}

type AttestedMessage struct {
	Message     string `json:"message"`
	Attestation string `json:"attestation"`
	EventNonce  string `json:"eventNonce"`
}

// Attestation is a decoded message and its signature, ready to be minted.
type Attestation struct {
	Message     []byte
	Attestation []byte
	Nonce       uint64
}
