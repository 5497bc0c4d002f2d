package solana

import (
	"crypto/sha256"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/strangelove-ventures/cctp-payroll/types"
)

var (
	depositForBurnDiscriminator = discriminator("deposit_for_burn")
	receiveMessageDiscriminator = discriminator("receive_message")
)

// discriminator returns the anchor instruction selector for name.
func discriminator(name string) []byte {
	sum := sha256.Sum256([]byte("global:" + name))
	return sum[:8]
}

// DepositForBurnParams are the arguments of the TokenMessengerMinter deposit_for_burn instruction.
type DepositForBurnParams struct {
	Amount            uint64
	DestinationDomain uint32
	MintRecipient     solana.PublicKey
}

// ReceiveMessageParams are the arguments of the MessageTransmitter receive_message instruction.
type ReceiveMessageParams struct {
	Message     []byte
	Attestation []byte
}

func instructionData(selector []byte, params any) ([]byte, error) {
	bz, err := bin.MarshalBorsh(params)
	if err != nil {
		return nil, err
	}
	return append(append([]byte{}, selector...), bz...), nil
}

// NewDepositForBurnInstruction builds the burn of the fiat token held by owner.
func (s *Solana) NewDepositForBurnInstruction(
	owner solana.PublicKey,
	messageSentEventData solana.PublicKey,
	params DepositForBurnParams,
) (solana.Instruction, error) {
	accounts, err := s.GetDepositForBurnAccounts(owner, messageSentEventData, params.DestinationDomain)
	if err != nil {
		return nil, err
	}
	data, err := instructionData(depositForBurnDiscriminator, params)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(s.tokenMessengerMinter, accounts, data), nil
}

// NewReceiveMessageInstruction builds the mint of an attested burn message.
func (s *Solana) NewReceiveMessageInstruction(
	payer solana.PublicKey,
	sourceDomain types.Domain,
	nonce uint64,
	body *types.BurnMessage,
	params ReceiveMessageParams,
) (solana.Instruction, error) {
	data, err := instructionData(receiveMessageDiscriminator, params)
	if err != nil {
		return nil, err
	}
	accounts := s.GetReceiveMessageAccounts(payer, sourceDomain, nonce, body)
	return solana.NewInstruction(s.messageTransmitter, accounts, data), nil
}
