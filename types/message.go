package types

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Message is the CCTP message envelope emitted by the source MessageTransmitter.
// https://github.com/circlefin/evm-cctp-contracts/blob/d53f0e1937a0a5c5158d356b6767b77dc32dcc90/src/messages/Message.sol#L29-L37
type Message struct {
	Version           uint32
	SourceDomain      uint32
	DestinationDomain uint32
	Nonce             uint64
	Sender            []byte
	Recipient         []byte
	DestinationCaller []byte
	MessageBody       []byte
}

// BurnMessage is the TokenMessenger payload carried in a Message body.
// https://github.com/circlefin/evm-cctp-contracts/blob/d53f0e1937a0a5c5158d356b6767b77dc32dcc90/src/messages/BurnMessage.sol#L24-L29
type BurnMessage struct {
	Version       uint32
	BurnToken     []byte
	MintRecipient []byte
	Amount        *big.Int
	MessageSender []byte
}

const (
	versionIndex           = 0
	sourceDomainIndex      = 4
	destinationDomainIndex = 8
	nonceIndex             = 12
	senderIndex            = 20
	recipientIndex         = 52
	destinationCallerIndex = 84
	messageBodyIndex       = 116
)

const (
	burnVersionIndex   = 0
	burnTokenIndex     = 4
	mintRecipientIndex = 36
	amountIndex        = 68
	msgSenderIndex     = 100
	burnContentLength  = 132
)

func (msg *Message) Parse(bz []byte) (*Message, error) {
	if len(bz) < messageBodyIndex {
		return nil, fmt.Errorf("%w: message is %d bytes, need at least %d", ErrMalformedMessage, len(bz), messageBodyIndex)
	}

	msg.Version = binary.BigEndian.Uint32(bz[versionIndex:sourceDomainIndex])
	msg.SourceDomain = binary.BigEndian.Uint32(bz[sourceDomainIndex:destinationDomainIndex])
	msg.DestinationDomain = binary.BigEndian.Uint32(bz[destinationDomainIndex:nonceIndex])
	msg.Nonce = binary.BigEndian.Uint64(bz[nonceIndex:senderIndex])
	msg.Sender = bz[senderIndex:recipientIndex]
	msg.Recipient = bz[recipientIndex:destinationCallerIndex]
	msg.DestinationCaller = bz[destinationCallerIndex:messageBodyIndex]
	msg.MessageBody = bz[messageBodyIndex:]

	return msg, nil
}

// Bytes encodes the message in the layout Parse reads.
func (msg *Message) Bytes() []byte {
	bz := make([]byte, messageBodyIndex, messageBodyIndex+len(msg.MessageBody))
	binary.BigEndian.PutUint32(bz[versionIndex:], msg.Version)
	binary.BigEndian.PutUint32(bz[sourceDomainIndex:], msg.SourceDomain)
	binary.BigEndian.PutUint32(bz[destinationDomainIndex:], msg.DestinationDomain)
	binary.BigEndian.PutUint64(bz[nonceIndex:], msg.Nonce)
	copy(bz[senderIndex:recipientIndex], common.LeftPadBytes(msg.Sender, 32))
	copy(bz[recipientIndex:destinationCallerIndex], common.LeftPadBytes(msg.Recipient, 32))
	copy(bz[destinationCallerIndex:messageBodyIndex], common.LeftPadBytes(msg.DestinationCaller, 32))
	return append(bz, msg.MessageBody...)
}

func (c *BurnMessage) Parse(bz []byte) (*BurnMessage, error) {
	if len(bz) != burnContentLength {
		return nil, fmt.Errorf("%w: burn message is %d bytes, need %d", ErrMalformedMessage, len(bz), burnContentLength)
	}

	c.Version = binary.BigEndian.Uint32(bz[burnVersionIndex:burnTokenIndex])
	c.BurnToken = bz[burnTokenIndex:mintRecipientIndex]
	c.MintRecipient = bz[mintRecipientIndex:amountIndex]
	c.Amount = new(big.Int).SetBytes(bz[amountIndex:msgSenderIndex])
	c.MessageSender = bz[msgSenderIndex:]

	return c, nil
}

// Bytes encodes the burn message in the layout Parse reads.
func (c *BurnMessage) Bytes() []byte {
	bz := make([]byte, burnContentLength)
	binary.BigEndian.PutUint32(bz[burnVersionIndex:], c.Version)
	copy(bz[burnTokenIndex:mintRecipientIndex], common.LeftPadBytes(c.BurnToken, 32))
	copy(bz[mintRecipientIndex:amountIndex], common.LeftPadBytes(c.MintRecipient, 32))
	if c.Amount != nil {
		copy(bz[amountIndex:msgSenderIndex], common.LeftPadBytes(c.Amount.Bytes(), 32))
	}
	copy(bz[msgSenderIndex:], common.LeftPadBytes(c.MessageSender, 32))
	return bz
}

// DecodeHex decodes a 0x prefixed hex payload as returned by the attestation service.
func DecodeHex(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "0x") {
		s = "0x" + s
	}
	bz, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	return bz, nil
}

// DecodeNonce extracts the nonce from a hex encoded message.
func DecodeNonce(message string) (uint64, error) {
	bz, err := DecodeHex(message)
	if err != nil {
		return 0, err
	}
	msg, err := new(Message).Parse(bz)
	if err != nil {
		return 0, err
	}
	return msg.Nonce, nil
}
