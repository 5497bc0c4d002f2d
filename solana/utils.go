package solana

import (
	"strconv"

	"github.com/gagliardetto/solana-go"

	"cosmossdk.io/math"

	"github.com/strangelove-ventures/cctp-payroll/types"
)

// MaxNonces is the number of nonces tracked by one used nonces account.
const MaxNonces = 6400

// FirstNonce returns the first nonce of the used nonces account holding nonce.
func FirstNonce(nonce uint64) uint64 {
	if nonce == 0 {
		return 1
	}
	return math.NewUint(nonce).SubUint64(1).QuoUint64(MaxNonces).MulUint64(MaxNonces).AddUint64(1).Uint64()
}

// UsedNoncesAccount returns the Message Transmitter account tracking nonce from sourceDomain.
func (s *Solana) UsedNoncesAccount(sourceDomain types.Domain, nonce uint64) solana.PublicKey {
	usedNonces, _, _ := solana.FindProgramAddress([][]byte{
		[]byte("used_nonces"),
		[]byte(strconv.Itoa(int(sourceDomain))),
		[]byte(strconv.FormatUint(FirstNonce(nonce), 10)),
	}, s.messageTransmitter)
	return usedNonces
}

// GetDepositForBurnAccounts returns all accounts to be included in a Deposit
// For Burn instruction on the CCTP Token Messenger Minter program.
func (s *Solana) GetDepositForBurnAccounts(
	owner solana.PublicKey,
	messageSentEventData solana.PublicKey,
	destinationDomain uint32,
) ([]*solana.AccountMeta, error) {
	accounts := make([]*solana.AccountMeta, 17)

	// 1 - Owner
	accounts[0] = solana.Meta(owner).SIGNER()

	// 2 - Event Rent Payer
	accounts[1] = solana.Meta(owner).WRITE().SIGNER()

	// 3 - Sender Authority Pda
	senderAuthority, _, _ := solana.FindProgramAddress([][]byte{
		[]byte("sender_authority"),
	}, s.tokenMessengerMinter)

	accounts[2] = solana.Meta(senderAuthority)

	// 4 - Burn Token Account
	burnTokenAccount, _, err := solana.FindAssociatedTokenAddress(owner, s.fiatToken)
	if err != nil {
		return nil, err
	}

	accounts[3] = solana.Meta(burnTokenAccount).WRITE()

	// 5 - Message Transmitter
	messageTransmitter, _, _ := solana.FindProgramAddress([][]byte{
		[]byte("message_transmitter"),
	}, s.messageTransmitter)

	accounts[4] = solana.Meta(messageTransmitter).WRITE()

	// 6 - Token Messenger
	tokenMessenger, _, _ := solana.FindProgramAddress([][]byte{
		[]byte("token_messenger"),
	}, s.tokenMessengerMinter)

	accounts[5] = solana.Meta(tokenMessenger)

	// 7 - Remote Token Messenger
	remoteTokenMessenger, _, _ := solana.FindProgramAddress([][]byte{
		[]byte("remote_token_messenger"),
		[]byte(strconv.Itoa(int(destinationDomain))),
	}, s.tokenMessengerMinter)

	accounts[6] = solana.Meta(remoteTokenMessenger)

	// 8 - Token Minter
	tokenMinter, _, _ := solana.FindProgramAddress([][]byte{
		[]byte("token_minter"),
	}, s.tokenMessengerMinter)

	accounts[7] = solana.Meta(tokenMinter)

	// 9 - Local Token
	localToken, _, _ := solana.FindProgramAddress([][]byte{
		[]byte("local_token"),
		s.fiatToken.Bytes(),
	}, s.tokenMessengerMinter)

	accounts[8] = solana.Meta(localToken).WRITE()

	// 10 - Burn Token Mint
	accounts[9] = solana.Meta(s.fiatToken).WRITE()

	// 11 - Message Sent Event Data
	accounts[10] = solana.Meta(messageSentEventData).WRITE().SIGNER()

	// 12 - Message Transmitter Program
	accounts[11] = solana.Meta(s.messageTransmitter)

	// 13 - Token Messenger Minter Program
	accounts[12] = solana.Meta(s.tokenMessengerMinter)

	// 14 - Token Program
	accounts[13] = solana.Meta(solana.TokenProgramID)

	// 15 - System Program
	accounts[14] = solana.Meta(solana.SystemProgramID)

	// 16 - Event Authority
	eventAuthority, _, _ := solana.FindProgramAddress([][]byte{
		[]byte("__event_authority"),
	}, s.tokenMessengerMinter)

	accounts[15] = solana.Meta(eventAuthority)

	// 17 - Program
	accounts[16] = solana.Meta(s.tokenMessengerMinter)

	return accounts, nil
}

// GetReceiveMessageAccounts returns all accounts to be included in a Receive
// Message instruction on the CCTP Message Transmitter program.
func (s *Solana) GetReceiveMessageAccounts(
	payer solana.PublicKey,
	sourceDomain types.Domain,
	nonce uint64,
	body *types.BurnMessage,
) []*solana.AccountMeta {
	accounts := make([]*solana.AccountMeta, 19)

	// 1 - Payer
	accounts[0] = &solana.AccountMeta{
		PublicKey:  payer,
		IsWritable: true,
		IsSigner:   true,
	}

	// 2 - Caller
	accounts[1] = &solana.AccountMeta{
		PublicKey: payer,
		IsSigner:  true,
	}

	// 3 - Authority Pda
	authorityPda, _, _ := solana.FindProgramAddress([][]byte{
		[]byte("message_transmitter_authority"),
		s.tokenMessengerMinter.Bytes(),
	}, s.messageTransmitter)

	accounts[2] = &solana.AccountMeta{
		PublicKey: authorityPda,
	}

	// 4 - Message Transmitter
	messageTransmitter, _, _ := solana.FindProgramAddress([][]byte{
		[]byte("message_transmitter"),
	}, s.messageTransmitter)

	accounts[3] = &solana.AccountMeta{
		PublicKey: messageTransmitter,
	}

	// 5 - Used Nonces
	accounts[4] = &solana.AccountMeta{
		PublicKey:  s.UsedNoncesAccount(sourceDomain, nonce),
		IsWritable: true,
	}

	// 6 - Receiver
	accounts[5] = &solana.AccountMeta{
		PublicKey: s.tokenMessengerMinter,
	}

	// 7 - System Program
	accounts[6] = &solana.AccountMeta{
		PublicKey: solana.SystemProgramID,
	}

	// 8 - Event Authority
	eventAuthority, _, _ := solana.FindProgramAddress([][]byte{
		[]byte("__event_authority"),
	}, s.messageTransmitter)

	accounts[7] = &solana.AccountMeta{
		PublicKey: eventAuthority,
	}

	// 9 - Program
	accounts[8] = &solana.AccountMeta{
		PublicKey: s.messageTransmitter,
	}

	// 10 - Token Messenger
	tokenMessenger, _, _ := solana.FindProgramAddress([][]byte{
		[]byte("token_messenger"),
	}, s.tokenMessengerMinter)

	accounts[9] = &solana.AccountMeta{
		PublicKey: tokenMessenger,
	}

	// 11 - Remote Token Messenger
	remoteTokenMessenger, _, _ := solana.FindProgramAddress([][]byte{
		[]byte("remote_token_messenger"),
		[]byte(strconv.Itoa(int(sourceDomain))),
	}, s.tokenMessengerMinter)

	accounts[10] = &solana.AccountMeta{
		PublicKey: remoteTokenMessenger,
	}

	// 12 - Token Minter
	tokenMinter, _, _ := solana.FindProgramAddress([][]byte{
		[]byte("token_minter"),
	}, s.tokenMessengerMinter)

	accounts[11] = &solana.AccountMeta{
		PublicKey:  tokenMinter,
		IsWritable: true,
	}

	// 13 - Local Token
	localToken, _, _ := solana.FindProgramAddress([][]byte{
		[]byte("local_token"),
		s.fiatToken.Bytes(),
	}, s.tokenMessengerMinter)

	accounts[12] = &solana.AccountMeta{
		PublicKey:  localToken,
		IsWritable: true,
	}

	// 14 - Token Pair, keyed by the burned token on the source chain
	tokenPair, _, _ := solana.FindProgramAddress([][]byte{
		[]byte("token_pair"),
		[]byte(strconv.Itoa(int(sourceDomain))),
		body.BurnToken,
	}, s.tokenMessengerMinter)

	accounts[13] = &solana.AccountMeta{
		PublicKey: tokenPair,
	}

	// 15 - Recipient Token Account
	accounts[14] = &solana.AccountMeta{
		PublicKey:  solana.PublicKeyFromBytes(body.MintRecipient),
		IsWritable: true,
	}

	// 16 - Custody Token Account
	custodyTokenAccount, _, _ := solana.FindProgramAddress([][]byte{
		[]byte("custody"),
		s.fiatToken.Bytes(),
	}, s.tokenMessengerMinter)

	accounts[15] = &solana.AccountMeta{
		PublicKey:  custodyTokenAccount,
		IsWritable: true,
	}

	// 17 - Token Program
	accounts[16] = &solana.AccountMeta{
		PublicKey: solana.TokenProgramID,
	}

	// 18 - Event Authority
	eventAuthority, _, _ = solana.FindProgramAddress([][]byte{
		[]byte("__event_authority"),
	}, s.tokenMessengerMinter)

	accounts[17] = &solana.AccountMeta{
		PublicKey: eventAuthority,
	}

	// 19 - Program
	accounts[18] = &solana.AccountMeta{
		PublicKey: s.tokenMessengerMinter,
	}

	return accounts
}
