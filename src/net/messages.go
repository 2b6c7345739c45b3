package net

import (
	"fmt"

	"github.com/mosaicnetworks/stakechain/src/blockchain"
	"github.com/mosaicnetworks/stakechain/src/crypto"
)

const (
	msgNewTransaction uint8 = iota + 1
	msgNewBlock
	msgBlockchainRequest
	msgBlockchain
)

// NewTransactionMessage announces a signed transaction.
type NewTransactionMessage struct {
	Transaction *blockchain.Transaction
}

// NewBlockMessage announces a forged block.
type NewBlockMessage struct {
	Block *blockchain.Block
}

// BlockchainRequest asks a peer for all its blocks starting at FromSequence.
// It is sent when connecting to a peer, and when a block arrives that does
// not follow the local tip.
type BlockchainRequest struct {
	FromSequence int
}

// BlockchainResponse answers a BlockchainRequest.
type BlockchainResponse struct {
	Blocks []*blockchain.Block
}

// Message is a command received from a peer. From identifies the connection
// it arrived on and can be passed to Transport.Send to reply.
type Message struct {
	From    string
	Command interface{}
}

func encodeMessage(cmd interface{}) (uint8, []byte, error) {
	var msgType uint8

	switch cmd.(type) {
	case *NewTransactionMessage:
		msgType = msgNewTransaction
	case *NewBlockMessage:
		msgType = msgNewBlock
	case *BlockchainRequest:
		msgType = msgBlockchainRequest
	case *BlockchainResponse:
		msgType = msgBlockchain
	default:
		return 0, nil, fmt.Errorf("unknown message type %T", cmd)
	}

	payload, err := crypto.Canonical(cmd)
	if err != nil {
		return 0, nil, err
	}

	return msgType, payload, nil
}

func decodeMessage(msgType uint8, payload []byte) (interface{}, error) {
	var cmd interface{}

	switch msgType {
	case msgNewTransaction:
		cmd = new(NewTransactionMessage)
	case msgNewBlock:
		cmd = new(NewBlockMessage)
	case msgBlockchainRequest:
		cmd = new(BlockchainRequest)
	case msgBlockchain:
		cmd = new(BlockchainResponse)
	default:
		return nil, fmt.Errorf("%w: unknown message type %d", ErrMalformedMessage, msgType)
	}

	if err := crypto.DecodeCanonical(payload, cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	switch c := cmd.(type) {
	case *NewTransactionMessage:
		if c.Transaction == nil {
			return nil, fmt.Errorf("%w: empty transaction", ErrMalformedMessage)
		}
	case *NewBlockMessage:
		if c.Block == nil {
			return nil, fmt.Errorf("%w: empty block", ErrMalformedMessage)
		}
	}

	return cmd, nil
}
