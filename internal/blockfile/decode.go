package blockfile

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/wire"
)

// ErrMalformedBlock wraps any structural decode failure. Decoding never
// executes scripts or checks signatures; the caller decides whether a
// malformed block is skippable.
var ErrMalformedBlock = errors.New("malformed block")

// DecodeBlock parses raw block bytes: the 80-byte header, the transaction
// count and every transaction including segregated witness data.
func DecodeBlock(raw []byte) (*wire.MsgBlock, error) {
	var block wire.MsgBlock
	if err := block.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBlock, err)
	}
	return &block, nil
}

// DecodeHeader parses a standalone 80-byte block header.
func DecodeHeader(raw []byte) (*wire.BlockHeader, error) {
	var header wire.BlockHeader
	if err := header.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBlock, err)
	}
	return &header, nil
}
