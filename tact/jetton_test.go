package tact

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/branched-services/go-tvmcell"
)

func TestTokenTransferRoundTrip(t *testing.T) {
	custom := tvmcell.BeginCell()
	require.NoError(t, custom.StoreBit(true))
	require.NoError(t, custom.StoreUint(0, 32))
	require.NoError(t, custom.StoreStringTail("EEEEEE"))
	customCell, err := custom.EndCell()
	require.NoError(t, err)

	forward, err := CommentPayload("transfer jetton.")
	require.NoError(t, err)

	in := &TokenTransfer{
		QueryID:             0,
		Amount:              tvmcell.MustParseCoins("50"),
		Destination:         testAddress(0x11),
		ResponseDestination: testAddress(0x22),
		CustomPayload:       customCell,
		ForwardTonAmount:    tvmcell.MustParseCoins("0.01"),
		ForwardPayload:      forward,
	}
	c, err := ToCell(in)
	require.NoError(t, err)

	op, err := c.BeginParse().PreloadUint(32)
	require.NoError(t, err)
	assert.Equal(t, uint64(OpTokenTransfer), op)

	s := c.BeginParse()
	out, err := LoadTokenTransfer(s)
	require.NoError(t, err)
	require.NoError(t, s.EndParse())

	assert.Equal(t, in.QueryID, out.QueryID)
	assert.Equal(t, "50", tvmcell.FormatCoins(out.Amount))
	assert.Equal(t, "0.01", tvmcell.FormatCoins(out.ForwardTonAmount))
	assert.True(t, in.Destination.Equal(out.Destination))
	assert.True(t, in.ResponseDestination.Equal(out.ResponseDestination))
	assert.True(t, customCell.Equal(out.CustomPayload))
	assert.True(t, forward.Equal(out.ForwardPayload))

	fp := out.ForwardPayload.BeginParse()
	inRef, err := fp.LoadBit()
	require.NoError(t, err)
	assert.False(t, inRef)
	textOp, err := fp.LoadUint(32)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), textOp)
	text, err := fp.LoadStringTail()
	require.NoError(t, err)
	assert.Equal(t, "transfer jetton.", text)
}

func TestTokenTransferWithoutPayloads(t *testing.T) {
	in := &TokenTransfer{
		QueryID:             7,
		Amount:              big.NewInt(1),
		Destination:         testAddress(1),
		ResponseDestination: testAddress(2),
		ForwardTonAmount:    big.NewInt(0),
	}
	c, err := ToCell(in)
	require.NoError(t, err)
	assert.Equal(t, 0, c.RefsCount())

	out, err := LoadTokenTransfer(c.BeginParse())
	require.NoError(t, err)
	assert.Equal(t, uint64(7), out.QueryID)
	assert.Nil(t, out.CustomPayload)
	assert.Equal(t, 0, out.ForwardPayload.BitsLen())
	assert.Equal(t, 0, out.ForwardTonAmount.Sign())
}

func TestTokenTransferWrongHeader(t *testing.T) {
	b := tvmcell.BeginCell()
	require.NoError(t, b.StoreUint(0x178d4519, 32))
	c, err := b.EndCell()
	require.NoError(t, err)

	s := c.BeginParse()
	_, err = LoadTokenTransfer(s)
	require.ErrorIs(t, err, ErrInvalidPrefix)
	assert.Equal(t, 0, s.BitsOffset())
}

func TestTokenTransferMissingDestination(t *testing.T) {
	_, err := ToCell(&TokenTransfer{Amount: big.NewInt(1), ForwardTonAmount: big.NewInt(0)})
	require.ErrorIs(t, err, ErrMissingField)
}
