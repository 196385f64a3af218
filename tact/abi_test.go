package tact

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/branched-services/go-tvmcell"
)

const helloWorldTypes = `[
	{"name":"StateInit","header":null,"fields":[{"name":"code","type":{"kind":"simple","type":"cell","optional":false}},{"name":"data","type":{"kind":"simple","type":"cell","optional":false}}]},
	{"name":"Context","header":null,"fields":[{"name":"bounced","type":{"kind":"simple","type":"bool","optional":false}},{"name":"sender","type":{"kind":"simple","type":"address","optional":false}},{"name":"value","type":{"kind":"simple","type":"int","optional":false,"format":257}},{"name":"raw","type":{"kind":"simple","type":"slice","optional":false}}]},
	{"name":"SendParameters","header":null,"fields":[{"name":"bounce","type":{"kind":"simple","type":"bool","optional":false}},{"name":"to","type":{"kind":"simple","type":"address","optional":false}},{"name":"value","type":{"kind":"simple","type":"int","optional":false,"format":257}},{"name":"mode","type":{"kind":"simple","type":"int","optional":false,"format":257}},{"name":"body","type":{"kind":"simple","type":"cell","optional":true}},{"name":"code","type":{"kind":"simple","type":"cell","optional":true}},{"name":"data","type":{"kind":"simple","type":"cell","optional":true}}]},
	{"name":"MyMsgBody","header":null,"fields":[{"name":"x","type":{"kind":"simple","type":"int","optional":false,"format":257}},{"name":"y","type":{"kind":"simple","type":"string","optional":false}}]}
]`

const jettonABI = `{
	"name": "JettonWallet",
	"types": [
		{"name":"TokenTransfer","header":260734629,"fields":[
			{"name":"query_id","type":{"kind":"simple","type":"uint","optional":false,"format":64}},
			{"name":"amount","type":{"kind":"simple","type":"uint","optional":false,"format":"coins"}},
			{"name":"destination","type":{"kind":"simple","type":"address","optional":false}},
			{"name":"response_destination","type":{"kind":"simple","type":"address","optional":false}},
			{"name":"custom_payload","type":{"kind":"simple","type":"cell","optional":true}},
			{"name":"forward_ton_amount","type":{"kind":"simple","type":"uint","optional":false,"format":"coins"}},
			{"name":"forward_payload","type":{"kind":"simple","type":"slice","optional":false,"format":"remaining"}}
		]},
		{"name":"Wrapped","header":null,"fields":[
			{"name":"owner","type":{"kind":"simple","type":"address","optional":true}},
			{"name":"init","type":{"kind":"simple","type":"StateInit","optional":false,"format":"ref"}},
			{"name":"balances","type":{"kind":"dict","key":"uint","keyFormat":32,"value":"cell"}},
			{"name":"limit","type":{"kind":"simple","type":"int","optional":true,"format":32}}
		]},
		{"name":"StateInit","header":null,"fields":[{"name":"code","type":{"kind":"simple","type":"cell","optional":false}},{"name":"data","type":{"kind":"simple","type":"cell","optional":false}}]}
	],
	"errors": {
		"2": {"message": "Stack underflow"},
		"136": {"message": "Invalid address"},
		"9": {"message": "Cell underflow"}
	}
}`

func TestParseTypes(t *testing.T) {
	a, err := ParseTypes([]byte(helloWorldTypes))
	require.NoError(t, err)
	assert.Equal(t, []string{"StateInit", "Context", "SendParameters", "MyMsgBody"}, a.TypeNames())
	assert.True(t, a.HasType("Context"))
	assert.False(t, a.HasType("Missing"))

	_, err = a.Lookup("Missing")
	require.ErrorIs(t, err, ErrTypeNotFound)
}

func TestParseABI(t *testing.T) {
	a, err := ParseABI([]byte(jettonABI))
	require.NoError(t, err)
	assert.Equal(t, "JettonWallet", a.Name)
	assert.Equal(t, []int{2, 9, 136}, a.ExitCodes())
	assert.Equal(t, "Invalid address", a.Errors[136])

	tt, err := a.Lookup("TokenTransfer")
	require.NoError(t, err)
	require.NotNil(t, tt.Header)
	assert.Equal(t, OpTokenTransfer, *tt.Header)
}

func TestParseTypesRejectsUnknown(t *testing.T) {
	tests := []struct {
		name string
		json string
		want error
	}{
		{"unknown struct", `[{"name":"A","header":null,"fields":[{"name":"b","type":{"kind":"simple","type":"B","optional":false}}]}]`, ErrTypeNotFound},
		{"unknown kind", `[{"name":"A","header":null,"fields":[{"name":"b","type":{"kind":"tuple","type":"int","optional":false}}]}]`, ErrUnsupportedType},
		{"address dict key", `[{"name":"A","header":null,"fields":[{"name":"b","type":{"kind":"dict","key":"address","value":"int"}}]}]`, ErrUnsupportedType},
		{"width too large", `[{"name":"A","header":null,"fields":[{"name":"b","type":{"kind":"simple","type":"uint","optional":false,"format":300}}]}]`, tvmcell.ErrInvalidWidth},
		{"int coins", `[{"name":"A","header":null,"fields":[{"name":"b","type":{"kind":"simple","type":"int","optional":false,"format":"coins"}}]}]`, ErrUnsupportedType},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseTypes([]byte(tc.json))
			require.ErrorIs(t, err, tc.want)
		})
	}

	_, err := ParseTypes([]byte(`{not json`))
	require.Error(t, err)
}

func TestSchemaMatchesBindings(t *testing.T) {
	a := MustParseTypes([]byte(helloWorldTypes))

	t.Run("Context", func(t *testing.T) {
		raw := testCell(t, 5)
		want, err := ToCell(&Context{Bounced: true, Sender: testAddress(9), Value: big.NewInt(-42), Raw: raw})
		require.NoError(t, err)

		typ, err := a.Lookup("Context")
		require.NoError(t, err)
		got, err := typ.ToCell(map[string]any{
			"bounced": true,
			"sender":  testAddress(9),
			"value":   -42,
			"raw":     raw,
		})
		require.NoError(t, err)
		assert.Equal(t, want.Hash(), got.Hash())

		rec, err := typ.FromCell(got)
		require.NoError(t, err)
		assert.Equal(t, true, rec["bounced"])
		assert.Equal(t, int64(-42), rec["value"].(*big.Int).Int64())
		assert.True(t, raw.Equal(rec["raw"].(*tvmcell.Cell)))
	})

	t.Run("SendParameters", func(t *testing.T) {
		body := testCell(t, 6)
		want, err := ToCell(&SendParameters{To: testAddress(1), Value: big.NewInt(10), Mode: big.NewInt(2), Body: body})
		require.NoError(t, err)

		typ, err := a.Lookup("SendParameters")
		require.NoError(t, err)
		got, err := typ.ToCell(map[string]any{
			"bounce": false,
			"to":     testAddress(1),
			"value":  int64(10),
			"mode":   uint32(2),
			"body":   body,
		})
		require.NoError(t, err)
		assert.Equal(t, want.Hash(), got.Hash())

		rec, err := typ.FromCell(got)
		require.NoError(t, err)
		assert.Nil(t, rec["code"])
		assert.Nil(t, rec["data"])
	})

	t.Run("MyMsgBody", func(t *testing.T) {
		want, err := ToCell(&MyMsgBody{X: big.NewInt(3), Y: "hi"})
		require.NoError(t, err)

		typ, err := a.Lookup("MyMsgBody")
		require.NoError(t, err)
		got, err := typ.ToCell(map[string]any{"x": 3, "y": "hi"})
		require.NoError(t, err)
		assert.Equal(t, want.Hash(), got.Hash())
	})

	t.Run("TokenTransfer", func(t *testing.T) {
		jetton, err := ParseABI([]byte(jettonABI))
		require.NoError(t, err)
		forward, err := CommentPayload("hey")
		require.NoError(t, err)

		want, err := ToCell(&TokenTransfer{
			QueryID:             1,
			Amount:              big.NewInt(5),
			Destination:         testAddress(1),
			ResponseDestination: testAddress(2),
			ForwardTonAmount:    big.NewInt(0),
			ForwardPayload:      forward,
		})
		require.NoError(t, err)

		typ, err := jetton.Lookup("TokenTransfer")
		require.NoError(t, err)
		got, err := typ.ToCell(map[string]any{
			"query_id":             uint64(1),
			"amount":               5,
			"destination":          testAddress(1),
			"response_destination": testAddress(2),
			"forward_ton_amount":   0,
			"forward_payload":      forward,
		})
		require.NoError(t, err)
		assert.Equal(t, want.Hash(), got.Hash())
	})
}

func TestSchemaNestedAndOptional(t *testing.T) {
	a, err := ParseABI([]byte(jettonABI))
	require.NoError(t, err)
	typ, err := a.Lookup("Wrapped")
	require.NoError(t, err)

	balances := tvmcell.NewDictionary(32)
	require.NoError(t, balances.SetUint(7, testCell(t, 70)))

	c, err := typ.ToCell(map[string]any{
		"init":     map[string]any{"code": testCell(t, 1), "data": testCell(t, 2)},
		"balances": balances,
		"limit":    -1,
	})
	require.NoError(t, err)

	s := c.BeginParse()
	rec, err := typ.Load(s)
	require.NoError(t, err)
	require.NoError(t, s.EndParse())

	assert.Nil(t, rec["owner"])
	assert.Equal(t, int64(-1), rec["limit"].(*big.Int).Int64())
	init := rec["init"].(map[string]any)
	assert.True(t, testCell(t, 2).Equal(init["data"].(*tvmcell.Cell)))
	d := rec["balances"].(*tvmcell.Dictionary)
	v, ok := d.GetUint(7)
	require.True(t, ok)
	assert.True(t, testCell(t, 70).Equal(v))
}

func TestSchemaErrors(t *testing.T) {
	a := MustParseTypes([]byte(helloWorldTypes))
	typ, err := a.Lookup("MyMsgBody")
	require.NoError(t, err)

	t.Run("missing field", func(t *testing.T) {
		_, err := typ.ToCell(map[string]any{"x": 1})
		require.ErrorIs(t, err, ErrMissingField)
	})

	t.Run("wrong value type", func(t *testing.T) {
		_, err := typ.ToCell(map[string]any{"x": "one", "y": "a"})
		require.ErrorIs(t, err, ErrValueType)
	})

	t.Run("header mismatch", func(t *testing.T) {
		jetton, err := ParseABI([]byte(jettonABI))
		require.NoError(t, err)
		tt, err := jetton.Lookup("TokenTransfer")
		require.NoError(t, err)

		c, err := typ.ToCell(map[string]any{"x": 1, "y": "a"})
		require.NoError(t, err)
		s := c.BeginParse()
		_, err = tt.Load(s)
		require.ErrorIs(t, err, ErrInvalidPrefix)
		assert.Equal(t, 0, s.BitsOffset())
	})
}
