package sigverify

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"gitlab.com/flarenetwork/fdc/transaction-sequencer/pkg/pipeline"
)

func TestSignAndVerify(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	tx := &pipeline.Transaction{
		Sender:   AddressOf(key),
		Sequence: 1,
		Method:   pipeline.MethodBalanceOf,
		Contract: "USDC",
	}

	require.NoError(t, Sign(tx, key))
	require.Len(t, tx.Signature, crypto.SignatureLength)

	v := New()

	msg, err := tx.SigningBytes()
	require.NoError(t, err)

	require.True(t, v.Verify(tx.Sender, msg, tx.Signature))
}

func TestVerifyRejectsWrongSender(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	other, err := crypto.GenerateKey()
	require.NoError(t, err)

	tx := &pipeline.Transaction{
		Sender:   AddressOf(key),
		Sequence: 1,
		Method:   pipeline.MethodBalanceOf,
		Contract: "USDC",
	}
	require.NoError(t, Sign(tx, key))

	msg, err := tx.SigningBytes()
	require.NoError(t, err)

	v := New()

	require.False(t, v.Verify(AddressOf(other), msg, tx.Signature))
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	tx := &pipeline.Transaction{
		Sender:   AddressOf(key),
		Sequence: 1,
		Method:   pipeline.MethodTransfer,
		Contract: "USDC",
		To:       AddressOf(key),
		Amount:   10,
	}
	require.NoError(t, Sign(tx, key))

	tx.Amount = 1000000

	msg, err := tx.SigningBytes()
	require.NoError(t, err)

	v := New()

	require.False(t, v.Verify(tx.Sender, msg, tx.Signature))
}

func TestVerifyRejectsMalformedSignature(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	v := New()

	require.False(t, v.Verify(AddressOf(key), []byte("msg"), nil))
	require.False(t, v.Verify(AddressOf(key), []byte("msg"), make([]byte, 12)))
}

// Distinct transactions must canonicalize to distinct bytes, or two
// different requests could share a signature.
func TestSigningBytesInjective(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	base := pipeline.Transaction{
		Sender:   AddressOf(key),
		Sequence: 7,
		Method:   pipeline.MethodTransfer,
		Contract: "USDC",
		To:       AddressOf(key),
		Amount:   10,
	}

	variants := []pipeline.Transaction{base, base, base, base}
	variants[1].Sequence = 8
	variants[2].Method = pipeline.MethodBalanceOf
	variants[3].Contract = "WBTC"

	seen := make(map[string]int)
	for i, tx := range variants {
		msg, err := tx.SigningBytes()
		require.NoError(t, err)

		if prev, ok := seen[string(msg)]; ok {
			require.Equal(t, variants[prev], tx, "variant %d collides with %d", i, prev)
		}

		seen[string(msg)] = i
	}

	require.Len(t, seen, len(variants))
}
